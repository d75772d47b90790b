// Package frame reassembles log records from a raw TCP byte stream.
//
// # Framing
//
// Senders write JSON objects back to back with no delimiter. Chunks arrive in
// arbitrary sizes, so a single read may hold half a frame, several frames, or
// the tail of one frame followed by the head of the next. The Decoder keeps an
// append-only buffer per connection and walks it once:
//
//	depth == 0      skip bytes until '{'
//	depth  > 0      track '{' and '}' outside strings
//	inside "..."    ignore braces, honour backslash escapes
//	depth back to 0 parse buffer[start:pos] as one frame
//
// Scan state is kept between Feed calls, so a large frame split over many
// reads is scanned exactly once.
//
// # Frame shape
//
//	{"date":"2024-05-01T10:11:12.345Z","level":"Warning",
//	 "category":"LogNet","message":"socket reset","source":"srv"}
//
// date, level, category and message are required strings. source is an
// optional string. Unknown fields are ignored.
//
// # Errors
//
// A frame that is not valid JSON, is not an object, or lacks a required
// string field is returned as a *DecodeError and dropped. Decoding resumes at
// the next '{', so one malformed message never stalls the stream. Callers log
// these errors; they are never shown in the log table.
package frame
