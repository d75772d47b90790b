// Package logtail replays and follows a JSON log file as an ingestion source.
//
// # Reading
//
// Read extracts the last N complete lines with a ring buffer in one pass,
// using O(N) memory regardless of file size, and reports the byte offset just
// past the last complete line:
//
//	1. Allocate ring buffer of size N
//	2. For each complete line: store at idx, advance idx modulo N
//	3. Fewer than N lines: return the first count entries
//	4. Otherwise: return the buffer starting at idx (the oldest line)
//
// A trailing line without a newline is not returned; the follower picks it up
// once it is finished.
//
// # Following
//
// Follow replays the backfill and then hands the file to nxadm/tail, starting
// at the offset Read reported so no line is delivered twice. Every line is
// passed to the callback with its newline restored; the caller feeds those
// bytes into a frame decoder exactly like socket data.
//
// Read returns nil lines for non-existent files. Follow waits for such a file
// to appear and reopens it after rotation.
package logtail
