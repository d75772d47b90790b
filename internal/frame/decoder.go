package frame

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/five82/logdeck/internal/record"
)

// MaxFrameBytes bounds a single buffered frame. A peer that opens a brace and
// never closes it loses the partial frame once it grows past this size.
const MaxFrameBytes = 1 << 20

var (
	// ErrNotObject reports a balanced frame that parsed to something other
	// than a JSON object.
	ErrNotObject = errors.New("frame is not a JSON object")
	// ErrMissingField reports a frame without one of the required fields.
	ErrMissingField = errors.New("missing required field")
	// ErrFieldType reports a required field that is present but not a string.
	ErrFieldType = errors.New("field is not a string")
	// ErrFrameTooLarge reports a partial frame discarded for exceeding MaxFrameBytes.
	ErrFrameTooLarge = errors.New("frame exceeds size limit")
)

// requiredFields maps wire names to their Record setters.
var requiredFields = []struct {
	name string
	set  func(*record.Record, string)
}{
	{"date", func(r *record.Record, v string) { r.Timestamp = v }},
	{"level", func(r *record.Record, v string) { r.Severity = v }},
	{"category", func(r *record.Record, v string) { r.Category = v }},
	{"message", func(r *record.Record, v string) { r.Message = v }},
}

// DecodeError describes a discarded frame.
type DecodeError struct {
	Frame []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %q: %v", snippet(e.Frame), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder extracts brace-balanced JSON object frames from a byte stream. The
// zero value is ready to use. A Decoder is not safe for concurrent use; keep
// one per connection.
type Decoder struct {
	buf    []byte
	parser fastjson.Parser

	// scan state survives between Feed calls so partial frames are not rescanned
	pos      int
	start    int
	depth    int
	inString bool
	escaped  bool
}

// Feed appends chunk to the buffered stream and returns every record completed
// by it, in stream order, together with errors for frames that were dropped.
func (d *Decoder) Feed(chunk []byte) ([]record.Record, []error) {
	d.buf = append(d.buf, chunk...)

	var (
		records []record.Record
		errs    []error
	)
	for d.pos < len(d.buf) {
		c := d.buf[d.pos]
		d.pos++

		if d.depth == 0 {
			if c == '{' {
				d.start = d.pos - 1
				d.depth = 1
			}
			continue
		}

		if d.inString {
			switch {
			case d.escaped:
				d.escaped = false
			case c == '\\':
				d.escaped = true
			case c == '"':
				d.inString = false
			}
			continue
		}

		switch c {
		case '"':
			d.inString = true
		case '{':
			d.depth++
		case '}':
			d.depth--
			if d.depth == 0 {
				rec, err := d.parse(d.buf[d.start:d.pos])
				if err != nil {
					errs = append(errs, err)
				} else {
					records = append(records, rec)
				}
			}
		}
	}

	d.compact()
	if d.depth > 0 && len(d.buf) > MaxFrameBytes {
		errs = append(errs, &DecodeError{Frame: cloneBytes(d.buf[:256]), Err: ErrFrameTooLarge})
		d.Reset()
	}
	return records, errs
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset discards any buffered bytes.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.pos = 0
	d.start = 0
	d.depth = 0
	d.inString = false
	d.escaped = false
}

// compact drops consumed bytes and leading garbage, keeping only an open frame.
func (d *Decoder) compact() {
	keep := d.pos
	if d.depth > 0 {
		keep = d.start
	}
	if keep == 0 {
		return
	}
	d.buf = append(d.buf[:0], d.buf[keep:]...)
	d.pos -= keep
	d.start = 0
}

func (d *Decoder) parse(frame []byte) (record.Record, error) {
	v, err := d.parser.ParseBytes(frame)
	if err != nil {
		return record.Record{}, &DecodeError{Frame: cloneBytes(frame), Err: err}
	}
	if v.Type() != fastjson.TypeObject {
		return record.Record{}, &DecodeError{Frame: cloneBytes(frame), Err: ErrNotObject}
	}

	var rec record.Record
	for _, field := range requiredFields {
		fv := v.Get(field.name)
		if fv == nil {
			return record.Record{}, &DecodeError{Frame: cloneBytes(frame), Err: fmt.Errorf("%w %q", ErrMissingField, field.name)}
		}
		if fv.Type() != fastjson.TypeString {
			return record.Record{}, &DecodeError{Frame: cloneBytes(frame), Err: fmt.Errorf("%q: %w", field.name, ErrFieldType)}
		}
		field.set(&rec, string(fv.GetStringBytes()))
	}
	if src := v.Get("source"); src != nil && src.Type() == fastjson.TypeString {
		rec.Source = string(src.GetStringBytes())
	}
	return rec, nil
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

func snippet(b []byte) string {
	const limit = 80
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
