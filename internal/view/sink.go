package view

import (
	"fmt"
	"io"

	"github.com/five82/logdeck/internal/record"
)

// Sink receives display instructions. Send is called from the event loop and
// must not call back into the Synchronizer.
type Sink interface {
	Send(Instruction)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Instruction)

// Send calls f(in).
func (f SinkFunc) Send(in Instruction) { f(in) }

// WriterSink prints rows as plain text lines. Instructions other than
// SetRows and AppendRow are ignored, and removals do not unprint anything.
type WriterSink struct {
	W io.Writer
}

// Send implements Sink.
func (s WriterSink) Send(in Instruction) {
	switch msg := in.(type) {
	case SetRows:
		for _, row := range msg.Rows {
			s.writeRow(row)
		}
	case AppendRow:
		s.writeRow(msg.Row)
	}
}

func (s WriterSink) writeRow(row record.Row) {
	if src := row.ShortSource(); src != "" {
		_, _ = fmt.Fprintf(s.W, "%s %-3s [%s] [%s] %s\n", row.Time, src, row.Severity, row.Category, row.Message)
		return
	}
	_, _ = fmt.Fprintf(s.W, "%s [%s] [%s] %s\n", row.Time, row.Severity, row.Category, row.Message)
}
