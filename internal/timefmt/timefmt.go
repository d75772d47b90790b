// Package timefmt renders record timestamps as absolute wall-clock strings or
// as offsets from the last clear.
package timefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/logdeck/internal/record"
)

// DefaultFormat is the absolute timestamp format used when none is configured.
const DefaultFormat = "HH:mm:ss.SSS"

var inputLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// tokenReplacer maps the configurable format tokens onto Go layout elements.
// Only DefaultFormat is guaranteed to render exactly.
var tokenReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"hh", "03",
	"mm", "04",
	"ss", "05",
	"SSS", "000",
)

// Projector renders timestamps for display. It is not safe for concurrent use.
type Projector struct {
	relative bool
	format   string
	layout   string
	epoch    time.Time
	loc      *time.Location
}

// New returns a Projector in the given mode with epoch as the relative origin.
func New(relative bool, format string, epoch time.Time) *Projector {
	p := &Projector{epoch: epoch, loc: time.Local}
	p.SetMode(relative, format)
	return p
}

// SetMode switches between relative and absolute rendering and sets the
// absolute format.
func (p *Projector) SetMode(relative bool, format string) {
	format = strings.TrimSpace(format)
	if format == "" {
		format = DefaultFormat
	}
	p.relative = relative
	p.format = format
	p.layout = tokenReplacer.Replace(format)
}

// Relative reports whether timestamps render as offsets from the epoch.
func (p *Projector) Relative() bool {
	return p.relative
}

// Format returns the configured absolute format.
func (p *Projector) Format() string {
	return p.format
}

// ResetEpoch moves the relative origin to t.
func (p *Projector) ResetEpoch(t time.Time) {
	p.epoch = t
}

// Epoch returns the relative origin.
func (p *Projector) Epoch() time.Time {
	return p.epoch
}

// Render formats ts for display. Timestamps that cannot be parsed are returned
// unchanged.
func (p *Projector) Render(ts string) string {
	t, ok := Parse(ts, p.loc)
	if !ok {
		return ts
	}
	if p.relative {
		return FormatOffset(t.Sub(p.epoch))
	}
	return t.In(p.loc).Format(p.layout)
}

// Row renders r into a display row.
func (p *Projector) Row(r record.Record) record.Row {
	return record.Row{
		Time:     p.Render(r.Timestamp),
		Severity: r.Severity,
		Category: r.Category,
		Message:  r.Message,
		Source:   r.Source,
	}
}

// utcMarkers are the suffixes Parse treats as "UTC". Every spelling is
// stripped the same way so equal instants render equally.
var utcMarkers = []string{"Z", "z", "+00:00", "+0000"}

// Parse reads an ISO-8601-like timestamp. A trailing UTC marker (Z or a zero
// offset) is stripped and the remainder is read as wall-clock time in loc, not
// converted from UTC. Other explicit offsets are honoured.
func Parse(ts string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(ts)
	if s == "" {
		return time.Time{}, false
	}
	for _, marker := range utcMarkers {
		if trimmed, ok := strings.CutSuffix(s, marker); ok {
			s = trimmed
			break
		}
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FormatOffset renders d as +HH:MM:SS.mmm. Negative durations clamp to zero and
// hours keep counting past 24.
func FormatOffset(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := ms / 60_000 % 60
	seconds := ms / 1000 % 60
	millis := ms % 1000
	return fmt.Sprintf("+%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
