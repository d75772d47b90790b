// Package pause freezes the visible log rows while ingestion continues.
package pause

import "github.com/five82/logdeck/internal/record"

// Controller tracks the Live/Paused state and the rows frozen at the pause
// instant. The zero value is live.
type Controller struct {
	paused   bool
	snapshot []record.Row
	shown    int
}

// Toggle flips the state exactly once and reports whether the controller is
// now paused. On the live to paused edge capture is called to produce the
// currently visible rows; the controller keeps its own copy.
func (c *Controller) Toggle(capture func() []record.Row) bool {
	if c.paused {
		c.paused = false
		c.snapshot = nil
		c.shown = 0
		return false
	}
	var rows []record.Row
	if capture != nil {
		rows = record.CloneRows(capture())
	}
	c.paused = true
	c.snapshot = rows
	c.shown = len(rows)
	return true
}

// Paused reports whether the view is frozen.
func (c *Controller) Paused() bool {
	return c.paused
}

// Snapshot returns a copy of the frozen rows, or nil when live.
func (c *Controller) Snapshot() []record.Row {
	return record.CloneRows(c.snapshot)
}

// Shown returns the frozen row count. ok is false when live, where the count
// is undefined.
func (c *Controller) Shown() (n int, ok bool) {
	if !c.paused {
		return 0, false
	}
	return c.shown, true
}

// Refreeze replaces the frozen rows while staying paused. Filter edits use it
// so the paused view reflects the new filter. It is a no-op when live.
func (c *Controller) Refreeze(rows []record.Row) {
	if !c.paused {
		return
	}
	c.snapshot = record.CloneRows(rows)
	c.shown = len(rows)
}

// ClearSnapshot empties the frozen rows without leaving the paused state. It
// is a no-op when live.
func (c *Controller) ClearSnapshot() {
	if !c.paused {
		return
	}
	c.snapshot = nil
	c.shown = 0
}
