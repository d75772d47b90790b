package view

import (
	"github.com/five82/logdeck/internal/filter"
	"github.com/five82/logdeck/internal/record"
)

// Instruction is a message to the display sink. The set of implementations is
// closed; sinks type-switch over them.
type Instruction interface {
	instruction()
}

// SetRows replaces everything the sink shows.
type SetRows struct {
	Rows []record.Row
}

// AppendRow adds one row after the newest shown row.
type AppendRow struct {
	Row record.Row
}

// RemoveOldest drops the Count oldest shown rows. Count is the number of
// evicted records the sink was showing, which can be less than the number the
// store evicted when a filter hides some of them.
type RemoveOldest struct {
	Count int
}

// UpdateCounts reports visible and stored record counts.
type UpdateCounts struct {
	Shown int
	Total int
}

// FilterInputs sets the filter fields shown by the sink.
type FilterInputs struct {
	Spec filter.Spec
}

// PauseState reports whether the view is frozen.
type PauseState struct {
	Paused bool
}

// ResetFilters clears every filter field shown by the sink.
type ResetFilters struct{}

// ToggleFilterBar shows or hides the sink's filter inputs.
type ToggleFilterBar struct{}

// Appearance carries presentation settings the core does not interpret.
type Appearance struct {
	Theme     string
	GridLines bool
}

func (SetRows) instruction()         {}
func (AppendRow) instruction()       {}
func (RemoveOldest) instruction()    {}
func (UpdateCounts) instruction()    {}
func (FilterInputs) instruction()    {}
func (PauseState) instruction()      {}
func (ResetFilters) instruction()    {}
func (ToggleFilterBar) instruction() {}
func (Appearance) instruction()      {}
