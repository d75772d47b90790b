// Package view decides what the display shows.
//
// # Overview
//
// A Synchronizer owns the bounded log store, the current filter, the pause
// controller and the timestamp projector. Every event (a new record, a filter
// edit, a pause toggle, a clear) runs to completion and leaves the attached
// Sink with the same rows a fresh full render would produce.
//
// # Instructions
//
// Sinks receive a closed set of Instruction values:
//
//	SetRows        replace every shown row
//	AppendRow      add one row at the bottom
//	RemoveOldest   drop the N oldest rows
//	UpdateCounts   shown / total counters
//	FilterInputs   values for the filter fields
//	PauseState     live or frozen badge
//	ResetFilters   empty every filter field
//	ToggleFilterBar, Appearance
//	               presentation passthroughs
//
// # Event rules
//
//	Ingest        live:   RemoveOldest (if visible rows were evicted),
//	                      AppendRow for the record and the eviction notice
//	                      when they pass the filter, UpdateCounts
//	              paused: UpdateCounts only (total grows, shown is pinned)
//	SetFilters    SetRows over the whole store, live or paused
//	ClearDisplay  empty store, keep filter, restart relative clock
//	Clear         ClearDisplay plus filter reset and ResetFilters
//	TogglePause   resume pushes SetRows with everything that arrived
//
// Appends are emitted in store order: the new record first, then the
// eviction notice that was stored after it. RemoveOldest counts only evicted
// records that passed the filter, since the sink never saw the others.
//
// # Concurrency
//
// Nothing in this package locks. The app event loop is the single caller.
package view
