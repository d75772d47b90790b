package view

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/five82/logdeck/internal/filter"
	"github.com/five82/logdeck/internal/logstore"
	"github.com/five82/logdeck/internal/pause"
	"github.com/five82/logdeck/internal/record"
	"github.com/five82/logdeck/internal/timefmt"
)

const (
	// NoticeSeverity and NoticeCategory mark records synthesised by logdeck.
	NoticeSeverity = "Warning"
	NoticeCategory = "Internal"

	noticeTimestampLayout = "2006-01-02T15:04:05.000"
)

// Options configure a Synchronizer.
type Options struct {
	Capacity     int
	RelativeTime bool
	TimeFormat   string
	Appearance   Appearance
	// Now defaults to time.Now.
	Now func() time.Time
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Synchronizer owns the log store, filter, pause state and timestamp
// projector, and tells the attached sink what to show after every event. It is
// not safe for concurrent use; one event loop drives it.
type Synchronizer struct {
	store *logstore.Store
	pause pause.Controller
	clock *timefmt.Projector

	spec filter.Spec
	pred filter.Predicate
	// visible counts stored records matching pred.
	visible int

	sink       Sink
	appearance Appearance

	now    func() time.Time
	logger *log.Logger
}

// New builds a Synchronizer with an empty store and no sink.
func New(opts Options) *Synchronizer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Synchronizer{
		store:      logstore.New(opts.Capacity),
		clock:      timefmt.New(opts.RelativeTime, opts.TimeFormat, now()),
		appearance: opts.Appearance,
		now:        now,
		logger:     logger,
	}
}

// Attach connects sink and pushes the complete current view to it.
func (s *Synchronizer) Attach(sink Sink) {
	s.sink = sink
	if sink == nil {
		return
	}
	s.send(s.appearance)
	s.send(FilterInputs{Spec: s.spec})
	s.send(PauseState{Paused: s.pause.Paused()})
	s.send(SetRows{Rows: s.Displayed()})
	s.emitCounts()
}

// Detach disconnects the sink. Ingestion and counting continue.
func (s *Synchronizer) Detach() {
	s.sink = nil
}

// Attached reports whether a sink is connected.
func (s *Synchronizer) Attached() bool {
	return s.sink != nil
}

// Ingest stores r and updates the sink.
//
// When the store is full the oldest records are evicted first and an
// eviction notice is stored ahead of r. The sink then receives RemoveOldest,
// the notice row and r's row, in that order. RemoveOldest counts only evicted
// records that passed the current filter, since those are the only ones the
// sink shows; it is not sent when none were visible or while paused.
func (s *Synchronizer) Ingest(r record.Record) {
	info := s.store.Reserve()
	live := !s.pause.Paused()

	if info.Evicted {
		removed := 0
		for _, dropped := range info.Dropped {
			if s.pred.Match(dropped) {
				removed++
			}
		}
		s.visible -= removed
		if live && removed > 0 {
			s.send(RemoveOldest{Count: removed})
		}

		notice := s.evictionNotice(info)
		s.store.Append(notice)
		s.show(notice, live)
		s.logger.Printf("log store full: evicted %d records (capacity %d)", info.Count, info.Capacity)
	}

	s.store.Append(r)
	s.show(r, live)
	s.emitCounts()
}

// show counts a newly stored record and appends it to a live sink when it
// passes the filter.
func (s *Synchronizer) show(r record.Record, live bool) {
	if !s.pred.Match(r) {
		return
	}
	s.visible++
	if live {
		s.send(AppendRow{Row: s.clock.Row(r)})
	}
}

// Filters returns the current filter.
func (s *Synchronizer) Filters() filter.Spec {
	return s.spec
}

// SetFilters merges p into the filter and re-renders the whole view. Filter
// edits apply while paused too: the frozen rows are replaced by the newly
// filtered store contents.
func (s *Synchronizer) SetFilters(p filter.Patch) {
	s.applySpec(s.spec.Apply(p))
	rows := s.liveRows()
	s.pause.Refreeze(rows)
	s.send(SetRows{Rows: rows})
	s.emitCounts()
}

// ClearDisplay empties the store and restarts relative time while keeping the
// filter.
func (s *Synchronizer) ClearDisplay() {
	s.reset()
	s.send(SetRows{})
	s.emitCounts()
}

// Clear empties the store, restarts relative time and resets the filter.
func (s *Synchronizer) Clear() {
	s.reset()
	s.applySpec(filter.Spec{})
	s.send(ResetFilters{})
	s.send(SetRows{})
	s.emitCounts()
}

// TogglePause freezes or unfreezes the view and reports whether it is now
// paused. Resuming pushes everything that arrived while paused.
func (s *Synchronizer) TogglePause() bool {
	paused := s.pause.Toggle(s.liveRows)
	s.send(PauseState{Paused: paused})
	if !paused {
		s.send(SetRows{Rows: s.liveRows()})
	}
	s.emitCounts()
	return paused
}

// Paused reports whether the view is frozen.
func (s *Synchronizer) Paused() bool {
	return s.pause.Paused()
}

// Displayed returns the rows the sink is expected to show: the frozen rows
// while paused, otherwise the filtered store contents.
func (s *Synchronizer) Displayed() []record.Row {
	if s.pause.Paused() {
		return s.pause.Snapshot()
	}
	return s.liveRows()
}

// Counts returns the number of shown rows and stored records.
func (s *Synchronizer) Counts() (shown, total int) {
	if n, ok := s.pause.Shown(); ok {
		return n, s.store.Len()
	}
	return s.visible, s.store.Len()
}

// Export returns the newest limit records passing the filter, oldest first,
// one per line as "<timestamp> [<severity>] [<category>] <message>".
func (s *Synchronizer) Export(limit int) string {
	if limit <= 0 {
		return ""
	}
	all := s.store.All()
	picked := make([]record.Record, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(picked) < limit; i-- {
		if s.pred.Match(all[i]) {
			picked = append(picked, all[i])
		}
	}
	var b strings.Builder
	for i := len(picked) - 1; i >= 0; i-- {
		r := picked[i]
		fmt.Fprintf(&b, "%s [%s] [%s] %s\n", r.Timestamp, r.Severity, r.Category, r.Message)
	}
	return b.String()
}

// SetCapacity applies a capacity change. It takes effect at the next insert.
func (s *Synchronizer) SetCapacity(n int) {
	s.store.SetCapacity(n)
}

// Capacity returns the store capacity.
func (s *Synchronizer) Capacity() int {
	return s.store.Capacity()
}

// SetTimeMode switches timestamp rendering. A live view is re-rendered; a
// paused view keeps its frozen rows until resumed.
func (s *Synchronizer) SetTimeMode(relative bool, format string) {
	s.clock.SetMode(relative, format)
	if !s.pause.Paused() {
		s.send(SetRows{Rows: s.liveRows()})
		s.emitCounts()
	}
}

// SetAppearance stores and relays presentation settings.
func (s *Synchronizer) SetAppearance(a Appearance) {
	s.appearance = a
	s.send(a)
}

// ToggleFilterBar relays a filter bar visibility toggle to the sink.
func (s *Synchronizer) ToggleFilterBar() {
	s.send(ToggleFilterBar{})
}

func (s *Synchronizer) reset() {
	s.store.Clear()
	s.visible = 0
	s.clock.ResetEpoch(s.now())
	s.pause.ClearSnapshot()
}

func (s *Synchronizer) applySpec(spec filter.Spec) {
	s.spec = spec
	s.pred = filter.Compile(spec)
	s.visible = 0
	for _, r := range s.store.All() {
		if s.pred.Match(r) {
			s.visible++
		}
	}
}

func (s *Synchronizer) liveRows() []record.Row {
	all := s.store.All()
	rows := make([]record.Row, 0, s.visible)
	for _, r := range all {
		if s.pred.Match(r) {
			rows = append(rows, s.clock.Row(r))
		}
	}
	return rows
}

func (s *Synchronizer) evictionNotice(info logstore.EvictionInfo) record.Record {
	return record.Record{
		Timestamp: s.now().Format(noticeTimestampLayout),
		Severity:  NoticeSeverity,
		Category:  NoticeCategory,
		Message:   fmt.Sprintf("Log buffer full: removed %d oldest entries (capacity %d)", info.Count, info.Capacity),
	}
}

func (s *Synchronizer) emitCounts() {
	shown, total := s.Counts()
	s.send(UpdateCounts{Shown: shown, Total: total})
}

func (s *Synchronizer) send(in Instruction) {
	if s.sink == nil {
		return
	}
	s.sink.Send(in)
}
