// Package logstore holds the canonical, capacity-limited sequence of ingested
// records.
package logstore

import "github.com/five82/logdeck/internal/record"

const (
	// MinCapacity is the smallest capacity a Store accepts.
	MinCapacity = 100
	// DefaultCapacity is used when no capacity is configured.
	DefaultCapacity = 10000
)

// EvictionInfo reports what an insertion removed to stay within capacity.
type EvictionInfo struct {
	Evicted  bool
	Count    int
	Capacity int
	// Dropped holds the evicted records, oldest first.
	Dropped []record.Record
}

// Store is an append-only record sequence that evicts its oldest records when
// full. It is not safe for concurrent use; the event loop owns it.
type Store struct {
	records  []record.Record
	capacity int
}

// New returns a Store with the given capacity, clamped to MinCapacity.
func New(capacity int) *Store {
	s := &Store{}
	s.SetCapacity(capacity)
	return s
}

// SetCapacity changes the maximum record count. A smaller capacity never
// evicts immediately; the next Add trims the store.
func (s *Store) SetCapacity(capacity int) {
	switch {
	case capacity <= 0:
		capacity = DefaultCapacity
	case capacity < MinCapacity:
		capacity = MinCapacity
	}
	s.capacity = capacity
}

// Capacity returns the configured maximum record count.
func (s *Store) Capacity() int {
	return s.capacity
}

// EvictionStep returns how many records a single overflow evicts.
func (s *Store) EvictionStep() int {
	return max(1, s.capacity/10)
}

// Reserve makes room for one incoming record. When the store is full it
// evicts the oldest records, leaving room for an eviction notice and the
// record itself, which the caller then stores with Append in that order.
// Normally exactly EvictionStep records are removed; after a capacity shrink
// enough are removed to get back under the limit.
func (s *Store) Reserve() EvictionInfo {
	info := EvictionInfo{Capacity: s.capacity}
	if len(s.records)+1 <= s.capacity {
		return info
	}
	n := s.EvictionStep()
	if over := len(s.records) + 2 - s.capacity; over > n {
		n = over
	}
	n = min(n, len(s.records))
	info.Evicted = true
	info.Count = n
	info.Dropped = cloneRecords(s.records[:n])
	s.records = append(s.records[:0], s.records[n:]...)
	return info
}

// Add reserves room for r and appends it. Callers that record an eviction
// notice use Reserve and Append instead so the notice precedes r.
func (s *Store) Add(r record.Record) EvictionInfo {
	info := s.Reserve()
	s.records = append(s.records, r)
	return info
}

// Append adds r without eviction. Room must have been made by Reserve.
func (s *Store) Append(r record.Record) {
	s.records = append(s.records, r)
}

// All returns a copy of the stored records, oldest first.
func (s *Store) All() []record.Record {
	return cloneRecords(s.records)
}

// Tail returns a copy of the newest n records, oldest first.
func (s *Store) Tail(n int) []record.Record {
	if n <= 0 {
		return nil
	}
	start := max(0, len(s.records)-n)
	return cloneRecords(s.records[start:])
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Clear empties the store.
func (s *Store) Clear() {
	s.records = nil
}

func cloneRecords(records []record.Record) []record.Record {
	if len(records) == 0 {
		return nil
	}
	dup := make([]record.Record, len(records))
	copy(dup, records)
	return dup
}
