package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot represents the latest ingestion status available to the UI.
type Snapshot struct {
	Port              int
	Listening         bool
	ActiveConnections int
	TotalConnections  int
	DecodeErrors      int
	LastListenError   error
	LastDecodeError   error
	LastChange        time.Time
}

// Healthy reports whether the listener is up with no outstanding listen error.
func (s Snapshot) Healthy() bool {
	return s.Listening && s.LastListenError == nil
}

// Store coordinates concurrent updates to the snapshot. The zero value is ready
// to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetListening records a successful bind on port and clears any listen error.
func (s *Store) SetListening(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Port = port
	s.snapshot.Listening = true
	s.snapshot.LastListenError = nil
	s.snapshot.LastChange = time.Now()
}

// SetStopped records that the listener is down. A non-nil err is kept for
// display until the next successful bind.
func (s *Store) SetStopped(port int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Port = port
	s.snapshot.Listening = false
	s.snapshot.ActiveConnections = 0
	if err != nil {
		s.snapshot.LastListenError = err
	}
	s.snapshot.LastChange = time.Now()
}

// ConnectionOpened bumps the active and lifetime connection counters.
func (s *Store) ConnectionOpened() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.ActiveConnections++
	s.snapshot.TotalConnections++
	s.snapshot.LastChange = time.Now()
}

// ConnectionClosed decrements the active connection counter.
func (s *Store) ConnectionClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.ActiveConnections > 0 {
		s.snapshot.ActiveConnections--
	}
	s.snapshot.LastChange = time.Now()
}

// DecodeFailed counts a dropped frame.
func (s *Store) DecodeFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.DecodeErrors++
	s.snapshot.LastDecodeError = err
	s.snapshot.LastChange = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.LastListenError = cloneErr(s.snapshot.LastListenError)
	snap.LastDecodeError = cloneErr(s.snapshot.LastDecodeError)
	return snap
}

func cloneErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w", err)
}
