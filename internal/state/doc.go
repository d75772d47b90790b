// Package state holds the ingestion status shown on the UI status line.
//
// # Overview
//
// The TCP listener, its connection goroutines and the app event loop all
// report into a Store; the UI reads a Snapshot on every tick. Records never
// pass through here. The view core owns those.
//
//	Producers:                       Consumer (UI):
//	┌────────────────────┐          ┌──────────────────┐
//	│ SetListening()     │          │                  │
//	│ ConnectionOpened() │─────────→│ store.Snapshot() │
//	│ DecodeFailed()     │ (mutex)  │ render status    │
//	└────────────────────┘          └──────────────────┘
//
// # Error Semantics
//
// SetStopped with a non-nil error records it as LastListenError. The error
// stays visible until the next SetListening, which is the only way the
// listener comes back: there is no automatic retry.
//
// Snapshot wraps stored errors with fmt.Errorf("%w") so callers never share
// the instance held by the store, while errors.Is still sees the original.
//
// # Usage Example
//
//	store := &state.Store{}
//	store.SetListening(9876)
//	store.ConnectionOpened()
//
//	snap := store.Snapshot()
//	fmt.Printf("port %d, %d clients\n", snap.Port, snap.ActiveConnections)
package state
