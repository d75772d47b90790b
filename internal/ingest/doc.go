// Package ingest accepts log producers over TCP.
//
// A Listener binds one port, gives every accepted connection a uuid and turns
// reads into Events on a single channel. Framing happens elsewhere: the
// consumer keeps one frame.Decoder per ConnID and drops it on Closed or
// Failed.
//
// Bind failures come back from Start as *ListenError and are published to
// the optional state.Store. Nothing retries; a later Start or Restart with a
// new port is the only recovery.
//
// Stop closes the socket and every tracked connection immediately. Events
// still in flight for those connections are discarded, so a consumer that
// restarts the listener should drop all of its decoders at the same time.
package ingest
