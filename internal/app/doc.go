// Package app is the composition root for logdeck.
//
// # Overview
//
// Run loads configuration and preferences, builds the event loop, and hands a
// Controller to either the Bubble Tea UI or a plain writer sink. Everything
// that touches the view core happens on the loop goroutine.
//
// # Components
//
//   - app.go: Run, flag overrides, log file setup
//   - loop.go: the event loop; owns the view synchronizer, the listener and
//     one frame decoder per connection
//   - controller.go: the control surface used by the UI and tests
//   - sources.go: follows a log file as an extra pseudo-connection
//   - export.go: writes exports to disk, optionally zstd-compressed
//
// # Data Flow
//
//	┌──────────────┐   Event    ┌───────────┐  Instruction  ┌──────────┐
//	│ ingest/tail  │ ─────────> │   Loop    │ ────────────> │   sink   │
//	└──────────────┘            │ (decoder, │               │ (ui or   │
//	                            │  view)    │ <──────────── │  writer) │
//	                            └───────────┘   Controller  └──────────┘
//
// Listener goroutines only emit events; the loop decodes frames, feeds the
// synchronizer, and serializes controller calls between events. Config file
// changes arrive through config.Watch and are applied with ApplyConfig.
//
// # Usage Example
//
//	if err := app.Run(ctx, app.Options{Port: 9876}); err != nil {
//		log.Fatalf("logdeck failed: %v", err)
//	}
package app
