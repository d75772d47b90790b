// Package config loads, saves and watches the logdeck configuration file.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/logdeck/config.toml (default)
//  3. If the file doesn't exist, fall back to Default()
//  4. Fields missing from the file keep their defaults
//
// # TOML Format
//
//	[ingest]
//	port = 9876                  # TCP port producers connect to
//	tail_file = ""               # optional JSON log file to follow
//
//	[store]
//	max_records = 10000          # floor 100
//
//	[view]
//	relative_timestamps = false
//	timestamp_format = "HH:mm:ss.SSS"
//	grid_lines = false
//	export_limit = 1000          # clamped to [100, 10000]
//	export_dir = "~/.local/state/logdeck/exports"
//	export_compress = false      # write .log.zst instead of .log
//
//	[log]
//	file = "~/.local/state/logdeck/logdeck.log"
//
// Tilde expansion is performed for every path. Out-of-range numbers are
// clamped by Normalize rather than rejected.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist and TOML parse errors. Missing config files are NOT an error.
//
// # Live Reload
//
// Watch observes the config directory with fsnotify and calls back with a
// freshly loaded Config once writes settle. Save replaces the file through a
// rename, so a single Save produces a single callback.
//
//	err := config.Watch(ctx, "", func(cfg config.Config, err error) {
//		if err != nil {
//			log.Printf("config reload: %v", err)
//			return
//		}
//		loop.ApplyConfig(cfg)
//	})
package config
