package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Ingest.Port != DefaultPort {
		t.Fatalf("Port = %d, want %d", cfg.Ingest.Port, DefaultPort)
	}
	if cfg.Store.MaxRecords != DefaultMaxRecords {
		t.Fatalf("MaxRecords = %d, want %d", cfg.Store.MaxRecords, DefaultMaxRecords)
	}
	if cfg.View.ExportLimit != DefaultExportLimit {
		t.Fatalf("ExportLimit = %d, want %d", cfg.View.ExportLimit, DefaultExportLimit)
	}
	if cfg.View.TimestampFormat != "HH:mm:ss.SSS" {
		t.Fatalf("TimestampFormat = %q, want HH:mm:ss.SSS", cfg.View.TimestampFormat)
	}

	wantLog, err := ExpandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("ExpandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.Log.File != wantLog {
		t.Fatalf("Log.File = %q, want %q", cfg.Log.File, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
[ingest]
port = 7000
tail_file = "  ~/game/log.json  "

[store]
max_records = 5000

[view]
relative_timestamps = true
timestamp_format = "  yyyy-MM-dd HH:mm:ss  "
grid_lines = true
export_limit = 250
export_compress = true

[log]
file = "~/logs/logdeck.log"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Ingest.Port != 7000 {
		t.Fatalf("Port = %d, want 7000", cfg.Ingest.Port)
	}
	if cfg.Ingest.TailFile != filepath.Join(home, "game/log.json") {
		t.Fatalf("TailFile = %q, want it expanded under HOME", cfg.Ingest.TailFile)
	}
	if cfg.Store.MaxRecords != 5000 {
		t.Fatalf("MaxRecords = %d, want 5000", cfg.Store.MaxRecords)
	}
	if !cfg.View.RelativeTimestamps || !cfg.View.GridLines || !cfg.View.ExportCompress {
		t.Fatalf("view booleans not parsed: %+v", cfg.View)
	}
	if cfg.View.TimestampFormat != "yyyy-MM-dd HH:mm:ss" {
		t.Fatalf("TimestampFormat = %q, want trimmed", cfg.View.TimestampFormat)
	}
	if cfg.View.ExportLimit != 250 {
		t.Fatalf("ExportLimit = %d, want 250", cfg.View.ExportLimit)
	}
	if !strings.HasPrefix(cfg.Log.File, home) {
		t.Fatalf("Log.File = %q, want it under HOME %q", cfg.Log.File, home)
	}
}

func TestNormalize_Clamps(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name        string
		in          Config
		wantPort    int
		wantRecords int
		wantExport  int
	}{
		{"zero values", Config{}, DefaultPort, DefaultMaxRecords, DefaultExportLimit},
		{"below floors", Config{Ingest: IngestConfig{Port: 80}, Store: StoreConfig{MaxRecords: 5}, View: ViewConfig{ExportLimit: 10}}, 80, MinMaxRecords, MinExportLimit},
		{"above ceilings", Config{Ingest: IngestConfig{Port: 70000}, Store: StoreConfig{MaxRecords: 1 << 20}, View: ViewConfig{ExportLimit: 50000}}, DefaultPort, 1 << 20, MaxExportLimit},
		{"negative", Config{Ingest: IngestConfig{Port: -1}, Store: StoreConfig{MaxRecords: -3}, View: ViewConfig{ExportLimit: -1}}, DefaultPort, DefaultMaxRecords, DefaultExportLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.Ingest.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", got.Ingest.Port, tt.wantPort)
			}
			if got.Store.MaxRecords != tt.wantRecords {
				t.Errorf("MaxRecords = %d, want %d", got.Store.MaxRecords, tt.wantRecords)
			}
			if got.View.ExportLimit != tt.wantExport {
				t.Errorf("ExportLimit = %d, want %d", got.View.ExportLimit, tt.wantExport)
			}
		})
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`[ingest`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Ingest.Port = 12345
	cfg.View.RelativeTimestamps = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != cfg.Normalize() {
		t.Fatalf("Load after Save = %+v, want %+v", loaded, cfg.Normalize())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("config dir has %d entries, want only config.toml", len(entries))
	}
}

func TestWatch_ReportsChanges(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	if err := Watch(ctx, path, func(cfg Config, err error) {
		if err == nil {
			changes <- cfg
		}
	}); err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	cfg := Default()
	cfg.Store.MaxRecords = 2500
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			if got.Store.MaxRecords == 2500 {
				return
			}
		case <-deadline:
			t.Fatalf("no change notification with the new max_records")
		}
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("ExpandPath returned nil error, want error")
	}
}

func TestWriteAtomic_ReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.toml")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := WriteAtomic(path, []byte("new")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "new" {
		t.Fatalf("content = %q (%v), want new", got, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only the target file", len(entries))
	}
}
