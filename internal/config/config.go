package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds every logdeck setting. Values returned by Load are normalised.
type Config struct {
	Ingest IngestConfig `toml:"ingest"`
	Store  StoreConfig  `toml:"store"`
	View   ViewConfig   `toml:"view"`
	Log    LogConfig    `toml:"log"`
}

// IngestConfig controls where records come from.
type IngestConfig struct {
	Port     int    `toml:"port"`
	TailFile string `toml:"tail_file,omitempty"`
}

// StoreConfig controls the in-memory record buffer.
type StoreConfig struct {
	MaxRecords int `toml:"max_records"`
}

// ViewConfig controls rendering and export.
type ViewConfig struct {
	RelativeTimestamps bool   `toml:"relative_timestamps"`
	TimestampFormat    string `toml:"timestamp_format"`
	GridLines          bool   `toml:"grid_lines"`
	ExportLimit        int    `toml:"export_limit"`
	ExportDir          string `toml:"export_dir"`
	ExportCompress     bool   `toml:"export_compress"`
}

// LogConfig controls the diagnostic log file.
type LogConfig struct {
	File string `toml:"file"`
}

const (
	defaultConfigPath      = "~/.config/logdeck/config.toml"
	defaultLogFile         = "~/.local/state/logdeck/logdeck.log"
	defaultExportDir       = "~/.local/state/logdeck/exports"
	defaultTimestampFormat = "HH:mm:ss.SSS"

	DefaultPort        = 9876
	DefaultMaxRecords  = 10000
	MinMaxRecords      = 100
	DefaultExportLimit = 1000
	MinExportLimit     = 100
	MaxExportLimit     = 10000
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Ingest: IngestConfig{Port: DefaultPort},
		Store:  StoreConfig{MaxRecords: DefaultMaxRecords},
		View: ViewConfig{
			TimestampFormat: defaultTimestampFormat,
			ExportLimit:     DefaultExportLimit,
			ExportDir:       mustExpand(defaultExportDir),
		},
		Log: LogConfig{File: mustExpand(defaultLogFile)},
	}
}

// DefaultPath returns the default config file location, unexpanded.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the logdeck config, falling back to defaults when
// missing. Fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	return cfg.Normalize(), nil
}

// Save writes cfg to path, creating directories as needed. The file is
// replaced atomically so watchers never see a partial write.
func Save(path string, cfg Config) error {
	resolved, err := ResolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	bytes, err := toml.Marshal(cfg.Normalize())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := WriteAtomic(resolved, bytes); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteAtomic replaces the file at path with data through a temporary file in
// the same directory, so readers and watchers never see a partial write.
func WriteAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Normalize trims strings, expands paths and clamps numbers into range.
func (c Config) Normalize() Config {
	if c.Ingest.Port <= 0 || c.Ingest.Port > 65535 {
		c.Ingest.Port = DefaultPort
	}
	c.Ingest.TailFile = strings.TrimSpace(c.Ingest.TailFile)
	if c.Ingest.TailFile != "" {
		c.Ingest.TailFile = mustExpand(c.Ingest.TailFile)
	}

	switch {
	case c.Store.MaxRecords <= 0:
		c.Store.MaxRecords = DefaultMaxRecords
	case c.Store.MaxRecords < MinMaxRecords:
		c.Store.MaxRecords = MinMaxRecords
	}

	c.View.TimestampFormat = strings.TrimSpace(c.View.TimestampFormat)
	if c.View.TimestampFormat == "" {
		c.View.TimestampFormat = defaultTimestampFormat
	}
	switch {
	case c.View.ExportLimit <= 0:
		c.View.ExportLimit = DefaultExportLimit
	case c.View.ExportLimit < MinExportLimit:
		c.View.ExportLimit = MinExportLimit
	case c.View.ExportLimit > MaxExportLimit:
		c.View.ExportLimit = MaxExportLimit
	}
	c.View.ExportDir = strings.TrimSpace(c.View.ExportDir)
	if c.View.ExportDir == "" {
		c.View.ExportDir = defaultExportDir
	}
	c.View.ExportDir = mustExpand(c.View.ExportDir)

	c.Log.File = strings.TrimSpace(c.Log.File)
	if c.Log.File == "" {
		c.Log.File = defaultLogFile
	}
	c.Log.File = mustExpand(c.Log.File)
	return c
}

// ResolvePath expands path, or the default location when path is empty.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath trims path, expands a leading ~ and makes it absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
