// Package prefs remembers what the operator last chose in the UI: the color
// theme and whether the filter bar is shown. Unlike config, nothing here is
// edited by hand; the UI writes the file whenever one of these changes.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/logdeck/internal/config"
)

// Prefs holds the interactive UI choices.
type Prefs struct {
	Theme         string `toml:"theme"`
	HideFilterBar bool   `toml:"hide_filter_bar"`
}

const (
	defaultPrefsPath = "~/.config/logdeck/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Default returns the choices used before anything was saved.
func Default() Prefs {
	return Prefs{Theme: defaultTheme}
}

// DefaultPath returns where prefs live when no path is given.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads path, or DefaultPath when path is empty. A missing file yields
// Default with no error. A file that cannot be read or parsed also yields
// Default, together with the error so the caller can log it; a broken prefs
// file never stops logdeck from starting.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), err
	}

	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read prefs: %w", err)
	}

	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	return p.normalize(), nil
}

// Save writes p to path, or DefaultPath when path is empty.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := config.WriteAtomic(resolved, data); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func (p Prefs) normalize() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return resolved, nil
}
