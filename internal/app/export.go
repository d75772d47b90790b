package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

const exportTimeLayout = "20060102-150405"

// writeExport stores text as logdeck-export-<time>.log, or .log.zst when
// compress is set.
func writeExport(dir string, compress bool, now time.Time, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := "logdeck-export-" + now.Format(exportTimeLayout) + ".log"
	data := []byte(text)
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return "", fmt.Errorf("init zstd: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		_ = enc.Close()
		name += ".zst"
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
