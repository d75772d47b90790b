package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/logdeck/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/logdeck/config.toml)")
	prefsPath := flag.String("prefs", "", "UI preferences path (optional)")
	port := flag.Int("port", 0, "TCP port to listen on (optional, overrides config)")
	tailFile := flag.String("tail", "", "also follow this log file (optional)")
	plain := flag.Bool("plain", false, "print records to stdout instead of running the TUI")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Port:       *port,
		TailFile:   *tailFile,
		Plain:      *plain,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "logdeck: %v\n", err)
		return 1
	}
	return 0
}
