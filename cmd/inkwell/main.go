package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"inkwell/internal/config"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	// Logs go to a file, not the terminal: command output stays parseable.
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if dir, err := defaultLogDir(); err == nil {
		if f, err := config.SetupLogFile(dir, 10); err == nil {
			defer f.Close()
			logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
				Level: logLevel,
			}))
		}
	}
	slog.SetDefault(logger)

	cmd := newRootCommand(cfg, logger)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func defaultLogDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "inkwell", "logs"), nil
}
