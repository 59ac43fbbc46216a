package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the application logger. Stdout belongs to the TUI, so
// everything goes to a rotating file instead.
func newLogger(path string) zerolog.Logger {
	var w io.Writer = &lumberjack.Logger{
		Filename:   expandHome(path),
		MaxSize:    5, // MB
		MaxBackups: 2,
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// expandHome resolves a leading "~/" against the user home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
