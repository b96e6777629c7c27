package config

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the application-wide structured logger. It discards output until
// InitLogger is called.
var Logger = zerolog.Nop()

var (
	logFileHandle *os.File
	logMu         sync.Mutex
)

// DefaultLogPath is used in TUI mode when no log_file is configured.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "nftokview.log")
	}
	return filepath.Join(home, ".nftokview.log")
}

// InitLogger sets Logger to the parsed level. With a non-empty file path logs are
// appended to that file only (the terminal belongs to the TUI); otherwise they go to
// a human readable stderr writer. An unparsable level falls back to info.
func InitLogger(level, file string) error {
	logMu.Lock()
	defer logMu.Unlock()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	closeLogFileLocked()

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return err
		}
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		logFileHandle = f
		out = f
	}

	Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return nil
}

// CloseLogFile closes the log file, if any, and silences Logger.
func CloseLogFile() {
	logMu.Lock()
	defer logMu.Unlock()
	closeLogFileLocked()
}

func closeLogFileLocked() {
	if logFileHandle != nil {
		_ = logFileHandle.Close()
		logFileHandle = nil
		Logger = zerolog.Nop()
	}
}
