// Package logging builds the zerolog logger shared by the client and the examples.
package logging

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how much is logged.
type Config struct {
	// Level is a zerolog level name. Empty means info.
	Level string
	// File, when set, receives JSON lines rotated by lumberjack.
	File string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig mirrors the rotation settings used for long running processes.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to console and, when cfg.File is set, to a
// rotating file. The returned closer releases the file handle.
func New(cfg Config, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	var writers []io.Writer
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, NoColor: true})
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, file)
		closer = file
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("exchange", "kraken").
		Logger()
	return logger, closer, nil
}
