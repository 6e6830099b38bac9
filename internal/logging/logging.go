// Package logging sets up the process-wide zerolog.Logger every component
// takes as a constructor field, following xg2g's structured-logging setup
// in this pack but kept to what Sceneforged's components actually consume:
// a single configured root logger, handed out as `.With().Str("component",
// ...)` children the way internal/store and internal/probe already do.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the root logger's level and output shape.
type Config struct {
	Level  string // zerolog level name; empty defaults to "info"
	Pretty bool   // human-readable console writer instead of JSON lines
	Output io.Writer
}

// New builds the root logger. Every component-specific logger in the
// daemon is derived from this one via Logger.With().Str("component", ...).
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = cfg.Output
	if w == nil {
		w = os.Stdout
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "sceneforged").Logger()
}
