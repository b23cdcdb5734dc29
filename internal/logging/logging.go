package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photomark/internal/models"
)

// New builds the process logger from config. Supports
// "trace" | "debug" | "info" | "warn" | "error" levels and
// "json" | "console" formats.
func New(cfg models.LogConfig) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return &base
}
