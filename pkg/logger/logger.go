// Package logger builds the *slog.Logger instances used across docent.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	format Format
	caller bool
	out    io.Writer
}

// New returns a *slog.Logger configured by opts. Without options it writes
// slog's text format at Info level to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:  slog.LevelInfo,
		format: FormatText,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.out == nil {
		c.out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: c.level, AddSource: c.caller}

	switch c.format {
	case FormatPretty:
		return slog.New(charmlog.NewWithOptions(c.out, charmlog.Options{
			Level:           charmLevel(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.caller,
		}))
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(c.out, handlerOpts))
	default:
		return slog.New(slog.NewTextHandler(c.out, handlerOpts))
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
