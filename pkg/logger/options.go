package logger

import (
	"io"
	"log/slog"
)

// Format selects how records are rendered.
type Format string

const (
	// FormatText is slog's key=value text, the default for pipes and files.
	FormatText Format = "text"

	// FormatJSON writes one JSON object per record.
	FormatJSON Format = "json"

	// FormatPretty is the colorized charmbracelet/log console format.
	FormatPretty Format = "pretty"
)

// Option adjusts a logger built by New.
type Option func(*config)

// WithFormat picks the record format.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithLevel drops records below level.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithWriter sends output to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

// WithCaller adds the calling file and line to every record.
func WithCaller(on bool) Option {
	return func(c *config) { c.caller = on }
}
