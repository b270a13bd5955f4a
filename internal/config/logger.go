package config

import (
	"io"
	"log/slog"
	"strings"
)

// ServiceName is attached to every log record as the "service" attribute.
const ServiceName = "muckamuck"

// NewLogger builds a logger writing to w from LOG_LEVEL and LOG_FORMAT.
// Source locations are included in development.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLogLevel(c.LogLevel),
		AddSource: c.IsDevelopment(),
	}

	var h slog.Handler
	switch strings.ToLower(c.LogFormat) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With("service", ServiceName)
}

// ParseLogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
