// Package logger builds the slog loggers used by the CLI and the console server.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Formats accepted by Options.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the handler chain.
type Options struct {
	Level  slog.Level
	Format string
	// OTel additionally exports records through the global OTel logger provider.
	OTel bool
	// Writer defaults to stderr so stdout stays clean for command output.
	Writer io.Writer
}

// New builds a logger. Every chain adds trace_id/span_id when the context carries a span.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	var base slog.Handler
	if strings.EqualFold(opts.Format, FormatJSON) {
		base = slog.NewJSONHandler(w, hopts)
	} else {
		base = slog.NewTextHandler(w, hopts)
	}

	var handler slog.Handler = NewTraceContextHandler(base)
	if opts.OTel {
		handler = NewFanoutHandler(handler, NewOTelHandler(opts.Level))
	}
	return slog.New(handler)
}

// ParseLevel maps a config string to a level; unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
