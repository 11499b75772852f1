// Package logging builds the structured logger shared by the indexer, the
// CLI and the MCP server.
//
// All output goes to a single writer (stderr in practice) so that stdout
// stays reserved for command results and the MCP stdio transport.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Level is the minimum severity that is emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(value string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", value)
}

// Config controls logger construction.
type Config struct {
	// Level sets the minimum log level. Default: LevelInfo.
	Level Level

	// Service is attached to every record as the "service" attribute when set.
	Service string

	// JSON switches the handler from text to JSON.
	JSON bool

	// Quiet discards all output.
	Quiet bool
}

// New returns a slog.Logger writing to w according to cfg.
func New(cfg Config, w io.Writer) *slog.Logger {
	if cfg.Quiet || w == nil {
		w = io.Discard
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	return logger
}

// Nop returns a logger that drops everything; used by tests and library callers.
func Nop() *slog.Logger {
	return New(Config{Quiet: true}, nil)
}
