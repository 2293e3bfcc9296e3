// Package logging builds the slog loggers used by the fibernav commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/agilira/go-errors"
)

// ErrCodeInvalid is returned for unknown levels or formats.
const ErrCodeInvalid = "LOGGING_INVALID"

// ParseLevel maps debug, info, warn and error (case-insensitive) to a slog level.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.New(ErrCodeInvalid, fmt.Sprintf("unknown log level %q", s))
}

// New returns a logger writing to w. format is "text" or "json".
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.New(ErrCodeInvalid, fmt.Sprintf("unknown log format %q", format))
	}
	return slog.New(h), nil
}
