package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

func init() {
	defaultLogger = FromEnv(os.Stderr)
	slog.SetDefault(defaultLogger)
}

// FromEnv builds a logger from SMOKEPORT_DEBUG and SMOKEPORT_LOG_FORMAT
func FromEnv(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("SMOKEPORT_DEBUG") != "" {
		level = slog.LevelDebug
	}

	format := "text"
	if strings.EqualFold(os.Getenv("SMOKEPORT_LOG_FORMAT"), "json") {
		format = "json"
	}

	return New(w, level, format)
}

// Get returns the default logger
func Get() *slog.Logger {
	return defaultLogger
}

// New builds a logger writing to w in text or json format
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: shortLevels,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
}

func shortLevels(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch level {
	case slog.LevelDebug:
		a.Value = slog.StringValue("DBG")
	case slog.LevelInfo:
		a.Value = slog.StringValue("INF")
	case slog.LevelWarn:
		a.Value = slog.StringValue("WRN")
	case slog.LevelError:
		a.Value = slog.StringValue("ERR")
	}
	return a
}
