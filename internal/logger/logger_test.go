package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	logger := Get()
	if logger == nil {
		t.Error("Get() returned nil logger")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		debug     string
		format    string
		wantJSON  bool
		wantDebug bool
	}{
		{name: "default config"},
		{name: "debug mode", debug: "1", wantDebug: true},
		{name: "json format", format: "json", wantJSON: true},
		{name: "json format case insensitive", format: "JSON", wantJSON: true},
		{name: "unknown format", format: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SMOKEPORT_DEBUG", tt.debug)
			t.Setenv("SMOKEPORT_LOG_FORMAT", tt.format)

			var buf bytes.Buffer
			logger := FromEnv(&buf)
			logger.Debug("debug line")
			logger.Info("info line")

			if got := strings.Contains(buf.String(), "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v: %s", got, tt.wantDebug, buf.String())
			}
			firstLine, _, _ := strings.Cut(buf.String(), "\n")
			var decoded map[string]any
			if isJSON := json.Unmarshal([]byte(firstLine), &decoded) == nil; isJSON != tt.wantJSON {
				t.Errorf("output JSON = %v, want %v: %s", isJSON, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantJSON bool
	}{
		{name: "text format", format: "text", wantJSON: false},
		{name: "json format", format: "json", wantJSON: true},
		{name: "unknown format falls back to text", format: "logfmt", wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, slog.LevelInfo, tt.format)
			logger.Info("New connection", "remote", "127.0.0.1:5555")

			var decoded map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &decoded) == nil
			if isJSON != tt.wantJSON {
				t.Errorf("output JSON = %v, want %v: %s", isJSON, tt.wantJSON, buf.String())
			}
			if !strings.Contains(buf.String(), "127.0.0.1:5555") {
				t.Errorf("output missing attribute: %s", buf.String())
			}
		})
	}
}

func TestShortLevelNames(t *testing.T) {
	levels := []struct {
		log  func(*slog.Logger)
		want string
	}{
		{func(l *slog.Logger) { l.Debug("test message") }, "level=DBG"},
		{func(l *slog.Logger) { l.Info("test message") }, "level=INF"},
		{func(l *slog.Logger) { l.Warn("test message") }, "level=WRN"},
		{func(l *slog.Logger) { l.Error("test message") }, "level=ERR"},
	}

	for _, tt := range levels {
		var buf bytes.Buffer
		tt.log(New(&buf, slog.LevelDebug, "text"))
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, "text")
	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Errorf("info message logged at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn message missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
