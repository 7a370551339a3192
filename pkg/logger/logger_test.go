package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wonny/pitviper/backend/pkg/config"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{"debug level", &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}, zerolog.DebugLevel},
		{"info level", &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"}, zerolog.InfoLevel},
		{"warn level", &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "console"}, zerolog.WarnLevel},
		{"error level", &config.Config{Env: "production", LogLevel: "error", LogFormat: "pretty"}, zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { logger.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { logger.Info("info message") }, "info message", "info"},
		{"warn", func() { logger.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { logger.Error("error message") }, "error message", "error"},
		{"infof", func() { logger.Infof("rows: %d", 42) }, "rows: 42", "info"},
		{"warnf", func() { logger.Warnf("fallback for %s", "crypto") }, "fallback for crypto", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, entry["level"])
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, entry["message"])
			}
		})
	}
}

func TestNewWithWriterLevel(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %s", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	logger.WithField("asset_type", "crypto").
		WithFields(map[string]interface{}{
			"source": "mock",
			"count":  3,
		}).
		Info("source collected")

	entry := decode(t, &buf)
	if entry["asset_type"] != "crypto" {
		t.Errorf("Expected asset_type crypto, got %v", entry["asset_type"])
	}
	if entry["source"] != "mock" {
		t.Errorf("Expected source mock, got %v", entry["source"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("Expected count 3, got %v", entry["count"])
	}
}

func TestWithError(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	logger.WithError(errors.New("provider timeout")).Error("fetch failed")

	entry := decode(t, &buf)
	if entry["error"] != "provider timeout" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["message"] != "fetch failed" {
		t.Errorf("Expected message 'fetch failed', got %v", entry["message"])
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.WithField("k", "v").Error("ignored")
}

func TestModuleAndPairs(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	logger.Module("collector").WithPairs("asset_type", "bond", 7, "x", "dangling").Info("collected")

	entry := decode(t, &buf)
	if entry["module"] != "collector" {
		t.Errorf("Expected module collector, got %v", entry["module"])
	}
	if entry["asset_type"] != "bond" {
		t.Errorf("Expected asset_type bond, got %v", entry["asset_type"])
	}
	if entry["7"] != "x" {
		t.Errorf("Expected non-string key formatted, got %v", entry["7"])
	}
	if entry["dangling"] != "!missing" {
		t.Errorf("Expected missing marker, got %v", entry["dangling"])
	}
}

func TestCronLogger(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	cron := NewWithWriter(&buf, "debug").Cron()

	cron.Info("schedule", "entry", 1)
	entry := decode(t, &buf)
	if entry["level"] != "debug" {
		t.Errorf("Expected cron info at debug, got %v", entry["level"])
	}

	buf.Reset()
	cron.Error(errors.New("boom"), "job panic", "entry", 2)
	entry = decode(t, &buf)
	if entry["level"] != "error" || entry["error"] != "boom" {
		t.Errorf("Unexpected cron error entry %v", entry)
	}
}
