package serialmon

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(LogConfig{Level: "debug"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	defer closer.Close()

	logger.Debug().Str("port", "/dev/ttyUSB0").Msg("serial port opened")
	out := buf.String()
	if !strings.Contains(out, "serial port opened") || !strings.Contains(out, "/dev/ttyUSB0") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestNewLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	defer closer.Close()

	logger.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info line written at warn level: %q", buf.String())
	}
}

func TestNewLoggerBadLevel(t *testing.T) {
	if _, _, err := NewLogger(LogConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serialmon.log")
	logger, closer, err := NewLogger(LogConfig{Level: "info", File: path, MaxSizeMB: 1}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}

	logger.Info().Int("records", 3).Msg("monitor summary")
	if err := closer.Close(); err != nil {
		t.Fatalf("closing log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"monitor summary"`) || !strings.Contains(string(data), `"records":3`) {
		t.Fatalf("unexpected file contents %q", data)
	}
}
