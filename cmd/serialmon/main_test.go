package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Station-Manager/serialmon"
)

func TestRunBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-timeout=-1s", "-log-level", "disabled"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "Error: ") || strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single Error line, got %q", out)
	}
	if !strings.Contains(out, "ReadTimeout") {
		t.Fatalf("error line should name the field, got %q", out)
	}
}

func TestRunMissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr.String(), "config:") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestRunMissingDevice(t *testing.T) {
	stats := filepath.Join(t.TempDir(), "stats.json")
	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-port", "/dev/ttyDOESNOTEXIST0",
		"-log-level", "disabled",
		"-stats", stats,
	}, &stdout, &stderr)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "Error: ") || strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single Error line, got %q", out)
	}
	if strings.Contains(out, "Received:") || strings.Contains(out, "Serial connection closed") {
		t.Fatalf("unexpected lines for a device that never opened: %q", out)
	}

	data, err := os.ReadFile(stats)
	if err != nil {
		t.Fatalf("reading stats: %v", err)
	}
	var snap serialmon.MetricsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if snap.OpenAttempts != 1 || snap.OpenFailures != 1 || snap.IsConnected {
		t.Fatalf("unexpected stats %+v", snap)
	}
}
