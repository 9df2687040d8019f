package diagnostics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_WritesNDJSONLines(t *testing.T) {
	os.Setenv("CLAUDE_HOOK_LOG_LEVEL", "debug")
	defer os.Unsetenv("CLAUDE_HOOK_LOG_LEVEL")

	path := filepath.Join(t.TempDir(), "debug.ndjson")
	logger, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer logger.Close()

	logger.Info("runner started", map[string]any{"event": "PreToolUse"})
	logger.Debug("check fired", map[string]any{"check": "stub_detector"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	var rec record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if rec.Msg != "runner started" {
		t.Errorf("msg = %q", rec.Msg)
	}
}

func TestLogger_LevelGating(t *testing.T) {
	os.Setenv("CLAUDE_HOOK_LOG_LEVEL", "warn")
	defer os.Unsetenv("CLAUDE_HOOK_LOG_LEVEL")

	path := filepath.Join(t.TempDir(), "debug.ndjson")
	logger, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer logger.Close()

	logger.Info("should be suppressed", nil)
	logger.Error("should appear", nil)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line under warn gating, got %d: %q", len(lines), data)
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var logger *Logger
	logger.Info("no-op", nil) // must not panic
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nil logger should be a no-op, got %v", err)
	}
}
