package checks

import (
	"testing"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/state"
)

func TestFilePath_ExtractsTheFilePathArgument(t *testing.T) {
	path, ok := filePath(map[string]any{"file_path": "a.go"})
	if !ok || path != "a.go" {
		t.Errorf("expected (\"a.go\", true), got (%q, %v)", path, ok)
	}

	if _, ok := filePath(map[string]any{"file_path": ""}); ok {
		t.Error("expected an empty file_path to report ok=false")
	}
	if _, ok := filePath(map[string]any{}); ok {
		t.Error("expected a missing file_path key to report ok=false")
	}
}

func TestWriteContent_PrefersContentThenFallsBackToNewString(t *testing.T) {
	c, ok := writeContent(map[string]any{"content": "a", "new_string": "b"})
	if !ok || c != "a" {
		t.Errorf("expected content to take priority, got (%q, %v)", c, ok)
	}

	c, ok = writeContent(map[string]any{"new_string": "b"})
	if !ok || c != "b" {
		t.Errorf("expected a new_string fallback, got (%q, %v)", c, ok)
	}

	if _, ok := writeContent(map[string]any{}); ok {
		t.Error("expected no content/new_string to report ok=false")
	}
}

func TestIsCreation_TrueOnlyWhenPathIsUntouched(t *testing.T) {
	s := state.New("/tmp/proj")
	if !isCreation(s, "fresh.go") {
		t.Error("expected an untouched path to count as a creation")
	}

	s.TrackFileRead("read.go")
	if isCreation(s, "read.go") {
		t.Error("expected a previously-read path to not count as a creation")
	}
}

func TestTrimToLen_TruncatesWithAnEllipsis(t *testing.T) {
	got := trimToLen("hello world", 5)
	if got != "hello…" {
		t.Errorf("expected a 5-byte prefix plus an ellipsis, got %q", got)
	}
	if got := trimToLen("short", 10); got != "short" {
		t.Errorf("expected no truncation under the limit, got %q", got)
	}
}

func TestCmdEntryAndPendingGrep_CarryTheGivenFields(t *testing.T) {
	now := time.Now()
	ce := cmdEntry("go build", now)
	if ce.Command != "go build" || !ce.Timestamp.Equal(now) {
		t.Errorf("unexpected CommandEntry: %+v", ce)
	}

	pg := pendingGrep("Handle", "runner.go", 3, now)
	if pg.FunctionName != "Handle" || pg.SourceFile != "runner.go" || pg.CreatedTurn != 3 {
		t.Errorf("unexpected PendingIntegrationGrep: %+v", pg)
	}
}
