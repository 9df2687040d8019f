package checks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antigravity-dev/hookrunner/internal/state"
)

func TestLastAssistantText_ReturnsTheMostRecentAssistantMessage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.jsonl")
	lines := `{"role":"user","content":"fix the bug"}
{"role":"assistant","content":"I'm sorry, my mistake"}
{"role":"user","content":"try again"}
{"role":"assistant","content":[{"type":"text","text":"Definitely fixed now"}]}
`
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	got := LastAssistantText(path)
	if got != "Definitely fixed now" {
		t.Errorf("expected the last assistant message's flattened text, got %q", got)
	}
}

func TestLastAssistantText_MissingFileReturnsEmptyString(t *testing.T) {
	got := LastAssistantText(filepath.Join(t.TempDir(), "nope.jsonl"))
	if got != "" {
		t.Errorf("expected an empty string for a missing transcript, got %q", got)
	}
}

func TestLastAssistantText_EmptyPathReturnsEmptyString(t *testing.T) {
	if got := LastAssistantText(""); got != "" {
		t.Errorf("expected an empty string for an empty path, got %q", got)
	}
}

func TestResponseLanguageScanner_FiresReducersFromTranscriptText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.jsonl")
	lines := `{"role":"assistant","content":"I apologize, this will definitely work and I give up trying anything else"}
`
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	s := state.New("/tmp/proj")
	ctx := newPostToolCtx(s)
	ctx.TranscriptPath = path

	responseLanguageScanner(ctx)
	if s.ReducerTriggers["apologetic_language"] != 1 {
		t.Errorf("expected apologetic_language to fire, got %v", s.ReducerTriggers)
	}
	if s.ReducerTriggers["overconfident_completion"] != 1 {
		t.Errorf("expected overconfident_completion to fire, got %v", s.ReducerTriggers)
	}
	if s.ReducerTriggers["deadend_response"] != 1 {
		t.Errorf("expected deadend_response to fire, got %v", s.ReducerTriggers)
	}
}
