package runner

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/state"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func mustDecision(t *testing.T, out []byte) types.Decision {
	t.Helper()
	var d types.Decision
	if err := json.Unmarshal(out, &d); err != nil {
		t.Fatalf("decode decision %q: %v", out, err)
	}
	return d
}

func TestHandle_PreToolUse_BenignToolApproves(t *testing.T) {
	root := t.TempDir()
	r := New(root, root)

	event := map[string]any{
		"session_id":      "sess-1",
		"transcript_path":  filepath.Join(root, "transcript.jsonl"),
		"hook_event_name": "PreToolUse",
		"tool_name":       "Read",
		"tool_input":      map[string]any{"file_path": filepath.Join(root, "main.go")},
	}
	raw, _ := json.Marshal(event)

	out := r.Handle(raw, time.Now())
	d := mustDecision(t, out)
	if d.Decision != "approve" {
		t.Fatalf("expected approve, got %+v", d)
	}
}

func TestHandle_PreToolUse_RecursionGuardDenies(t *testing.T) {
	root := t.TempDir()
	r := New(root, root)

	event := map[string]any{
		"session_id":      "sess-1",
		"hook_event_name": "PreToolUse",
		"tool_name":       "Write",
		"tool_input":      map[string]any{"file_path": root + "/.claude/.claude/nested.json", "content": "x"},
	}
	raw, _ := json.Marshal(event)

	out := r.Handle(raw, time.Now())
	d := mustDecision(t, out)
	if d.Decision != "deny" {
		t.Fatalf("expected deny, got %+v", d)
	}
	if d.Reason == "" {
		t.Error("expected a reason on deny")
	}
}

func TestHandle_PostToolUse_NeverCarriesADecisionKey(t *testing.T) {
	root := t.TempDir()
	r := New(root, root)

	event := map[string]any{
		"session_id":      "sess-1",
		"hook_event_name": "PostToolUse",
		"tool_name":       "Read",
		"tool_input":      map[string]any{"file_path": filepath.Join(root, "a.go")},
	}
	raw, _ := json.Marshal(event)

	out := r.Handle(raw, time.Now())

	var generic map[string]any
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, has := generic["decision"]; has {
		t.Errorf("post-tool-use decision must never carry a decision key: %s", out)
	}
}

func TestHandle_TurnCountPersistsAcrossInvocations(t *testing.T) {
	root := t.TempDir()
	r := New(root, root)

	event := map[string]any{
		"session_id":      "sess-1",
		"hook_event_name": "UserPromptSubmit",
		"prompt":          "let's get started on the thing",
	}
	raw, _ := json.Marshal(event)

	now := time.Now()
	r.Handle(raw, now)
	r.Handle(raw, now)

	store := state.NewStore()
	s, err := store.Load(root)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if s.TurnCount != 2 {
		t.Fatalf("expected turn_count 2 after two invocations, got %d", s.TurnCount)
	}
}

func TestHandle_SessionStart_NeverCarriesADecisionKey(t *testing.T) {
	root := t.TempDir()
	r := New(root, root)

	event := map[string]any{
		"session_id":      "sess-1",
		"hook_event_name": "SessionStart",
	}
	raw, _ := json.Marshal(event)

	out := r.Handle(raw, time.Now())

	var generic map[string]any
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, has := generic["decision"]; has {
		t.Errorf("session-start decision must never carry a decision key: %s", out)
	}
}

func TestHandle_RockBottomRealignment_DeniesThenAcceptsMarker(t *testing.T) {
	root := t.TempDir()
	r := New(root, root)

	// Drive confidence to rock bottom directly via the state file so
	// the test doesn't need dozens of reducer-firing turns.
	store := state.NewStore()
	s, err := store.Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Confidence = 5
	s.RealignmentPending = true
	if err := store.Save(root, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	event := map[string]any{
		"session_id":      "sess-1",
		"hook_event_name": "UserPromptSubmit",
		"prompt":          "let's keep going",
	}
	raw, _ := json.Marshal(event)

	out := r.Handle(raw, time.Now())
	d := mustDecision(t, out)
	if d.Decision != "deny" {
		t.Fatalf("expected rock-bottom realignment to deny, got %+v", d)
	}

	markerEvent := map[string]any{
		"session_id":      "sess-1",
		"hook_event_name": "UserPromptSubmit",
		"prompt":          "REALIGNED: goal is X, evidence is Y, next step is Z, nothing would change it",
	}
	raw2, _ := json.Marshal(markerEvent)

	out2 := r.Handle(raw2, time.Now())
	d2 := mustDecision(t, out2)
	if d2.Decision != "approve" {
		t.Fatalf("expected realignment marker to clear the block, got %+v", d2)
	}
}
