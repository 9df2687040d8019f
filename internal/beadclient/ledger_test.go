package beadclient

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLedger_ClaimAndRelease(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger(filepath.Join(dir, "agent_assignments.jsonl"))
	now := time.Unix(1700000000, 0)

	a, err := l.Claim("bd-1", "session-a", "", "fix the bug", nil, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if a.AssignmentID == "" {
		t.Error("expected non-empty assignment id")
	}

	open, err := l.Open("session-a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(open) != 1 || open[0].BeadID != "bd-1" {
		t.Fatalf("expected one open assignment, got %+v", open)
	}

	if err := l.Release("bd-1", "session-a", ReleaseCompleted, now.Add(time.Minute)); err != nil {
		t.Fatalf("Release: %v", err)
	}

	open, err = l.Open("session-a")
	if err != nil {
		t.Fatalf("Open after release: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open assignments after release, got %+v", open)
	}
}

func TestLedger_RejectsDoubleClaim(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger(filepath.Join(dir, "agent_assignments.jsonl"))
	now := time.Unix(1700000000, 0)

	if _, err := l.Claim("bd-1", "session-a", "", "", nil, now); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := l.Claim("bd-1", "session-a", "", "", nil, now); err == nil {
		t.Fatal("expected error claiming an already-claimed bead for the same session")
	}
}

func TestLedger_ReleaseWithoutClaimFails(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger(filepath.Join(dir, "agent_assignments.jsonl"))
	if err := l.Release("bd-404", "session-a", ReleaseAbandoned, time.Unix(1700000000, 0)); err == nil {
		t.Fatal("expected error releasing a bead never claimed")
	}
}
