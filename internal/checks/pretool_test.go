package checks

import (
	"testing"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/state"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func TestConfidenceTierGate_DeniesProductionPathBelowThreshold(t *testing.T) {
	s := state.New(t.TempDir())
	s.Confidence = 30

	ctx := &Ctx{
		Scratch:   &Scratch{State: s, Now: time.Now()},
		Event:     types.EventPreToolUse,
		ToolName:  "Write",
		ToolInput: map[string]any{"file_path": "/srv/app/deploy/release.yaml", "content": "x"},
	}

	res := confidenceTierGate(ctx)
	if res.Decision != Deny {
		t.Fatalf("expected a deny for a deploy/ path below the production threshold, got %+v", res)
	}
}

func TestConfidenceTierGate_DoesNotFalsePositiveOnSimilarNonMatchingPath(t *testing.T) {
	s := state.New(t.TempDir())
	s.Confidence = 30

	ctx := &Ctx{
		Scratch:   &Scratch{State: s, Now: time.Now()},
		Event:     types.EventPreToolUse,
		ToolName:  "Write",
		ToolInput: map[string]any{"file_path": "/srv/app/deployment-notes.md", "content": "x"},
	}

	res := confidenceTierGate(ctx)
	if res.Decision == Deny {
		t.Fatalf("a deployment-notes.md sibling should not match the **/deploy/** glob, got %+v", res)
	}
}

func TestConfidenceTierGate_AllowsProductionPathAboveThreshold(t *testing.T) {
	s := state.New(t.TempDir())
	s.Confidence = 80

	ctx := &Ctx{
		Scratch:   &Scratch{State: s, Now: time.Now()},
		Event:     types.EventPreToolUse,
		ToolName:  "Write",
		ToolInput: map[string]any{"file_path": "/srv/app/deploy/release.yaml", "content": "x"},
	}

	res := confidenceTierGate(ctx)
	if res.Decision == Deny {
		t.Fatalf("expected no deny once confidence clears the production threshold, got %+v", res)
	}
}
