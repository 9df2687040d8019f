package checks

import (
	"os"
	"testing"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/confidence"
	"github.com/antigravity-dev/hookrunner/internal/cooldown"
	"github.com/antigravity-dev/hookrunner/internal/state"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

// testCooldownRoot returns a fresh on-disk root for a cooldown.Store so
// tests never write into the source tree's working directory.
func testCooldownRoot() string {
	dir, err := os.MkdirTemp("", "hookrunner-checks-test-")
	if err != nil {
		panic(err)
	}
	return dir
}

func newPostToolCtx(s *state.State) *Ctx {
	return &Ctx{
		Scratch: &Scratch{
			State:  s,
			Engine: confidence.NewEngine(cooldown.NewStore(testCooldownRoot())),
			Turn:   &confidence.Turn{},
			Now:    time.Now(),
		},
		Event: types.EventPostToolUse,
	}
}

func TestWorkflowTracking_TracksANewFileAsCreation(t *testing.T) {
	s := state.New("/tmp/proj")
	ctx := newPostToolCtx(s)
	ctx.ToolName = "Write"
	ctx.ToolInput = map[string]any{"file_path": "new.go", "content": "package main"}

	workflowTracking(ctx)
	if len(s.FilesCreated) != 1 || s.FilesCreated[0] != "new.go" {
		t.Errorf("expected new.go tracked as a creation, got %v", s.FilesCreated)
	}
	if len(s.FilesEdited) != 0 {
		t.Errorf("a first write should count as a creation, not an edit, got %v", s.FilesEdited)
	}
}

func TestWorkflowTracking_TracksASecondWriteAsAnEdit(t *testing.T) {
	s := state.New("/tmp/proj")
	s.TrackFileCreate("existing.go")
	ctx := newPostToolCtx(s)
	ctx.ToolName = "Write"
	ctx.ToolInput = map[string]any{"file_path": "existing.go", "content": "package main"}

	workflowTracking(ctx)
	if s.EditCounts["existing.go"] != 1 {
		t.Errorf("expected a write to an already-created file to count as an edit, got %v", s.EditCounts)
	}
}

func TestWorkflowTracking_RecordsBashSuccessAndFailure(t *testing.T) {
	s := state.New("/tmp/proj")
	ctx := newPostToolCtx(s)
	ctx.ToolName = "Bash"
	ctx.ToolInput = map[string]any{"command": "go test ./..."}
	ctx.ToolError = "exit status 1"

	workflowTracking(ctx)
	if len(s.CommandsFailed) != 1 || s.ConsecutiveFailures != 1 {
		t.Errorf("expected a failed bash command tracked, got failed=%v consecutive=%d", s.CommandsFailed, s.ConsecutiveFailures)
	}

	ctx2 := newPostToolCtx(s)
	ctx2.ToolName = "Bash"
	ctx2.ToolInput = map[string]any{"command": "go test ./..."}
	workflowTracking(ctx2)
	if s.ConsecutiveFailures != 0 {
		t.Errorf("expected a subsequent success to reset ConsecutiveFailures, got %d", s.ConsecutiveFailures)
	}
}

func TestStuckLoopDetector_FiresAfterThreeConsecutiveIdenticalFailures(t *testing.T) {
	s := state.New("/tmp/proj")
	cmd := "go build ./..."
	for i := 0; i < 2; i++ {
		s.CommandsFailed = append(s.CommandsFailed, state.CommandEntry{Command: cmd, Timestamp: time.Now()})
	}

	ctx := newPostToolCtx(s)
	ctx.ToolName = "Bash"
	ctx.ToolInput = map[string]any{"command": cmd}
	ctx.ToolError = "exit status 2"

	res := stuckLoopDetector(ctx)
	if res.Context == "" {
		t.Fatal("expected a stuck-loop warning once the same command has failed 3 times in a row")
	}
}

func TestStuckLoopDetector_SilentBelowThreeFailures(t *testing.T) {
	s := state.New("/tmp/proj")
	ctx := newPostToolCtx(s)
	ctx.ToolName = "Bash"
	ctx.ToolInput = map[string]any{"command": "go build ./..."}
	ctx.ToolError = "exit status 2"

	res := stuckLoopDetector(ctx)
	if res.Context != "" {
		t.Fatalf("expected no warning on the first failure, got %+v", res)
	}
}

func TestMemoryConsultIncreaser_FiresOnlyForMemoryDirectoryReads(t *testing.T) {
	s := state.New("/tmp/proj")
	ctx := newPostToolCtx(s)
	ctx.ToolName = "Read"
	ctx.ToolInput = map[string]any{"file_path": "/home/user/.claude/memory/lessons.md"}

	memoryConsultIncreaser(ctx)
	if s.IncreaserTriggers["memory_consult"] != 1 {
		t.Errorf("expected memory_consult to fire for a memory-dir read, got %v", s.IncreaserTriggers)
	}

	s2 := state.New("/tmp/proj")
	ctx2 := newPostToolCtx(s2)
	ctx2.ToolName = "Read"
	ctx2.ToolInput = map[string]any{"file_path": "/home/user/project/main.go"}
	memoryConsultIncreaser(ctx2)
	if s2.IncreaserTriggers["memory_consult"] != 0 {
		t.Errorf("expected no memory_consult firing for an unrelated read, got %v", s2.IncreaserTriggers)
	}
}

func TestSecurityScannerAdvisory_NeverBlocks(t *testing.T) {
	s := state.New("/tmp/proj")
	ctx := newPostToolCtx(s)
	ctx.ToolName = "Write"
	ctx.ToolInput = map[string]any{"file_path": "x.go", "content": "package main"}

	res := securityScannerAdvisory(ctx)
	if res.Decision == Deny {
		t.Fatal("the stubbed scanner interface must never deny")
	}
}
