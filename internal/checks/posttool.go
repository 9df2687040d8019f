package checks

import (
	"strings"

	"github.com/antigravity-dev/hookrunner/internal/detect"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventPostToolUse, "workflow_tracking", "", 60, workflowTracking)
	Register(types.EventPostToolUse, "stuck_loop_detector", "Bash", 55, stuckLoopDetector)
	Register(types.EventPostToolUse, "memory_consult_increaser", "Read", 65, memoryConsultIncreaser)
	Register(types.EventPostToolUse, "security_scanner_advisory", "", 70, securityScannerAdvisory)
}

// workflowTracking appends this tool call's effect to the activity
// ledgers (spec §4.4 expansion, p=60, grounded on
// original_source/hooks/_hooks_tracking.py and
// _hooks_workflow_tracking.py).
func workflowTracking(ctx *Ctx) Result {
	path, hasPath := filePath(ctx.ToolInput)
	switch ctx.ToolName {
	case "Read":
		if hasPath {
			ctx.State.TrackFileRead(path)
		}
	case "Edit", "NotebookEdit":
		if hasPath {
			wasCreation := isCreation(ctx.State, path)
			if wasCreation {
				ctx.State.TrackFileCreate(path)
			} else {
				ctx.State.TrackFileEdit(path)
			}
			trackSignatureChange(ctx, path)
		}
	case "Write":
		if hasPath {
			if isCreation(ctx.State, path) {
				ctx.State.TrackFileCreate(path)
			} else {
				ctx.State.TrackFileEdit(path)
			}
		}
	case "Bash":
		if cmd, ok := bashCommand(ctx.ToolInput); ok {
			recordBashOutcome(ctx, cmd)
		}
	case "Grep", "Glob":
		satisfyPendingIntegrationGreps(ctx)
	}
	return noOpinion()
}

func recordBashOutcome(ctx *Ctx, cmd string) {
	if ctx.ToolError != "" {
		ctx.State.CommandsFailed = append(ctx.State.CommandsFailed, cmdEntry(cmd, ctx.Now))
		ctx.State.ConsecutiveFailures++
	} else {
		ctx.State.CommandsSucceeded = append(ctx.State.CommandsSucceeded, cmdEntry(cmd, ctx.Now))
		ctx.State.ConsecutiveFailures = 0
	}
}

// trackSignatureChange records a pending integration grep when an Edit
// changed an exported Go function's signature (spec §4.4
// integration_gate: "if the last edit changed a function signature").
// A full before/after AST diff needs the pre-edit file content, which
// this tool does not retain; as a conservative proxy, any edit whose
// new_string defines an exported function queues a pending grep for
// it, erring toward over-flagging per the gap_detector's documented
// tolerance for false positives over false negatives.
func trackSignatureChange(ctx *Ctx, path string) {
	content, ok := writeContent(ctx.ToolInput)
	if !ok {
		return
	}
	for _, sig := range detect.ExportedButUnintegrated(detect.ExtractSignatures(path, content)) {
		ctx.State.PendingIntegrationGreps = append(ctx.State.PendingIntegrationGreps, pendingGrep(sig.Name, path, ctx.TurnNum, ctx.Now))
	}
}

// satisfyPendingIntegrationGreps clears every pending integration grep
// once a project-wide search tool has run (spec §4.4 integration_gate).
func satisfyPendingIntegrationGreps(ctx *Ctx) {
	ctx.State.PendingIntegrationGreps = nil
}

// stuckLoopDetector fires the tool-failure-streak reducer when the same
// command string fails 3+ times in a row; consecutive_failures itself is
// counted by workflow_tracking (spec §4.4 expansion, p=55, grounded on
// original_source/hooks/_hooks_stuck_loop.py).
func stuckLoopDetector(ctx *Ctx) Result {
	if ctx.ToolError == "" {
		return noOpinion()
	}
	cmd, ok := bashCommand(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	count := 0
	for i := len(ctx.State.CommandsFailed) - 1; i >= 0 && count < 3; i-- {
		if ctx.State.CommandsFailed[i].Command != cmd {
			break
		}
		count++
	}
	if count+1 < 3 {
		return noOpinion()
	}
	fired, err := ctx.Engine.FireReducer(ctx.State, ctx.Turn, "tool_failure_streak", cmd, ctx.TurnNum, ctx.Now)
	if err != nil || !fired {
		return noOpinion()
	}
	return allow("stuck_loop_detector: the same command has failed 3+ times in a row")
}

// memoryConsultIncreaser fires the memory_consult increaser when a
// Read touches the project's lessons/skills directory (spec §4.4
// expansion, p=65, grounded on original_source/hooks/_hooks_memory.py).
func memoryConsultIncreaser(ctx *Ctx) Result {
	path, ok := filePath(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	if !strings.Contains(path, "/.claude/memory/") {
		return noOpinion()
	}
	ctx.Engine.FireIncreaser(ctx.State, ctx.Turn, "memory_consult", ctx.TurnNum, ctx.Now)
	return noOpinion()
}

// securityScannerAdvisory is the opaque semantic-analysis interface
// kept per spec's suspension-point rules but never performing real
// analysis, since semantic code analysis is an explicit Non-goal
// (spec §4.4 expansion, p=70, grounded on
// original_source/hooks/_security_scanner.py — the model-loading
// interface is preserved, its body stubbed to "unknown").
func securityScannerAdvisory(ctx *Ctx) Result {
	if ctx.ToolName != "Write" && ctx.ToolName != "Edit" {
		return noOpinion()
	}
	// "unknown" result: the scanner is never loaded in this
	// implementation, so it never blocks or annotates.
	return noOpinion()
}
