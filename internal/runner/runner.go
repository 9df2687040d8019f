// Package runner implements the Composite Runner (C5): the per-event
// entry point that wires the State Store, Confidence Engine, Check
// Registry, Cooldown Store, Bead Client, and Project Context together
// under the project lock and produces the decision JSON the host reads
// back on stdout (spec §4.5, §5). Grounded on pkg/hooks/runner.go's
// Fire-then-aggregate shape, generalized from a long-lived in-process
// dispatcher to a one-shot per-invocation process.
package runner

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/beadclient"
	"github.com/antigravity-dev/hookrunner/internal/checks"
	"github.com/antigravity-dev/hookrunner/internal/confidence"
	"github.com/antigravity-dev/hookrunner/internal/cooldown"
	"github.com/antigravity-dev/hookrunner/internal/diagnostics"
	"github.com/antigravity-dev/hookrunner/internal/hookconfig"
	"github.com/antigravity-dev/hookrunner/internal/project"
	"github.com/antigravity-dev/hookrunner/internal/state"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

// Runner ties one project's collaborators to repeated event handling.
// A fresh Runner is cheap to build; the host process that embeds it
// typically builds exactly one per invocation (see cmd/hookrunner).
type Runner struct {
	ProjectRoot   string
	FrameworkRoot string
	BeadBinary    string
}

// New resolves a Runner rooted at projectRoot. frameworkRoot governs
// where hook_settings.json is read from (spec §6); callers that don't
// distinguish a separate framework installation may pass projectRoot
// for both.
func New(projectRoot, frameworkRoot string) *Runner {
	if frameworkRoot == "" {
		frameworkRoot = projectRoot
	}
	return &Runner{ProjectRoot: projectRoot, FrameworkRoot: frameworkRoot, BeadBinary: "bd"}
}

func (r *Runner) configPath() string {
	return filepath.Join(r.FrameworkRoot, "config", "hook_settings.json")
}

func (r *Runner) logPath() string {
	return filepath.Join(r.ProjectRoot, ".claude", "state", "runner.log")
}

// Handle decodes raw as one hook event, processes it end to end, and
// returns the decision JSON the host expects on stdout (spec §4.5).
// Handle never returns an error the host must act on: every internal
// failure degrades to "no opinion" plus a log line, because a hook
// process that exits non-zero is treated as a bug by the host (spec
// §6: "Exit code is always 0").
func (r *Runner) Handle(raw []byte, now time.Time) []byte {
	logger, logErr := diagnostics.Open(r.logPath())
	if logErr == nil {
		defer logger.Close()
	}

	var base types.BaseEvent
	if err := json.Unmarshal(raw, &base); err != nil {
		logger.Error("decode base event failed", map[string]any{"error": err.Error()})
		return encodeDecision(types.Decision{})
	}

	store := state.NewStore()
	release, lockErr := store.Lock(r.ProjectRoot)
	degraded := lockErr != nil
	if !degraded {
		defer release()
	} else {
		logger.Warn("project lock unavailable, proceeding in degraded mode", map[string]any{"error": lockErr.Error()})
	}

	s, loadErr := store.Load(r.ProjectRoot)
	if loadErr != nil {
		logger.Error("state load failed, falling back to zero-state", map[string]any{"error": loadErr.Error()})
		s = state.New(r.ProjectRoot)
		s.RecordEvidence("state_load_error", loadErr.Error(), s.TurnCount, now)
	}

	s.SessionID = base.SessionID
	if base.HookEventName == types.EventSessionStart {
		s.ResetFailures()
	}
	s.TurnCount++
	turnNum := s.TurnCount

	cds := cooldown.NewStore(r.ProjectRoot)
	engine := confidence.NewEngine(cds)
	turn := &confidence.Turn{}
	proj := project.New(r.ProjectRoot)
	cfg := hookconfig.New(r.configPath())
	beads := beadclient.New(r.BeadBinary, r.ProjectRoot)
	ledger := beadclient.NewLedger(proj.AssignmentsFile())

	sc := &checks.Scratch{
		State:     s,
		Engine:    engine,
		Turn:      turn,
		Cooldowns: cds,
		Beads:     beads,
		Ledger:    ledger,
		Project:   proj,
		Config:    cfg,
		Logger:    logger,
		SessionID: base.SessionID,
		TurnNum:   turnNum,
		Now:       now,
	}

	cctx := &checks.Ctx{
		Scratch:        sc,
		Event:          base.HookEventName,
		TranscriptPath: base.TranscriptPath,
	}

	if err := populateEventFields(cctx, base.HookEventName, raw); err != nil {
		logger.Error("decode event payload failed", map[string]any{"error": err.Error()})
		return encodeDecision(types.Decision{})
	}

	if base.HookEventName == types.EventUserPromptSubmit {
		applyDispute(engine, s, cctx.Prompt, turnNum, now)
	}

	aggregate, fired := checks.Dispatch(cctx, hookconfig.CheckDisabled)

	recordCascadeAndHookBlock(engine, s, turn, fired, turnNum, now)

	engine.AccrueDebt(s)
	engine.FinalizeTurn(s, turn, turnNum, now)

	if !degraded {
		if err := store.Save(r.ProjectRoot, s); err != nil {
			logger.Error("state save failed", map[string]any{"error": err.Error()})
		}
	}

	return encodeDecision(toWireDecision(base.HookEventName, aggregate))
}

// applyDispute restores a reducer's delta when the prompt opens with
// FP:<name> or /dispute <name> (spec §4.2 Disputes).
func applyDispute(engine *confidence.Engine, s *state.State, prompt string, turnNum int, now time.Time) {
	name, ok := confidence.ParseDispute(prompt)
	if !ok {
		return
	}
	engine.ApplyDispute(s, name, turnNum, now)
}

// recordCascadeAndHookBlock fires hook_block on every deny/block (any
// check denying is itself the signal, spec §4.2) and cascade_block when
// the same check denies on two consecutive turns. These two reducers
// are runner-level because they depend on aggregate/cross-turn
// information checks.Dispatch callers alone observe.
func recordCascadeAndHookBlock(engine *confidence.Engine, s *state.State, turn *confidence.Turn, fired []checks.Fired, turnNum int, now time.Time) {
	denyingName := ""
	for _, f := range fired {
		if f.Result.Decision == checks.Deny || f.Result.Decision == checks.Block {
			denyingName = f.Name
			break
		}
	}

	if denyingName == "" {
		for name := range s.ConsecutiveBlocks {
			s.ConsecutiveBlocks[name] = 0
		}
		return
	}

	engine.FireReducer(s, turn, "hook_block", denyingName, turnNum, now)

	count := s.ConsecutiveBlocks[denyingName] + 1
	for name := range s.ConsecutiveBlocks {
		if name != denyingName {
			s.ConsecutiveBlocks[name] = 0
		}
	}
	s.ConsecutiveBlocks[denyingName] = count

	if count >= 2 {
		engine.FireReducer(s, turn, "cascade_block", denyingName, turnNum, now)
	}
}

// populateEventFields decodes the event-specific payload fields onto
// cctx, dispatching on event (spec §6).
func populateEventFields(cctx *checks.Ctx, event types.HookEvent, raw []byte) error {
	switch event {
	case types.EventPreToolUse:
		var ev types.PreToolUseEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("runner: decode PreToolUse: %w", err)
		}
		cctx.ToolName = ev.ToolName
		var input map[string]any
		_ = json.Unmarshal(ev.ToolInput, &input)
		cctx.ToolInput = input
	case types.EventPostToolUse:
		var ev types.PostToolUseEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("runner: decode PostToolUse: %w", err)
		}
		cctx.ToolName = ev.ToolName
		var input map[string]any
		_ = json.Unmarshal(ev.ToolInput, &input)
		cctx.ToolInput = input
		cctx.ToolOutput = ev.ToolOutput
		cctx.ToolError = ev.ToolError
	case types.EventUserPromptSubmit:
		var ev types.UserPromptSubmitEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("runner: decode UserPromptSubmit: %w", err)
		}
		cctx.Prompt = ev.Prompt
	case types.EventStop:
		var ev types.StopEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("runner: decode Stop: %w", err)
		}
		cctx.StopHookActive = ev.StopHookActive
	case types.EventSubagentStop:
		var ev types.SubagentStopEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("runner: decode SubagentStop: %w", err)
		}
		cctx.StopHookActive = ev.StopHookActive
	case types.EventNotification:
		var ev types.NotificationEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("runner: decode Notification: %w", err)
		}
		cctx.NotificationType = ev.NotificationType
		cctx.Message = ev.Message
	case types.EventSessionStart, types.EventSessionEnd:
		// BaseEvent alone; nothing event-specific to decode.
	}
	return nil
}

// toWireDecision renders a check Result into the exact key subset the
// host expects for event (spec §4.5): PreToolUse/UserPromptSubmit get
// decision+reason+context; PostToolUse gets context only; Stop/
// SubagentStop get a block decision or nothing; everything else emits
// no opinion.
func toWireDecision(event types.HookEvent, res checks.Result) types.Decision {
	switch event {
	case types.EventPreToolUse, types.EventUserPromptSubmit:
		if res.Decision == checks.Deny {
			return types.Decision{Decision: "deny", Reason: res.Reason, Context: res.Context}
		}
		return types.Decision{Decision: "approve", Context: res.Context}
	case types.EventPostToolUse:
		return types.Decision{Context: res.Context}
	case types.EventStop, types.EventSubagentStop:
		if res.Decision == checks.Block {
			return types.Decision{Decision: "block", Reason: res.Reason}
		}
		return types.Decision{}
	case types.EventSessionStart, types.EventSessionEnd, types.EventNotification:
		// Not gating events: spec.md defines no decision/reason schema
		// for them, so they behave like PostToolUse — context-only,
		// never a decision or reason key (Open Question resolution).
		return types.Decision{Context: res.Context}
	default:
		return types.Decision{}
	}
}

func encodeDecision(d types.Decision) []byte {
	out, err := json.Marshal(d)
	if err != nil {
		return []byte("{}")
	}
	return out
}
