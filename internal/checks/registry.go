// Package checks implements the Check Registry (C3) and Check Library
// (C4): priority-ordered, event-scoped gates and advisors dispatched by
// the composite runner. Grounded on pkg/hooks/runner.go's matcher-list
// dispatch and pkg/hooks/matcher.go's tool-name matching, generalized
// from glob patterns to the case-sensitive extended-regex matcher spec
// §4.3 calls for.
package checks

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/beadclient"
	"github.com/antigravity-dev/hookrunner/internal/confidence"
	"github.com/antigravity-dev/hookrunner/internal/cooldown"
	"github.com/antigravity-dev/hookrunner/internal/diagnostics"
	"github.com/antigravity-dev/hookrunner/internal/hookconfig"
	"github.com/antigravity-dev/hookrunner/internal/project"
	"github.com/antigravity-dev/hookrunner/internal/state"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

// Decision is a check's verdict (spec §4.4).
type Decision int

const (
	Allow Decision = iota
	Deny
	Block // Stop-event only
)

// Result is what a check returns. Context is injected into the
// assistant's next prompt on Allow; Reason is mandatory on Deny/Block.
type Result struct {
	Decision Decision
	Reason   string
	Context  string
}

func allow(context string) Result { return Result{Decision: Allow, Context: context} }
func deny(reason string) Result   { return Result{Decision: Deny, Reason: reason} }
func block(reason string) Result  { return Result{Decision: Block, Reason: reason} }
func noOpinion() Result           { return Result{Decision: Allow} }

// Scratch carries every collaborator a check might need, assembled
// once per invocation by the composite runner (spec §4.5). It is the
// "runner_scratch" argument of a check's signature.
type Scratch struct {
	State     *state.State
	Engine    *confidence.Engine
	Turn      *confidence.Turn
	Cooldowns *cooldown.Store
	Beads     *beadclient.Client
	Ledger    *beadclient.Ledger
	Project   *project.Context
	Config    *hookconfig.Config
	Logger    *diagnostics.Logger

	SessionID string
	TurnNum   int
	Now       time.Time
}

// Ctx is the per-event view a check inspects: the common Scratch plus
// whichever event-specific fields are populated for the current event.
type Ctx struct {
	*Scratch

	Event types.HookEvent

	// TranscriptPath is the BaseEvent field every event carries,
	// exposed here for checks that need the assistant's own words
	// (e.g. response_language_scanner), which no tool_input/tool_output
	// field captures.
	TranscriptPath string

	// PreToolUse / PostToolUse
	ToolName   string
	ToolInput  map[string]any
	ToolOutput json.RawMessage
	ToolError  string

	// UserPromptSubmit
	Prompt string

	// Stop / SubagentStop
	StopHookActive bool

	// Notification
	NotificationType string
	Message          string
}

// Func is the shape every check implements.
type Func func(ctx *Ctx) Result

// entry is one registered check.
type entry struct {
	name     string
	event    types.HookEvent
	matcher  *regexp.Regexp // nil matches any tool name
	priority int
	fn       Func
}

var (
	mu       sync.Mutex
	registry = map[types.HookEvent][]*entry{}
	sorted   = map[types.HookEvent]bool{}
)

// finalized is set by the first dispatch; Register panics once it is set.
var finalized bool

// Register adds a check to the registry for event. toolPattern, when
// non-empty, is compiled as a case-sensitive extended regex matched
// against tool_name (spec §4.3); an empty pattern matches any tool
// (or applies to non-tool events). Lower priority runs first.
//
// Register must be called from package init() functions so that the
// registry is fully populated before the first dispatch stable-sorts
// it (spec §4.3: "After all modules are loaded, the registry is
// stable-sorted").
func Register(event types.HookEvent, name string, toolPattern string, priority int, fn Func) {
	var re *regexp.Regexp
	if toolPattern != "" {
		compiled, err := regexp.Compile(toolPattern)
		if err != nil {
			panic(fmt.Sprintf("checks: invalid tool pattern for %s: %v", name, err))
		}
		re = compiled
	}

	mu.Lock()
	defer mu.Unlock()
	if finalized {
		panic(fmt.Sprintf("checks: %s registered after the first dispatch", name))
	}
	registry[event] = append(registry[event], &entry{
		name: name, event: event, matcher: re, priority: priority, fn: fn,
	})
	sorted[event] = false
}

func ensureSorted(event types.HookEvent) {
	mu.Lock()
	defer mu.Unlock()
	finalized = true
	if sorted[event] {
		return
	}
	list := registry[event]
	sort.SliceStable(list, func(i, j int) bool { return list[i].priority < list[j].priority })
	sorted[event] = true
}

// Fired records one check's outcome for diagnostics/testing.
type Fired struct {
	Name   string
	Result Result
}

// Dispatch runs every enabled, matching check registered for
// ctx.Event in priority order. Gating events (PreToolUse,
// UserPromptSubmit) short-circuit on the first Deny; all other events
// run every check and aggregate every mutation (spec §4.3, §4.4). On
// Stop, the first Block becomes the aggregate verdict once every check
// has run.
func Dispatch(ctx *Ctx, disabled func(name string) bool) (aggregate Result, fired []Fired) {
	ensureSorted(ctx.Event)

	mu.Lock()
	list := append([]*entry(nil), registry[ctx.Event]...)
	mu.Unlock()

	gating := ctx.Event == types.EventPreToolUse || ctx.Event == types.EventUserPromptSubmit

	var contexts []string
	blocked := false
	var blockReason string
	for _, e := range list {
		if disabled != nil && disabled(e.name) {
			continue
		}
		if e.matcher != nil && !e.matcher.MatchString(ctx.ToolName) {
			continue
		}

		res := safeInvoke(e, ctx)
		fired = append(fired, Fired{Name: e.name, Result: res})

		if res.Context != "" {
			contexts = append(contexts, res.Context)
		}

		if gating && res.Decision == Deny {
			return Result{Decision: Deny, Reason: res.Reason, Context: joinContexts(contexts)}, fired
		}
		if ctx.Event == types.EventStop && res.Decision == Block && !blocked {
			blocked = true
			blockReason = res.Reason
		}
	}

	if blocked {
		return Result{Decision: Block, Reason: blockReason, Context: joinContexts(contexts)}, fired
	}
	return Result{Decision: Allow, Context: joinContexts(contexts)}, fired
}

// safeInvoke runs a check's fn with a recover guard: a panicking check
// (nil map write, a failed type assertion on tool_input, an out-of-range
// slice index) must never take down the runner (spec §7: "Check
// internal errors: catch and log; the check yields Allow()"). A panic
// is logged and treated as a no-opinion Allow, same as any other
// internal check error.
func safeInvoke(e *entry, ctx *Ctx) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			if ctx.Logger != nil {
				ctx.Logger.Error("check panicked", map[string]any{
					"check": e.name,
					"event": string(e.event),
					"panic": fmt.Sprintf("%v", r),
				})
			}
			res = noOpinion()
		}
	}()
	return e.fn(ctx)
}

func joinContexts(contexts []string) string {
	if len(contexts) == 0 {
		return ""
	}
	out := contexts[0]
	for _, c := range contexts[1:] {
		out += "\n" + c
	}
	return out
}

// resetForTest clears the registry; used only by _test.go files in
// this package to isolate dispatch-order tests from each other.
func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	registry = map[types.HookEvent][]*entry{}
	sorted = map[types.HookEvent]bool{}
	finalized = false
}
