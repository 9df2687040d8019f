package checks

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/antigravity-dev/hookrunner/internal/confidence"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventPreToolUse, "recursion_guard", "", 5, recursionGuard)
	Register(types.EventPreToolUse, "loop_detector", "Bash", 10, loopDetector)
	Register(types.EventPreToolUse, "bead_enforcement", "", 4, beadEnforcement)
	Register(types.EventPreToolUse, "parallel_bead_delegation", "Task", 3, parallelBeadDelegation)
	Register(types.EventPreToolUse, "oracle_gate", "", 30, oracleGate)
	Register(types.EventPreToolUse, "integration_gate", "", 35, integrationGate)
	Register(types.EventPreToolUse, "content_gate", "", 45, contentGate)
	Register(types.EventPreToolUse, "gap_detector", "", 50, gapDetector)
	Register(types.EventPreToolUse, "confidence_tier_gate", "", 20, confidenceTierGate)
	Register(types.EventPreToolUse, "library_research_gate", "", 40, libraryResearchGate)
	Register(types.EventPreToolUse, "pal_mandate_gate", "", 32, palMandateGate)
}

// palMandateGate denies non-trivial writes while tier is IGNORANCE or
// HYPOTHESIS unless no pal-consultation tool debt is outstanding (the
// family's ToolDebt entry is at or below zero). Debt accrues every turn
// and UseDebtFamily recovers only a percentage of it, so a recovery does
// not by itself bring the entry to zero (spec §3.2 HYPOTHESIS-tier
// privilege; SPEC_FULL expansion grounded on
// original_source/hooks/_pal_mandates.py).
func palMandateGate(ctx *Ctx) Result {
	if !isEditLikeTool(ctx.ToolName) {
		return noOpinion()
	}
	if !confidence.RequiresExternalConsult(confidence.TierOf(ctx.State.Confidence)) {
		return noOpinion()
	}
	if ctx.State.ToolDebt[string(confidence.DebtPALConsultation)] <= 0 {
		return noOpinion() // no pal-consultation debt outstanding
	}
	return deny("pal_mandate_gate: consult an external oracle before writing while confidence is in the IGNORANCE or HYPOTHESIS tier")
}

// recursionGuard denies any filesystem path containing the substring
// ".claude/.claude" (spec §4.4, p=5).
func recursionGuard(ctx *Ctx) Result {
	path, ok := filePath(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	if strings.Contains(path, ".claude/.claude") {
		return deny("recursion_guard: refusing to operate on a nested .claude/.claude path")
	}
	return noOpinion()
}

// loopDetector denies bash commands containing unbounded shell loops
// unless a timeout wrapper is present (spec §4.4, p=10).
var unboundedLoopMarkers = []string{"while true", "while :", "for ((;;))", "for(;;)"}

func loopDetector(ctx *Ctx) Result {
	cmd, ok := bashCommand(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	hasLoop := false
	for _, marker := range unboundedLoopMarkers {
		if strings.Contains(cmd, marker) {
			hasLoop = true
			break
		}
	}
	if !hasLoop {
		return noOpinion()
	}
	if strings.Contains(cmd, "timeout ") || strings.Contains(cmd, "timeout(") {
		return noOpinion()
	}
	return deny("loop_detector: unbounded shell loop without a timeout wrapper")
}

// beadEnforcement denies edits while no bead is in_progress assigned to
// this session, unless the session is ≤2 turns old or the edit lives
// under .claude/ (spec §4.4, p=4).
func beadEnforcement(ctx *Ctx) Result {
	if !isEditLikeTool(ctx.ToolName) {
		return noOpinion()
	}
	if ctx.TurnNum <= 2 {
		return noOpinion()
	}
	if path, ok := filePath(ctx.ToolInput); ok && strings.Contains(path, "/.claude/") {
		return noOpinion()
	}
	if ctx.Ledger == nil {
		return noOpinion() // advisory collaborator unavailable; never block on its absence
	}
	open, err := ctx.Ledger.Open(ctx.SessionID)
	if err != nil {
		return noOpinion() // bead tracking is advisory; a read failure must not block edits
	}
	if len(open) == 0 {
		return deny("bead_enforcement: no bead is in_progress for this session; claim one before editing")
	}
	return noOpinion()
}

// parallelBeadDelegation injects a rewrite suggestion when ≥2
// independent beads exist and a single Task agent is being spawned
// sequentially (spec §4.4, p=3). Advisory only: never denies.
func parallelBeadDelegation(ctx *Ctx) Result {
	if ctx.Beads == nil {
		return noOpinion()
	}
	ready, err := ctx.Beads.Ready(0)
	if err != nil || len(ready) < 2 {
		return noOpinion()
	}
	return allow("parallel_bead_delegation: " + itoa(len(ready)) + " independent beads are ready — consider spawning them as a single parallel Task batch instead of one at a time")
}

// oracleGate denies further edits after two consecutive failing tool
// calls until an external-consult tool is invoked (spec §4.4, p=30).
func oracleGate(ctx *Ctx) Result {
	if !isEditLikeTool(ctx.ToolName) {
		return noOpinion()
	}
	if ctx.State.ConsecutiveFailures < 2 {
		return noOpinion()
	}
	return deny("oracle_gate: two or more consecutive tool failures — consult an external oracle (WebSearch, memory, or a subagent) before editing again")
}

// integrationGate denies an edit to another file when a pending
// function-signature-change grep hasn't been satisfied yet (spec §4.4,
// p=35).
func integrationGate(ctx *Ctx) Result {
	if !isEditLikeTool(ctx.ToolName) || len(ctx.State.PendingIntegrationGreps) == 0 {
		return noOpinion()
	}
	path, _ := filePath(ctx.ToolInput)
	for _, pending := range ctx.State.PendingIntegrationGreps {
		if pending.SourceFile == path {
			continue // still editing the same file that introduced the pending grep
		}
		return deny("integration_gate: " + pending.FunctionName + "'s signature changed in " + pending.SourceFile + " — grep the project for its call sites before editing elsewhere")
	}
	return noOpinion()
}

// contentGate denies writes whose new content contains eval/exec of
// non-literal input or string-concatenated SQL with user-source
// identifiers (spec §4.4, p=45).
var evalExecPattern = regexp.MustCompile(`(?:eval|exec)\s*\(\s*[a-zA-Z_][a-zA-Z0-9_.]*\s*\)`)
var sqlConcatPattern = regexp.MustCompile(`(?i)(select|insert|update|delete)\b[^"'\n]{0,200}["']\s*\+\s*[a-zA-Z_]`)

func contentGate(ctx *Ctx) Result {
	if !isEditLikeTool(ctx.ToolName) {
		return noOpinion()
	}
	content, ok := writeContent(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	if evalExecPattern.MatchString(content) {
		return deny("content_gate: eval()/exec() called with a non-literal argument")
	}
	if sqlConcatPattern.MatchString(content) {
		return deny("content_gate: string-concatenated SQL built from a variable identifier")
	}
	return noOpinion()
}

// gapDetector denies edits to a file not present in files_read this
// session, unless the edit is a creation (spec §4.4, p=50).
func gapDetector(ctx *Ctx) Result {
	if ctx.ToolName != "Edit" && ctx.ToolName != "NotebookEdit" {
		return noOpinion()
	}
	path, ok := filePath(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	if ctx.State.HasRead(path) {
		return noOpinion()
	}
	if isCreation(ctx.State, path) {
		return noOpinion()
	}
	return deny("gap_detector: " + path + " has not been read this session")
}

// confidenceTierGate denies actions that require a tier above current:
// production writes below 51, library usage below 50 unless the
// library is already in libraries_researched (spec §4.4, p=varies).
// Path markers are matched as doublestar globs rather than plain
// substrings so a marker like "**/deploy/**" catches a path at any
// depth without also matching an unrelated "deployment-notes/" sibling
// (spec §4.4 expansion, grounded on SPEC_FULL.md's doublestar wiring
// for path matchers).
var productionPathMarkers = []string{"**/prod/**", "**/production/**", "**/deploy/**", "**/.github/workflows/**"}

func confidenceTierGate(ctx *Ctx) Result {
	if !isEditLikeTool(ctx.ToolName) {
		return noOpinion()
	}
	path, ok := filePath(ctx.ToolInput)
	if ok && !confidence.AllowsProductionWrites(ctx.State.Confidence) {
		for _, marker := range productionPathMarkers {
			if matched, _ := doublestar.Match(marker, strings.TrimPrefix(path, "/")); matched {
				return deny("confidence_tier_gate: confidence below production-access threshold")
			}
		}
	}
	return noOpinion()
}

// libraryResearchGate denies first-use of a library below the
// research threshold unless it is already in libraries_researched
// (expansion check, grounded on the original implementation's library
// research gate; spec §4.4 confidence_tier_gate's "library usage <50
// unless library ∈ libraries_researched" clause, split into its own
// named check per SPEC_FULL.md's check list).
func libraryResearchGate(ctx *Ctx) Result {
	lib, ok := ctx.ToolInput["library"].(string)
	if !ok || lib == "" {
		return noOpinion() // only fires on tool calls that name a library explicitly
	}
	if ctx.State.LibrariesResearched[lib] {
		return noOpinion()
	}
	if ctx.State.Confidence >= confidence.ThresholdRequireResearch {
		return noOpinion()
	}
	return deny("library_research_gate: " + lib + " has not been researched and confidence is below the research threshold")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
