package checks

import (
	"strings"

	"github.com/antigravity-dev/hookrunner/internal/detect"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventPostToolUse, "file_naming_reducers", "Write", 58, fileNamingReducers)
	Register(types.EventPostToolUse, "large_diff_reducer", "", 59, largeDiffReducer)
	Register(types.EventPostToolUse, "sunk_cost_reducer", "Edit", 61, sunkCostReducer)
	Register(types.EventPostToolUse, "edit_oscillation_reducer", "Edit", 62, editOscillationReducer)
	Register(types.EventUserPromptSubmit, "user_correction_reducer", "", 2, userCorrectionReducer)
	Register(types.EventStop, "response_language_scanner", "", 45, responseLanguageScanner)
}

// sunkCostThreshold is spec §4.2's "same file edited ≥ N times with no
// test run in between" — N is left unspecified; 5 matches the severity
// implied by the reducer's -5 delta relative to its siblings.
const sunkCostThreshold = 5

// largeDiffThreshold is the byte-length of new_string/content above
// which a single write counts as a "large diff" (spec §4.2); chosen to
// roughly correspond to a few hundred lines of typical source text.
const largeDiffThreshold = 12000

// fileNamingReducers fires backup_file_creation and
// version_suffixed_filename on Write calls whose target path matches
// either pattern (spec §4.2).
func fileNamingReducers(ctx *Ctx) Result {
	path, ok := filePath(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	if detect.IsBackupFile(path) {
		ctx.Engine.FireReducer(ctx.State, ctx.Turn, "backup_file_creation", path, ctx.TurnNum, ctx.Now)
	}
	if detect.IsVersionSuffixedFilename(path) {
		ctx.Engine.FireReducer(ctx.State, ctx.Turn, "version_suffixed_filename", path, ctx.TurnNum, ctx.Now)
	}
	if isStandaloneMarkdown(path) {
		ctx.Engine.FireReducer(ctx.State, ctx.Turn, "standalone_markdown_file", path, ctx.TurnNum, ctx.Now)
	}
	return noOpinion()
}

func isStandaloneMarkdown(path string) bool {
	if !strings.HasSuffix(path, ".md") {
		return false
	}
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	switch base {
	case "README.md", "CLAUDE.md", "CHANGELOG.md", "DESIGN.md":
		return false
	default:
		return true
	}
}

// largeDiffReducer fires when a single Write/Edit introduces more than
// largeDiffThreshold bytes of new content (spec §4.2).
func largeDiffReducer(ctx *Ctx) Result {
	if !isEditLikeTool(ctx.ToolName) {
		return noOpinion()
	}
	content, ok := writeContent(ctx.ToolInput)
	if !ok || len(content) <= largeDiffThreshold {
		return noOpinion()
	}
	path, _ := filePath(ctx.ToolInput)
	ctx.Engine.FireReducer(ctx.State, ctx.Turn, "large_diff", path, ctx.TurnNum, ctx.Now)
	return noOpinion()
}

// sunkCostReducer fires when a file has been edited sunkCostThreshold+
// times this session without an intervening test command (spec §4.2:
// "no test run in between"). A "test run" is approximated as any
// succeeded bash command whose string contains "test".
func sunkCostReducer(ctx *Ctx) Result {
	path, ok := filePath(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	if ctx.State.EditCounts[path] < sunkCostThreshold {
		return noOpinion()
	}
	if hasRecentTestRun(ctx) {
		return noOpinion()
	}
	ctx.Engine.FireReducer(ctx.State, ctx.Turn, "sunk_cost", path, ctx.TurnNum, ctx.Now)
	return noOpinion()
}

func hasRecentTestRun(ctx *Ctx) bool {
	for i := len(ctx.State.CommandsSucceeded) - 1; i >= 0 && i >= len(ctx.State.CommandsSucceeded)-10; i-- {
		if strings.Contains(ctx.State.CommandsSucceeded[i].Command, "test") {
			return true
		}
	}
	return false
}

// editOscillationReducer fires when the same file is edited on two
// consecutive turns with no other file touched in between — a proxy
// for "alternating writes around the same region" that doesn't require
// diffing the actual edited byte ranges (spec §4.2).
func editOscillationReducer(ctx *Ctx) Result {
	path, ok := filePath(ctx.ToolInput)
	if !ok {
		return noOpinion()
	}
	n := len(ctx.State.FilesEdited)
	if n < 2 {
		return noOpinion()
	}
	if ctx.State.FilesEdited[n-1] != path || ctx.State.FilesEdited[n-2] != path {
		return noOpinion()
	}
	ctx.Engine.FireReducer(ctx.State, ctx.Turn, "edit_oscillation", path, ctx.TurnNum, ctx.Now)
	return noOpinion()
}

// userCorrectionReducer fires when the prompt reads as a correction of
// the assistant's prior action (spec §4.2).
var correctionMarkers = []string{
	"that's wrong", "that is wrong", "not what i asked", "no, i meant",
	"no i meant", "i said", "you misunderstood", "that's not right",
	"undo that", "revert that",
}

func userCorrectionReducer(ctx *Ctx) Result {
	lower := strings.ToLower(ctx.Prompt)
	for _, marker := range correctionMarkers {
		if strings.Contains(lower, marker) {
			ctx.Engine.FireReducer(ctx.State, ctx.Turn, "user_correction", "", ctx.TurnNum, ctx.Now)
			return noOpinion()
		}
	}
	return noOpinion()
}

// responseLanguageScanner fires apologetic_language,
// overconfident_completion, and deadend_response off the transcript's
// last assistant message (spec §4.2; none of these signals are visible
// in the tool_input/tool_output envelope, so this reads transcript_path
// directly).
var apologeticMarkers = []string{"i apologize", "i'm sorry", "sorry for the confusion", "my mistake"}
var overconfidentMarkers = []string{"definitely fixed", "this will definitely work", "guaranteed to work", "100% fixed"}
var deadendMarkers = []string{"i'm not able to", "i give up", "this isn't working and i don't know why", "let's move on to something else"}

func responseLanguageScanner(ctx *Ctx) Result {
	text := strings.ToLower(LastAssistantText(ctx.TranscriptPath))
	if text == "" {
		return noOpinion()
	}
	for _, m := range apologeticMarkers {
		if strings.Contains(text, m) {
			ctx.Engine.FireReducer(ctx.State, ctx.Turn, "apologetic_language", "", ctx.TurnNum, ctx.Now)
			break
		}
	}
	for _, m := range overconfidentMarkers {
		if strings.Contains(text, m) {
			ctx.Engine.FireReducer(ctx.State, ctx.Turn, "overconfident_completion", "", ctx.TurnNum, ctx.Now)
			break
		}
	}
	for _, m := range deadendMarkers {
		if strings.Contains(text, m) {
			ctx.Engine.FireReducer(ctx.State, ctx.Turn, "deadend_response", "", ctx.TurnNum, ctx.Now)
			break
		}
	}
	return noOpinion()
}
