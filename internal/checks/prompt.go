package checks

import (
	"strings"

	"github.com/antigravity-dev/hookrunner/internal/confidence"
	"github.com/antigravity-dev/hookrunner/internal/detect"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventUserPromptSubmit, "trivial_prompt_filter", "", 0, trivialPromptFilter)
	Register(types.EventUserPromptSubmit, "goal_anchor", "", 1, goalAnchor)
	Register(types.EventUserPromptSubmit, "rock_bottom_realignment", "", 3, rockBottomRealignment)
	Register(types.EventUserPromptSubmit, "deferral_reducer", "", 5, deferralReducer)
	Register(types.EventUserPromptSubmit, "relevant_lessons", "", 6, relevantLessons)
}

// relevantLessons surfaces the titles of memory entries whose tags
// overlap the prompt's text, so the assistant sees what the project's
// external lessons/skills collaborator has already recorded before
// repeating a mistake (spec §2 "the on-disk memory of lessons/skills
// ... is an external collaborator"; this check only reads what it
// wrote). Advisory only: never denies.
func relevantLessons(ctx *Ctx) Result {
	if ctx.Project == nil {
		return noOpinion()
	}
	entries, err := ctx.Project.ListMemoryEntries()
	if err != nil || len(entries) == 0 {
		return noOpinion()
	}

	lower := strings.ToLower(ctx.Prompt)
	var matched []string
	for _, e := range entries {
		for _, tag := range e.Tags {
			if tag == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(tag)) {
				matched = append(matched, e.Title)
				break
			}
		}
	}
	if len(matched) == 0 {
		return noOpinion()
	}
	return allow("relevant_lessons: " + strings.Join(matched, ", "))
}

// minTurnsBeforeDriftWarning is spec §4.4's "≥5 turns have passed"
// qualifier on goal_anchor.
const minTurnsBeforeDriftWarning = 5

// goalAnchor warns (never denies) when the current prompt's keyword
// overlap with original_goal drops below 10% after enough turns have
// passed to make drift meaningful (spec §4.4, p=1).
func goalAnchor(ctx *Ctx) Result {
	if ctx.Turn.SkipDriftBookkeeping {
		return noOpinion()
	}
	if ctx.State.OriginalGoal == "" {
		ctx.State.SetGoalAnchor(ctx.Prompt, detect.ExtractGoalKeywords(ctx.Prompt), ctx.TurnNum)
		return noOpinion()
	}
	if ctx.TurnNum-ctx.State.GoalSetTurn < minTurnsBeforeDriftWarning {
		return noOpinion()
	}
	ratio := detect.KeywordOverlapRatio(ctx.State.GoalKeywords, ctx.Prompt)
	if ratio >= 0.10 {
		return noOpinion()
	}
	ctx.Engine.FireReducer(ctx.State, ctx.Turn, "goal_drift", "", ctx.TurnNum, ctx.Now)
	return allow("goal_anchor: this prompt shares little vocabulary with the original goal (\"" +
		trimToLen(ctx.State.OriginalGoal, 80) + "\") — confirm this is still in scope")
}

// deferralMarkers flag a prompt that defers known work rather than
// addressing it now (spec §4.2 "deferral").
var deferralMarkers = []string{"todo later", "fix it later", "we can skip this for now", "leave that for later", "not right now"}

func deferralReducer(ctx *Ctx) Result {
	if ctx.Turn.SkipDriftBookkeeping {
		return noOpinion()
	}
	lower := strings.ToLower(ctx.Prompt)
	for _, m := range deferralMarkers {
		if strings.Contains(lower, m) {
			ctx.Engine.FireReducer(ctx.State, ctx.Turn, "deferral", "", ctx.TurnNum, ctx.Now)
			break
		}
	}
	return noOpinion()
}

// rockBottomRealignment denies with the question template while in
// IGNORANCE tier and the realignment marker hasn't been supplied yet
// (spec §4.4, p=3).
func rockBottomRealignment(ctx *Ctx) Result {
	if !ctx.State.RealignmentPending {
		return noOpinion()
	}
	if confidence.HasRealignmentMarker(ctx.Prompt) {
		ctx.Engine.CompleteRealignment(ctx.State, ctx.TurnNum, ctx.Now)
		return noOpinion()
	}
	reason := "confidence has hit rock bottom; answer the following before continuing:\n"
	for i, q := range confidence.RealignmentQuestions {
		reason += itoa(i+1) + ". " + q + "\n"
	}
	reason += "Prefix your reply with \"" + confidence.RealignmentMarker + "\" once answered."
	return deny(reason)
}

// trivialPromptFilter marks trivial acknowledgement prompts so
// goal_anchor and deferral_reducer skip turn_count-driven bookkeeping
// for them (spec §4.4, p=0 — runs first so the flag it sets is visible
// to every other check on this event).
func trivialPromptFilter(ctx *Ctx) Result {
	if detect.IsTrivialPrompt(ctx.Prompt) {
		ctx.Turn.SkipDriftBookkeeping = true
	}
	return noOpinion()
}
