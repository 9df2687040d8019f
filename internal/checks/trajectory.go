package checks

import (
	"github.com/antigravity-dev/hookrunner/internal/confidence"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventUserPromptSubmit, "trajectory_warning", "", 4, trajectoryWarning)
}

// trajectoryWarningHorizonTurns is how many turns ahead the warning
// looks (spec §4.2: "...within M turns at the current rate").
const trajectoryWarningHorizonTurns = 5

// trajectoryWarning extrapolates the recent confidence trend and
// surfaces a preemptive warning when it's headed for rock bottom within
// trajectoryWarningHorizonTurns turns (spec §4.2 Trajectory prediction).
// Advisory only: it never denies, since the tiers/gates themselves
// already enforce behavior once confidence actually crosses.
func trajectoryWarning(ctx *Ctx) Result {
	turns, willCross := confidence.PredictCrossing(
		ctx.State.Confidence,
		ctx.State.ConfidenceHistory,
		confidence.ThresholdRockBottom,
		trajectoryWarningHorizonTurns,
	)
	if !willCross {
		return noOpinion()
	}
	return allow("trajectory_warning: at the current rate, confidence will hit rock bottom in about " +
		itoa(turns) + " turn(s) — consider slowing down and gathering more verified evidence")
}
