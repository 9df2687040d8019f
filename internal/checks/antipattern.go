package checks

import (
	"time"

	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventPostToolUse, "unresolved_anti_pattern_reducer", "", 63, unresolvedAntiPatternReducer)
}

// unresolvedAntiPatternPersistence is how long an unresolved error may
// sit before it counts as a persisting anti-pattern (spec §4.2
// "unresolved_anti_pattern"); unspecified by spec.md, chosen in
// proportion to the reducer's 300s cooldown (a slow-building signal) —
// errors don't carry a turn number, so persistence is measured in wall
// time rather than turn count.
const unresolvedAntiPatternPersistence = 10 * time.Minute

// unresolvedAntiPatternReducer fires when the oldest unresolved error
// has persisted at least unresolvedAntiPatternPersistence (spec §4.2).
func unresolvedAntiPatternReducer(ctx *Ctx) Result {
	if len(ctx.State.ErrorsUnresolved) == 0 {
		return noOpinion()
	}
	oldest := ctx.State.ErrorsUnresolved[0]
	if ctx.Now.Sub(oldest.Timestamp) < unresolvedAntiPatternPersistence {
		return noOpinion()
	}
	ctx.Engine.FireReducer(ctx.State, ctx.Turn, "unresolved_anti_pattern", oldest.Type, ctx.TurnNum, ctx.Now)
	return noOpinion()
}
