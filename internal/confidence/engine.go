package confidence

import (
	"math"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/cooldown"
	"github.com/antigravity-dev/hookrunner/internal/state"
)

// Engine applies the confidence pipeline described in spec §4.2:
// decay → reducers → increasers → rate-limit → streak-and-diminishing
// → mean-reversion → bounds.
type Engine struct {
	Cooldowns   *cooldown.Store
	DebtOverrides map[string]debtParams
}

// NewEngine returns an Engine backed by the given cooldown store.
func NewEngine(cds *cooldown.Store) *Engine {
	return &Engine{Cooldowns: cds}
}

// Turn accumulates everything that happened during one event's
// processing before FinalizeTurn folds it into the persisted State.
type Turn struct {
	ReducerDelta   int
	ReducerFired   bool
	IncreaserDelta int
	IncreaserFired bool
	Evidence       []state.EvidenceEntry

	// SkipDriftBookkeeping is set by trivial_prompt_filter so the
	// runner skips turn_count-driven goal-anchor checks for one-word
	// acknowledgement prompts (spec §4.4 trivial_prompt_filter).
	SkipDriftBookkeeping bool
}

func (t *Turn) note(evType, content string, turn int, now time.Time) {
	t.Evidence = append(t.Evidence, state.EvidenceEntry{Type: evType, Content: content, Turn: turn, Timestamp: now})
}

// FireReducer fires a named reducer unless it is on cooldown. Returns
// whether it fired. Firing records a trigger, sets a cooldown stretched
// by the reducer's false-positive count (capped at 4x, spec §4.2), and
// resets the streak.
func (e *Engine) FireReducer(s *state.State, t *Turn, name, subkey string, turnNum int, now time.Time) (bool, error) {
	reg, ok := ReducerByName(name)
	if !ok {
		return false, nil
	}

	if e.Cooldowns != nil {
		onCooldown, err := e.Cooldowns.IsOnCooldown(name, subkey, now)
		if err != nil {
			return false, err
		}
		if onCooldown {
			return false, nil
		}
	}

	fp := s.ReducerFPCounts[name]
	stretch := 1 + fpStretchPerCount*float64(fp)
	if stretch > fpStretchCap {
		stretch = fpStretchCap
	}

	if e.Cooldowns != nil {
		if err := e.Cooldowns.SetCooldown(name, subkey, reg.CooldownSeconds, stretch, now); err != nil {
			return false, err
		}
	}

	s.ReducerTriggers[name]++
	s.ReducerFirings[name] = state.ReducerFiring{Delta: reg.Delta, Turn: turnNum, Timestamp: now, Disputed: false}
	s.Streak = 0

	t.ReducerDelta += reg.Delta
	t.ReducerFired = true
	t.note("reducer_fire:"+name, name, turnNum, now)

	return true, nil
}

// FireIncreaser fires a named increaser, applying diminishing returns
// if it is farmable (spec §4.2).
func (e *Engine) FireIncreaser(s *state.State, t *Turn, name string, turnNum int, now time.Time) bool {
	reg, ok := IncreaserByName(name)
	if !ok {
		return false
	}

	mult := diminishingMultiplier(s, name, reg.Farmable, turnNum)
	delta := int(math.Round(float64(reg.Delta) * mult))

	s.IncreaserTriggers[name]++
	if reg.Farmable {
		recordFarmOccurrence(s, name, turnNum)
	}

	t.IncreaserDelta += delta
	if delta > 0 {
		t.IncreaserFired = true
	}
	t.note("increaser_fire:"+name, name, turnNum, now)
	return true
}

// diminishingMultiplier returns the multiplier for a farmable signal
// based on how many times it has fired within the rolling window
// (spec §4.2). Non-farmable signals always return 1.0.
func diminishingMultiplier(s *state.State, name string, farmable bool, turnNum int) float64 {
	if !farmable {
		return 1.0
	}
	occurrences := pruneAndCount(s, name, turnNum)
	n := occurrences + 1 // this firing would be the (occurrences+1)th
	if n >= diminishingCap {
		return 0
	}
	if m, ok := diminishingMultipliers[n]; ok {
		return m
	}
	return 1.0
}

func pruneAndCount(s *state.State, name string, turnNum int) int {
	turns := s.DiminishingCounters[name]
	kept := turns[:0]
	for _, tn := range turns {
		if turnNum-tn < diminishingWindowTurns {
			kept = append(kept, tn)
		}
	}
	s.DiminishingCounters[name] = kept
	return len(kept)
}

func recordFarmOccurrence(s *state.State, name string, turnNum int) {
	s.DiminishingCounters[name] = append(s.DiminishingCounters[name], turnNum)
}

// AccrueDebt adds one turn's worth of debt to every family (spec §4.2:
// "accumulates debt ... per turn until used").
func (e *Engine) AccrueDebt(s *state.State) {
	for _, fam := range AllDebtFamilies {
		p := DebtParamsFor(fam, e.DebtOverrides)
		d := s.ToolDebt[string(fam)] + p.RatePerTurn
		if d > p.Cap {
			d = p.Cap
		}
		s.ToolDebt[string(fam)] = d
	}
}

// UseDebtFamily records that a tool from family was used this turn:
// recovers a percentage of accumulated debt and fires a companion
// increaser that exactly cancels the recovered amount's reducer
// pressure (spec §4.2).
func (e *Engine) UseDebtFamily(s *state.State, t *Turn, family ToolDebtFamily, turnNum int, now time.Time) {
	p := DebtParamsFor(family, e.DebtOverrides)
	debt := s.ToolDebt[string(family)]
	recovered := debt * p.RecoveryPct
	s.ToolDebt[string(family)] = debt - recovered

	delta := int(math.Round(recovered * p.Scale))
	t.IncreaserDelta += delta
	if delta > 0 {
		t.IncreaserFired = true
	}
	t.note("tool_debt_recovered:"+string(family), string(family), turnNum, now)
}

// debtReducerDelta surfaces accumulated, un-recovered debt as a
// negative pressure applied every turn (spec §4.2).
func (e *Engine) debtReducerDelta(s *state.State) int {
	total := 0.0
	for _, fam := range AllDebtFamilies {
		p := DebtParamsFor(fam, e.DebtOverrides)
		total += s.ToolDebt[string(fam)] * p.Scale
	}
	return -int(math.Round(total))
}

// streakMultiplier returns the multiplier for the given streak length.
func streakMultiplier(streak int) float64 {
	mult := 1.0
	for _, k := range []int{2, 3, 5} {
		if streak >= k {
			mult = streakMultipliers[k]
		}
	}
	return mult
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundTowardZero implements spec §3.1's mean-reversion rounding rule
// ("rounded toward zero") so a nudge never overshoots past the target.
func roundTowardZero(f float64) int {
	if f < 0 {
		return int(math.Ceil(f))
	}
	return int(math.Floor(f))
}

// FinalizeTurn applies rate limiting, the streak multiplier, mean
// reversion, and bounds, then writes the result into s.Confidence. It
// returns the delta actually applied (spec §8: testable invariants).
func (e *Engine) FinalizeTurn(s *state.State, t *Turn, turnNum int, now time.Time) int {
	debtDelta := e.debtReducerDelta(s)
	if debtDelta != 0 {
		t.ReducerDelta += debtDelta
		t.ReducerFired = true
		t.note("reducer_fire:tool_debt", "tool_debt", turnNum, now)
	}

	before := s.Confidence
	tier := TierOf(before)

	applied := 0
	switch {
	case t.ReducerFired || t.IncreaserFired:
		// The streak extends with this turn before its multiplier is
		// looked up, so a third consecutive increaser-only turn sees
		// streak==3 (not 2) when computing its own bonus (spec §8
		// scenario 4: three consecutive +4 turns yield 4, 5, 6).
		if t.IncreaserFired && !t.ReducerFired {
			s.Streak++
		}

		mult := 1.0
		if t.IncreaserDelta > 0 {
			mult = streakMultiplier(s.Streak)
		}
		netIncreaser := int(math.Round(float64(t.IncreaserDelta) * mult))
		total := t.ReducerDelta + netIncreaser

		ceiling := RecoveryCeiling(tier, total)
		clipped := clamp(total, -MaxConfidenceDeltaPerTurn, ceiling)
		if clipped != total {
			t.note("rate_limit_clip", "clipped", turnNum, now)
		}
		applied = clipped
	default:
		// Idle turn: mean-reversion nudge toward the target (spec §4.2).
		applied = roundTowardZero(MeanReversionRate * (float64(MeanReversionTarget) - float64(before)))
	}

	after := clamp(before+applied, 0, 100)
	s.Confidence = after

	s.ConfidenceHistory = append(s.ConfidenceHistory, applied)
	if len(s.ConfidenceHistory) > confidenceHistoryWindow {
		s.ConfidenceHistory = s.ConfidenceHistory[len(s.ConfidenceHistory)-confidenceHistoryWindow:]
	}

	for _, ev := range t.Evidence {
		s.EvidenceLedger = append(s.EvidenceLedger, ev)
	}

	if TierOf(after) != tier {
		s.RecordEvidence("tier_change", string(TierOf(before))+"->"+string(TierOf(after)), turnNum, now)
	}

	if IsRockBottom(after) && !IsRockBottom(before) {
		s.RealignmentPending = true
		s.RecordEvidence("rock_bottom_entered", "", turnNum, now)
	}

	return after - before
}
