package confidence

// Tier is a confidence range mapped to tool privileges (spec §3.2).
type Tier string

const (
	TierIgnorance  Tier = "IGNORANCE"
	TierHypothesis Tier = "HYPOTHESIS"
	TierWorking    Tier = "WORKING"
	TierCertainty  Tier = "CERTAINTY"
	TierTrusted    Tier = "TRUSTED"
	TierExpert     Tier = "EXPERT"
)

// TierOf returns the tier containing the given confidence value.
func TierOf(c int) Tier {
	switch {
	case c <= ThresholdRockBottom:
		return TierIgnorance
	case c <= ThresholdMandatoryExternal:
		return TierHypothesis
	case c <= ThresholdRequireResearch:
		return TierWorking
	case c <= 70:
		return TierCertainty
	case c <= 89:
		return TierTrusted
	default:
		return TierExpert
	}
}

// RequiresExternalConsult reports whether tier requires mandatory LLM
// consultation before non-trivial writes (spec §3.2 HYPOTHESIS row).
func RequiresExternalConsult(t Tier) bool {
	return t == TierIgnorance || t == TierHypothesis
}

// RequiresResearch reports whether tier requires research before using
// an unfamiliar library (spec §3.2 WORKING row).
func RequiresResearch(t Tier) bool {
	return t == TierIgnorance || t == TierHypothesis || t == TierWorking
}

// AllowsProductionWrites reports whether tier permits production writes
// (spec §3.2 CERTAINTY row, §4.4 confidence_tier_gate: "<51").
func AllowsProductionWrites(c int) bool {
	return c >= ThresholdProductionAccess
}

// IsRockBottom reports whether c is at or below the forced-realignment
// threshold (spec §8: "exactly at rock-bottom threshold (10) enters
// realignment; at 11 does not").
func IsRockBottom(c int) bool {
	return c <= ThresholdRockBottom
}

// RecoveryCeiling returns the maximum positive delta applicable this
// turn: the larger "recovery" ceiling applies only when climbing out of
// IGNORANCE/HYPOTHESIS with a net-positive turn (spec §4.2).
func RecoveryCeiling(t Tier, netDelta int) int {
	if netDelta > 0 && (t == TierIgnorance || t == TierHypothesis) {
		return MaxConfidenceRecoveryDelta
	}
	return MaxConfidenceDeltaPerTurn
}
