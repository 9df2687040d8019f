package confidence

import (
	"regexp"
	"strings"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/state"
)

// disputePattern matches `FP:<reducer_name>` or `/dispute <reducer_name>`
// at the start of a prompt (spec §4.2 Disputes).
var disputePattern = regexp.MustCompile(`(?i)^(?:FP:(\S+)|/dispute\s+(\S+))`)

// ParseDispute extracts the reducer name from a dispute-shaped prompt,
// if any.
func ParseDispute(prompt string) (reducer string, ok bool) {
	m := disputePattern.FindStringSubmatch(strings.TrimSpace(prompt))
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// ApplyDispute restores the most recent firing's delta (clipped by the
// rate limit), increments the reducer's false-positive count, and
// stretches its next cooldown. Disputes are bounded: at most one
// dispute per reducer per session until a genuine firing happens again
// (spec §4.2, §8 scenario 6).
func (e *Engine) ApplyDispute(s *state.State, reducerName string, turnNum int, now time.Time) (restored int, ok bool) {
	firing, exists := s.ReducerFirings[reducerName]
	if !exists || firing.Disputed {
		return 0, false
	}

	restore := -firing.Delta // delta was negative; restoring adds it back
	restore = clamp(restore, -MaxConfidenceDeltaPerTurn, MaxConfidenceRecoveryDelta)

	s.Confidence = clamp(s.Confidence+restore, 0, 100)
	s.ReducerFPCounts[reducerName]++

	firing.Disputed = true
	s.ReducerFirings[reducerName] = firing

	s.RecordEvidence("dispute:"+reducerName, reducerName, turnNum, now)
	return restore, true
}
