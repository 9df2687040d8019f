package confidence

import (
	"strings"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/state"
)

// RealignmentMarker is the token a user prompt must contain to signal
// the forced realignment dialogue has been answered (spec §4.2,
// configurable via hook_settings.json `magic_number.realignment_marker`
// in a full deployment; hardcoded here as the documented default).
const RealignmentMarker = "REALIGNED:"

// RealignmentQuestions is the fixed question template surfaced when
// confidence hits rock bottom (spec §4.2: "three to five questions
// drawn from a fixed template (goal, evidence, next verifiable step)").
var RealignmentQuestions = []string{
	"What is the original goal of this session, in one sentence?",
	"What concrete evidence do you have that the current approach is working?",
	"What is the single next verifiable step, and how will you verify it?",
	"What assumption, if wrong, would most change your approach?",
}

// HasRealignmentMarker reports whether prompt contains the realignment
// marker.
func HasRealignmentMarker(prompt string) bool {
	return strings.Contains(prompt, RealignmentMarker)
}

// CompleteRealignment sets confidence to RockBottomRecoveryTarget and
// clears the pending flag (spec §4.2, §8 scenario 5).
func (e *Engine) CompleteRealignment(s *state.State, turnNum int, now time.Time) {
	s.Confidence = RockBottomRecoveryTarget
	s.RealignmentPending = false
	s.ResetFailures()
	s.RecordEvidence("rock_bottom_realignment_complete", "", turnNum, now)
}
