package confidence

// Increaser is a deterministic confidence-raising rule (spec §4.2).
type Increaser struct {
	Name     string
	Delta    int // positive
	Farmable bool
}

// increaserRegistry holds every required increaser from spec §4.2.
// tests_passed's +4 base is grounded on spec §8 scenario 4's worked
// streak example (4, 5, 6 from a repeated +4 base).
var increaserRegistry = map[string]Increaser{
	"tests_passed":      {"tests_passed", 4, false},
	"successful_build":  {"successful_build", 5, false},
	"lint_clean":        {"lint_clean", 3, false},
	"productive_bash":   {"productive_bash", 3, true},
	"memory_consult":    {"memory_consult", 4, false},
	"file_read":         {"file_read", 2, true},
	"git_exploration":   {"git_exploration", 3, false},
	"ask_user":          {"ask_user", 3, false},
	"bead_create":       {"bead_create", 4, false},
	"rules_update":      {"rules_update", 3, false},
	"momentum_forward":  {"momentum_forward", 2, false},
	"search_tool":       {"search_tool", 2, true},
	// trust_regained is granted explicitly by the user (spec §4.2) and
	// is not subject to diminishing returns; like every increaser, it is
	// still scaled by the streak multiplier in FinalizeTurn.
	"trust_regained":    {"trust_regained", 10, false},
}

// IncreaserByName looks up a registered increaser.
func IncreaserByName(name string) (Increaser, bool) {
	i, ok := increaserRegistry[name]
	return i, ok
}
