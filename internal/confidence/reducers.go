package confidence

// Reducer is a deterministic confidence-lowering rule (spec §4.2). The
// matching logic lives in the checks package (spec §9: "model as
// tagged variants plus a dispatch table rather than inheritance");
// this registry only carries the magnitude and cooldown each named
// reducer fires with, so checks call Engine.FireReducer(name, ...)
// without duplicating tuning constants.
type Reducer struct {
	Name            string
	Delta           int // negative
	CooldownSeconds float64
}

// reducerRegistry holds every required reducer from spec §4.2. Deltas
// and cooldowns are tuning constants spec.md leaves unspecified beyond
// the worked examples (scenario 3's -8 for edit_oscillation, scenario 3's
// summed -40 burst); chosen to be internally consistent with those
// examples and with each reducer's severity relative to the others.
var reducerRegistry = map[string]Reducer{
	"tool_failure_streak":      {"tool_failure_streak", -6, 180},
	"cascade_block":            {"cascade_block", -10, 300},
	"sunk_cost":                {"sunk_cost", -5, 240},
	"edit_oscillation":         {"edit_oscillation", -8, 180},
	"goal_drift":               {"goal_drift", -4, 300},
	"backup_file_creation":     {"backup_file_creation", -3, 120},
	"version_suffixed_filename": {"version_suffixed_filename", -3, 120},
	"user_correction":          {"user_correction", -5, 60},
	"apologetic_language":      {"apologetic_language", -4, 120},
	"overconfident_completion": {"overconfident_completion", -7, 180},
	"large_diff":               {"large_diff", -3, 120},
	"standalone_markdown_file": {"standalone_markdown_file", -2, 120},
	"hook_block":               {"hook_block", -5, 60},
	"unresolved_anti_pattern":  {"unresolved_anti_pattern", -4, 300},
	"deferral":                 {"deferral", -3, 180},
	"deadend_response":         {"deadend_response", -8, 180},
}

// ReducerByName looks up a registered reducer, for dispute handling and
// for checks that want its tuning constants without hardcoding them.
func ReducerByName(name string) (Reducer, bool) {
	r, ok := reducerRegistry[name]
	return r, ok
}
