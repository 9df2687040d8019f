package confidence

// ToolDebtFamily is one of the seven pressure-to-remember families
// (spec §4.2).
type ToolDebtFamily string

const (
	DebtPALConsultation  ToolDebtFamily = "pal-consultation"
	DebtSerenaSemantic   ToolDebtFamily = "serena-semantic"
	DebtBeads            ToolDebtFamily = "beads"
	DebtAgentDelegation  ToolDebtFamily = "agent-delegation"
	DebtSkills           ToolDebtFamily = "skills"
	DebtClarification    ToolDebtFamily = "clarification"
	DebtTechDebtCleanup  ToolDebtFamily = "tech-debt-cleanup"
)

// AllDebtFamilies lists every family the engine accrues debt for.
var AllDebtFamilies = []ToolDebtFamily{
	DebtPALConsultation, DebtSerenaSemantic, DebtBeads,
	DebtAgentDelegation, DebtSkills, DebtClarification, DebtTechDebtCleanup,
}

// debtParams configures accrual and recovery for a family. Grounded on
// original_source/lib/_confidence_tool_debt.py's description (rate per
// turn, recovery percentage, cap). defaultDebtParams applies to every
// family that has no entry in Engine.DebtOverrides; the runner does not
// fill DebtOverrides, and no `magic_number.tool_debt.<family>.*` key in
// hook_settings.json is read.
type debtParams struct {
	RatePerTurn float64
	RecoveryPct float64
	Cap         float64
	Scale       float64 // how strongly accumulated debt is surfaced as a reducer
}

var defaultDebtParams = debtParams{RatePerTurn: 0.5, RecoveryPct: 0.7, Cap: 12, Scale: 0.5}

// DebtParamsFor resolves the params for a family, applying the override
// entry whenever one is present for it.
func DebtParamsFor(family ToolDebtFamily, overrides map[string]debtParams) debtParams {
	if p, ok := overrides[string(family)]; ok {
		return p
	}
	return defaultDebtParams
}
