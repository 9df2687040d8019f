package checks

import (
	"testing"

	"github.com/antigravity-dev/hookrunner/internal/types"
)

func TestDispatch_PriorityOrderAndGatingShortCircuit(t *testing.T) {
	resetForTest()
	defer resetForTest()

	var order []string
	Register(types.EventPreToolUse, "second", "", 20, func(ctx *Ctx) Result {
		order = append(order, "second")
		return deny("second says no")
	})
	Register(types.EventPreToolUse, "first", "", 10, func(ctx *Ctx) Result {
		order = append(order, "first")
		return noOpinion()
	})
	Register(types.EventPreToolUse, "third", "", 30, func(ctx *Ctx) Result {
		order = append(order, "third")
		return noOpinion()
	})

	ctx := &Ctx{Scratch: &Scratch{}, Event: types.EventPreToolUse}
	result, fired := Dispatch(ctx, nil)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected first then second only (third short-circuited out), got %v", order)
	}
	if result.Decision != Deny || result.Reason != "second says no" {
		t.Fatalf("expected the gating short-circuit deny to win, got %+v", result)
	}
	if len(fired) != 2 {
		t.Fatalf("expected exactly 2 fired entries, got %d", len(fired))
	}
}

func TestDispatch_NonGatingEventRunsEveryCheckAndAggregatesContext(t *testing.T) {
	resetForTest()
	defer resetForTest()

	Register(types.EventPostToolUse, "a", "", 1, func(ctx *Ctx) Result { return allow("from a") })
	Register(types.EventPostToolUse, "b", "", 2, func(ctx *Ctx) Result { return deny("b denies, but post-tool-use never gates") })
	Register(types.EventPostToolUse, "c", "", 3, func(ctx *Ctx) Result { return allow("from c") })

	ctx := &Ctx{Scratch: &Scratch{}, Event: types.EventPostToolUse}
	result, fired := Dispatch(ctx, nil)

	if len(fired) != 3 {
		t.Fatalf("expected all 3 checks to run for a non-gating event, got %d", len(fired))
	}
	if result.Context != "from a\nfrom c" {
		t.Fatalf("expected both allow contexts aggregated in order, got %q", result.Context)
	}
}

func TestDispatch_ToolMatcherFiltersByName(t *testing.T) {
	resetForTest()
	defer resetForTest()

	var ran bool
	Register(types.EventPreToolUse, "bash-only", "Bash", 1, func(ctx *Ctx) Result {
		ran = true
		return noOpinion()
	})

	ctx := &Ctx{Scratch: &Scratch{}, Event: types.EventPreToolUse, ToolName: "Read"}
	Dispatch(ctx, nil)
	if ran {
		t.Fatal("expected the Bash-only check to be skipped for a Read tool call")
	}

	ctx.ToolName = "Bash"
	Dispatch(ctx, nil)
	if !ran {
		t.Fatal("expected the Bash-only check to run for a Bash tool call")
	}
}

func TestDispatch_DisabledCallbackSkipsCheck(t *testing.T) {
	resetForTest()
	defer resetForTest()

	var ran bool
	Register(types.EventPreToolUse, "disableme", "", 1, func(ctx *Ctx) Result {
		ran = true
		return noOpinion()
	})

	ctx := &Ctx{Scratch: &Scratch{}, Event: types.EventPreToolUse}
	Dispatch(ctx, func(name string) bool { return name == "disableme" })
	if ran {
		t.Fatal("expected the disabled check to be skipped")
	}
}

func TestDispatch_StopEventBlockStillRunsRemainingChecks(t *testing.T) {
	resetForTest()
	defer resetForTest()

	var ranAfter bool
	Register(types.EventStop, "forces-continuation", "", 1, func(ctx *Ctx) Result {
		return block("keep going, stubs remain")
	})
	Register(types.EventStop, "still-runs", "", 2, func(ctx *Ctx) Result {
		ranAfter = true
		return noOpinion()
	})

	ctx := &Ctx{Scratch: &Scratch{}, Event: types.EventStop}
	result, _ := Dispatch(ctx, nil)

	if result.Decision != Block {
		t.Fatalf("expected Block to win on Stop, got %+v", result)
	}
	if !ranAfter {
		t.Fatal("expected the remaining Stop checks to run after a Block (Stop is non-gating)")
	}
}
