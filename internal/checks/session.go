package checks

import (
	"context"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/hookconfig"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventSessionStart, "capability_index_staleness", "", 10, capabilityIndexStaleness)
}

// capabilityIndexStalenessWait bounds the opportunistic filesystem
// watch below — a near-instant poll, not a real wait, since a hook
// invocation must never meaningfully delay the host (spec §5).
const capabilityIndexStalenessWait = 25 * time.Millisecond

// capabilityIndexStaleness opportunistically checks whether the memory
// directory changed very recently and, if so, nudges the assistant that
// the capability index (an external collaborator, spec §2) may be
// stale. It never blocks meaningfully and never denies.
func capabilityIndexStaleness(ctx *Ctx) Result {
	if ctx.Project == nil {
		return noOpinion()
	}
	wctx, cancel := context.WithTimeout(context.Background(), capabilityIndexStalenessWait)
	defer cancel()
	if !hookconfig.WatchForChange(wctx, ctx.Project.MemoryDir()) {
		return noOpinion()
	}
	return allow("capability_index_staleness: the memory directory changed just now — the capability index may be stale")
}
