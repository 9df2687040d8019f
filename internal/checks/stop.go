package checks

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/detect"
	"github.com/antigravity-dev/hookrunner/internal/types"
)

func init() {
	Register(types.EventStop, "auto_commit", "", 10, autoCommit)
	Register(types.EventStop, "stub_detector", "", 50, stubDetector)
}

// stubDetector scans files_created for byte patterns that mark
// unfinished code and reports them (spec §4.4, p=50). Advisory only —
// never blocks the stop.
func stubDetector(ctx *Ctx) Result {
	if len(ctx.State.FilesCreated) == 0 {
		return noOpinion()
	}
	var flagged []string
	for _, path := range ctx.State.FilesCreated {
		data, err := os.ReadFile(path)
		if err != nil {
			continue // file may have since been removed or moved; non-fatal
		}
		if pattern, found := detect.ContainsStubPattern(string(data)); found {
			flagged = append(flagged, path+" ("+pattern+")")
		}
	}
	if len(flagged) == 0 {
		return noOpinion()
	}
	return allow("stub_detector: unfinished markers found in " + strings.Join(flagged, ", "))
}

// gitCallTimeout bounds the auto_commit subprocess calls (spec §5:
// "Subprocess calls to the task-tracker and git (bounded ≤2 s;
// non-fatal on timeout)").
const gitCallTimeout = 2 * time.Second

// autoCommit creates a semantic commit if the project is a git
// repository with uncommitted changes; failures are non-fatal (spec
// §4.4, p=10, grounded on pkg/prompt/memoryutil.go's git subprocess
// pattern).
func autoCommit(ctx *Ctx) Result {
	if ctx.Project == nil {
		return noOpinion()
	}
	root := ctx.Project.Root

	status, err := runGit(root, "status", "--porcelain")
	if err != nil {
		return noOpinion() // not a git repo, or git unavailable — non-fatal
	}
	if strings.TrimSpace(status) == "" {
		return noOpinion()
	}

	if _, err := runGit(root, "add", "-A"); err != nil {
		return noOpinion()
	}

	message := commitMessage(ctx)
	if _, err := runGit(root, "commit", "-m", message); err != nil {
		return noOpinion()
	}

	ctx.State.ResetFailures()
	return allow("auto_commit: committed pending changes (\"" + message + "\")")
}

func commitMessage(ctx *Ctx) string {
	if ctx.State.OriginalGoal != "" {
		return "wip: " + trimToLen(ctx.State.OriginalGoal, 72)
	}
	return "wip: checkpoint"
}

func runGit(dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitCallTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}
