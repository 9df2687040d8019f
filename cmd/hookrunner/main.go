// Command hookrunner is the composite event runner's process entry
// point. The host invokes a fresh instance of this binary once per
// lifecycle event, feeding the event JSON on stdin and reading the
// decision JSON back from stdout (spec §4.5, §6). Grounded on
// cmd/eval/main.go's flag-plus-stdin resolution and Ctrl+C handling.
//
// Flags:
//
//	-cwd  Directory the project root is resolved from (default: current directory)
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/project"
	"github.com/antigravity-dev/hookrunner/internal/runner"
)

func main() {
	cwdFlag := flag.String("cwd", "", "directory to resolve the project root from (default: current directory)")
	flag.Parse()

	cwd := *cwdFlag
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	// The host may terminate this process at any time; writes are
	// atomic (temp file + rename) so a signal mid-write can never
	// corrupt state (spec §5 Cancellation). Exit 0 either way — a
	// non-zero exit is treated as a bug by the host (spec §6).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		os.Exit(0)
	}()

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookrunner: read stdin: %v\n", err)
		os.Exit(0)
	}

	root := project.FindProjectRoot(cwd)
	r := runner.New(root, frameworkRoot())

	out := r.Handle(data, time.Now())
	os.Stdout.Write(out)
	os.Exit(0)
}

// frameworkRoot resolves where hook_settings.json lives, distinct from
// the per-project state paths (spec §6: "<framework_root>/config/
// hook_settings.json"). CLAUDE_HOOK_FRAMEWORK_ROOT overrides detection
// entirely; otherwise it defaults to the directory containing this
// binary, which is where a packaged deployment installs its config
// alongside the executable.
func frameworkRoot() string {
	if v := os.Getenv("CLAUDE_HOOK_FRAMEWORK_ROOT"); v != "" {
		return v
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return ""
}
