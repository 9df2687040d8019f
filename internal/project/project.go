// Package project locates the project root and derives per-project
// paths for state, beads, assignments, and memory (spec §4.8).
package project

import (
	"os"
	"path/filepath"
)

// rootMarkers are checked in order; the first directory walking upward
// from start that contains one of these is the project root (spec
// §4.8: "walks parent directories looking for .beads/ then CLAUDE.md").
var rootMarkers = []string{".beads", "CLAUDE.md"}

// FindProjectRoot walks parent directories from start looking for a
// root marker. CLAUDE_PROJECT_ROOT overrides detection entirely (spec
// §6).
func FindProjectRoot(start string) string {
	if override := os.Getenv("CLAUDE_PROJECT_ROOT"); override != "" {
		return override
	}

	dir := start
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding a marker.
			return start
		}
		dir = parent
	}
}

// Context derives every path a check or collaborator needs from a
// resolved project root.
type Context struct {
	Root string
}

// New resolves a Context from a starting directory.
func New(start string) *Context {
	return &Context{Root: FindProjectRoot(start)}
}

// Name returns the project's directory basename, used as a human label.
func (c *Context) Name() string {
	return filepath.Base(c.Root)
}

// BeadsDir returns the .beads directory, creating it if create is true
// and it doesn't exist (spec §4.8).
func (c *Context) BeadsDir(create bool) (string, error) {
	dir := filepath.Join(c.Root, ".beads")
	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// AssignmentsFile returns the path to the bead assignment ledger
// (spec §3.4, §6).
func (c *Context) AssignmentsFile() string {
	return filepath.Join(c.Root, ".beads", "agent_assignments.jsonl")
}

// LifecycleLog returns the path to the append-only lifecycle log
// (spec §6).
func (c *Context) LifecycleLog() string {
	return filepath.Join(c.Root, ".beads", "lifecycle.log")
}

// MemoryDir returns the directory where lessons/skills memory lives.
func (c *Context) MemoryDir() string {
	return filepath.Join(c.Root, ".claude", "memory")
}

// StateDir returns the directory holding session_state.json and
// cooldowns.json.
func (c *Context) StateDir() string {
	return filepath.Join(c.Root, ".claude", "state")
}

// TmpDir returns the ephemeral scratch directory, reaped at >24h age
// by an external collaborator (spec §6).
func (c *Context) TmpDir() string {
	return filepath.Join(c.Root, ".claude", "tmp")
}

// AllProjectRoots discovers every known project root under the given
// search directories by looking for a .claude/state directory (spec
// §4.8: "get_all_project_roots for discovery"). Used by external
// cleanup collaborators; errors reading any one candidate are skipped.
func AllProjectRoots(searchDirs []string) []string {
	var roots []string
	for _, dir := range searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			candidate := filepath.Join(dir, e.Name())
			if _, err := os.Stat(filepath.Join(candidate, ".claude", "state")); err == nil {
				roots = append(roots, candidate)
			}
		}
	}
	return roots
}
