package hookconfig

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchForChange blocks until a .md file under dir is created, written,
// or removed, or until ctx is done, reporting whether a change was
// observed. Grounded on pkg/subagent/watch.go's debounced fsnotify
// loop, collapsed from a long-lived reload loop to a single bounded
// wait since this tool's process lifetime is one event, not a daemon.
// Used as a best-effort nudge that the project's capability index may
// be stale (spec §2: capability index generation is an external
// collaborator; this tool only detects that its input changed, never
// regenerates it itself).
func WatchForChange(ctx context.Context, dir string) bool {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return false
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return false
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-watcher.Events:
			if !ok {
				return false
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) != 0 {
				return true
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return false
			}
		}
	}
}
