package checks

import (
	"strings"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/state"
)

func cmdEntry(cmd string, at time.Time) state.CommandEntry {
	return state.CommandEntry{Command: cmd, Timestamp: at}
}

func pendingGrep(functionName, sourceFile string, turn int, at time.Time) state.PendingIntegrationGrep {
	return state.PendingIntegrationGrep{
		FunctionName: functionName,
		SourceFile:   sourceFile,
		CreatedTurn:  turn,
		CreatedAt:    at,
	}
}

// filePath extracts the file_path argument common to Write, Edit, and
// NotebookEdit tool inputs (spec §6, grounded on the Write/Edit tool
// input schemas: file_path is always an absolute path string).
func filePath(input map[string]any) (string, bool) {
	v, ok := input["file_path"].(string)
	return v, ok && v != ""
}

func writeContent(input map[string]any) (string, bool) {
	if c, ok := input["content"].(string); ok {
		return c, true
	}
	if c, ok := input["new_string"].(string); ok {
		return c, true
	}
	return "", false
}

func bashCommand(input map[string]any) (string, bool) {
	v, ok := input["command"].(string)
	return v, ok && v != ""
}

func isEditLikeTool(toolName string) bool {
	switch toolName {
	case "Write", "Edit", "NotebookEdit":
		return true
	default:
		return false
	}
}

func isBashTool(toolName string) bool {
	return toolName == "Bash"
}

// isCreation reports whether a Write call targets a path not already
// tracked as read, edited, or created this session — the
// gap_detector's "unless the edit is a creation" carve-out.
func isCreation(s *state.State, path string) bool {
	return !s.HasRead(path) && !contains(s.FilesEdited, path) && !contains(s.FilesCreated, path)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func trimToLen(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "…"
}
