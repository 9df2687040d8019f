// Package diagnostics provides the append-only NDJSON debug log each
// runner invocation writes to, gated by CLAUDE_HOOK_LOG_LEVEL (spec
// §6, §7). Grounded on the teacher's stdlib `log` usage throughout
// pkg/prompt and pkg/hooks — no third-party structured logger is wired
// since the teacher never reaches for one (see DESIGN.md).
package diagnostics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/antigravity-dev/hookrunner/internal/hookconfig"
)

var levelRank = map[hookconfig.LogLevel]int{
	hookconfig.LogDebug: 0,
	hookconfig.LogInfo:  1,
	hookconfig.LogWarn:  2,
	hookconfig.LogError: 3,
}

// Logger appends NDJSON lines to a per-project debug log file. It is
// safe only within a single process; cross-process append ordering is
// not guaranteed beyond what the OS gives O_APPEND writes (acceptable
// here since log lines are independently valid JSON and never read
// back for anything but human debugging).
type Logger struct {
	mu    sync.Mutex
	f     *os.File
	level hookconfig.LogLevel
}

// Open opens (creating if necessary) the NDJSON log file at path at the
// level read from CLAUDE_HOOK_LOG_LEVEL. A nil *Logger from a failed
// open is never fatal: every method, Close included, is a no-op on a
// nil receiver.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics log %s: %w", path, err)
	}
	return &Logger{f: f, level: hookconfig.EnvLogLevel()}, nil
}

// Close closes the underlying file. Safe to call on a nil Logger.
func (l *Logger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}

type record struct {
	Time  string `json:"time"`
	Level string `json:"level"`
	Msg    string `json:"msg"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (l *Logger) log(level hookconfig.LogLevel, msg string, fields map[string]any) {
	if l == nil || l.f == nil {
		return
	}
	if levelRank[level] < levelRank[l.level] {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := record{
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
		Level:  string(level),
		Msg:    msg,
		Fields: fields,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return // logging must never panic or propagate an error upward
	}
	l.f.Write(append(data, '\n'))
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.log(hookconfig.LogDebug, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(hookconfig.LogInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(hookconfig.LogWarn, msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.log(hookconfig.LogError, msg, fields) }
