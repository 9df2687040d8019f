// Package hookconfig loads config/hook_settings.json and resolves
// per-check overrides from it and from environment variables (spec
// §6 External Interfaces: Configuration).
package hookconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config is the mtime-cached view of hook_settings.json. Values are
// untyped at load time; callers ask for the shape they expect.
type Config struct {
	path string

	mu       sync.Mutex
	loadedAt time.Time
	modTime  time.Time
	values   map[string]any
}

// New returns a Config reading path on first use (spec §6: "loaded on
// first use with mtime-invalidated cache").
func New(path string) *Config {
	return &Config{path: path}
}

// reload re-reads the settings file if its mtime has advanced since the
// last load, or if nothing has been loaded yet. A missing file is not
// an error: it resolves to an empty settings map.
func (c *Config) reload() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.values = map[string]any{}
			c.modTime = time.Time{}
			return nil
		}
		return fmt.Errorf("stat hook settings %s: %w", c.path, err)
	}

	if c.values != nil && !info.ModTime().After(c.modTime) {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read hook settings %s: %w", c.path, err)
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse hook settings %s: %w", c.path, err)
	}

	c.values = values
	c.modTime = info.ModTime()
	c.loadedAt = time.Now()
	return nil
}

func (c *Config) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.reload(); err != nil {
		// Configuration is advisory; a bad settings file should never
		// block a hook from running with defaults.
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}

// CooldownSeconds returns `cooldown.<name>` if set, else def (spec §6).
func (c *Config) CooldownSeconds(name string, def int) int {
	v, ok := c.get("cooldown." + name)
	if !ok {
		return def
	}
	n, ok := toInt(v)
	if !ok {
		return def
	}
	return n
}

// Threshold returns `threshold.<name>` if set, else def (spec §6).
func (c *Config) Threshold(name string, def int) int {
	v, ok := c.get("threshold." + name)
	if !ok {
		return def
	}
	n, ok := toInt(v)
	if !ok {
		return def
	}
	return n
}

// MagicNumber returns the raw `magic_number.<name>` value, or nil if
// unset (spec §6: "any check-specific scalar").
func (c *Config) MagicNumber(name string) (any, bool) {
	return c.get("magic_number." + name)
}

// RolloutPhase returns `rollout_phase` (0-4), defaulting to 0 (spec §6:
// "gates advanced mastermind behavior").
func (c *Config) RolloutPhase() int {
	v, ok := c.get("rollout_phase")
	if !ok {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 4 {
		return 4
	}
	return n
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// LogLevel identifies the CLAUDE_HOOK_LOG_LEVEL granularity (spec §6).
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// EnvLogLevel reads CLAUDE_HOOK_LOG_LEVEL, defaulting to info.
func EnvLogLevel() LogLevel {
	switch strings.ToLower(os.Getenv("CLAUDE_HOOK_LOG_LEVEL")) {
	case "debug":
		return LogDebug
	case "warn":
		return LogWarn
	case "error":
		return LogError
	default:
		return LogInfo
	}
}

// EnvProjectRootOverride reads CLAUDE_PROJECT_ROOT (spec §6); empty
// string means "no override".
func EnvProjectRootOverride() string {
	return os.Getenv("CLAUDE_PROJECT_ROOT")
}

// EnvSessionID reads CLAUDE_SESSION_ID, propagated into bead
// assignments (spec §6).
func EnvSessionID() string {
	return os.Getenv("CLAUDE_SESSION_ID")
}

// CheckDisabled reports whether CLAUDE_HOOK_DISABLE_<NAME>=1 is set for
// the given check name (spec §6). Name comparison is case-insensitive
// and normalizes to upper snake case to match shell env var
// conventions.
func CheckDisabled(checkName string) bool {
	envName := "CLAUDE_HOOK_DISABLE_" + strings.ToUpper(strings.ReplaceAll(checkName, "-", "_"))
	return os.Getenv(envName) == "1"
}
