// Package cooldown implements the file-backed keyed TTL map shared
// across invocations described in spec §4.6 / §3.3. Each hook
// invocation is a fresh process, so cooldown state must be durable on
// disk, locked the same way the session state is (gofrs/flock,
// grounded on pkg/session/writer.go's per-file lock pattern in the
// teacher repo).
package cooldown

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Entry is a single cooldown timer (spec §3.3).
type Entry struct {
	UntilUnixNano      int64   `json:"until_unix_nano"`
	FPStretchMultiplier float64 `json:"fp_stretch_multiplier"`
}

// Store is a file-locked map of cooldown keys to Entry.
type Store struct {
	path     string
	lockPath string
}

const (
	cooldownFileName = "state/cooldowns.json"
	cooldownLockName = "state/cooldowns.lock"
	lockWait          = 2 * time.Second
)

// NewStore returns a Store rooted at the given project.
func NewStore(projectRoot string) *Store {
	return &Store{
		path:     filepath.Join(projectRoot, ".claude", cooldownFileName),
		lockPath: filepath.Join(projectRoot, ".claude", cooldownLockName),
	}
}

// key joins a check/reducer name with an optional subkey (spec §3.3:
// "Keyed by (check_name, optional_subkey)").
func key(name, subkey string) string {
	if subkey == "" {
		return name
	}
	return name + "\x00" + subkey
}

// IsOnCooldown reports whether now is still before the entry's expiry
// for (name, subkey). A missing entry is never on cooldown.
func (s *Store) IsOnCooldown(name, subkey string, now time.Time) (bool, error) {
	m, release, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	defer release()

	e, ok := m[key(name, subkey)]
	if !ok {
		return false, nil
	}
	return now.UnixNano() < e.UntilUnixNano, nil
}

// SetCooldown writes a new expiry for (name, subkey), seconds from now,
// stretched by the given false-positive multiplier (spec §4.6, §4.2).
func (s *Store) SetCooldown(name, subkey string, seconds float64, fpStretch float64, now time.Time) error {
	m, release, err := s.loadLocked()
	if err != nil {
		return err
	}
	defer release()

	until := now.Add(time.Duration(seconds*fpStretch) * time.Second)
	m[key(name, subkey)] = Entry{UntilUnixNano: until.UnixNano(), FPStretchMultiplier: fpStretch}
	return s.saveLocked(m)
}

// ResetCooldown clears an entry (spec §4.6).
func (s *Store) ResetCooldown(name, subkey string) error {
	m, release, err := s.loadLocked()
	if err != nil {
		return err
	}
	defer release()

	delete(m, key(name, subkey))
	return s.saveLocked(m)
}

// loadLocked acquires the cooldown lock and reads the current map.
// The returned release function must be deferred and unlocks after the
// caller's subsequent saveLocked (or read-only use) completes.
func (s *Store) loadLocked() (map[string]Entry, func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("cooldown: create dir: %w", err)
	}

	fl := flock.New(s.lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil || !locked {
		return nil, nil, fmt.Errorf("cooldown: lock timeout")
	}
	release := func() { _ = fl.Unlock() }

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Entry{}, release, nil
		}
		release()
		return nil, nil, fmt.Errorf("cooldown: read: %w", err)
	}

	var m map[string]Entry
	if err := json.Unmarshal(data, &m); err != nil {
		// Corrupt cooldown file is never fatal — start fresh (spec §7).
		return map[string]Entry{}, release, nil
	}
	if m == nil {
		m = map[string]Entry{}
	}
	return m, release, nil
}

func (s *Store) saveLocked(m map[string]Entry) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("cooldown: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cooldowns-*.tmp")
	if err != nil {
		return fmt.Errorf("cooldown: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cooldown: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cooldown: close temp: %w", err)
	}
	return os.Rename(tmpPath, s.path)
}
