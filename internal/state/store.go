package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrStateCorrupt is returned by Load when the on-disk state file
// cannot be deserialized. Callers must fall back to a zero-state and
// log an evidence record (spec §4.1, §7).
var ErrStateCorrupt = errors.New("state: corrupt state file")

// ErrLockTimeout is returned when the project lock cannot be acquired
// within the bounded timeout (spec §4.1, §5 — degraded mode follows).
var ErrLockTimeout = errors.New("state: lock acquisition timeout")

// lockTimeout bounds how long Lock waits for the advisory lock
// before the caller must proceed in degraded (non-persisting) mode
// (spec §4.1: "approximately 2s").
const lockTimeout = 2 * time.Second

const (
	stateFileName = "state/session_state.json"
	lockFileName  = "state/session_state.lock"
)

func statePath(projectRoot string) string {
	return filepath.Join(projectRoot, ".claude", stateFileName)
}

func lockPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".claude", lockFileName)
}

// Store loads and saves State under an advisory file lock, one lock
// file per project (spec §4.1 Locking discipline).
type Store struct{}

// NewStore returns a Store. Store is stateless; all state lives on disk.
func NewStore() *Store { return &Store{} }

// Lock acquires the project lock for the duration of one event's
// processing (spec §4.1: "the composite runner acquires it for the
// entire event processing, so load and save are one critical
// section"). The returned release function must be called exactly
// once. If the lock cannot be acquired within lockTimeout, Lock
// returns ErrLockTimeout and the caller must proceed in degraded mode
// (spec §5 Suspension points).
func (st *Store) Lock(projectRoot string) (release func(), err error) {
	path := lockPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("state: create lock dir: %w", err)
	}

	fl := flock.New(path)
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil || !locked {
		return nil, ErrLockTimeout
	}
	return func() { _ = fl.Unlock() }, nil
}

// Load reads the project's state file. A missing file returns a fresh
// zero-state, never an error (spec §4.1). A corrupt file returns
// ErrStateCorrupt; the caller is responsible for falling back.
func (st *Store) Load(projectRoot string) (*State, error) {
	path := statePath(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(projectRoot), nil
		}
		return nil, fmt.Errorf("state: read %s: %w", path, err)
	}

	raw, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	var probe State
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}

	s := upgrade(raw)
	return s, nil
}

// Save serializes s to a temp file in the state directory and
// atomically renames it into place, so a concurrently cancelled
// process can never observe a partial write (spec §4.1, §5
// Cancellation).
func (st *Store) Save(projectRoot string, s *State) error {
	s.SchemaVersion = CurrentSchemaVersion

	path := statePath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("state: create state dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".session_state-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("state: rename into place: %w", err)
	}
	return nil
}

// decodeRaw unmarshals the schema-version envelope so upgrade() can
// dispatch on it without assuming the current struct shape.
func decodeRaw(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// upgrade applies in-memory schema migrations and returns a current
// State. Because CurrentSchemaVersion is 1 and this is the first
// released schema, upgrade is currently the identity transform plus a
// best-effort unmarshal; the migration table is where future schema
// bumps plug in (spec §4.1: "upgrades older schema versions in-memory
// only").
func upgrade(raw map[string]json.RawMessage) *State {
	full, err := json.Marshal(raw)
	if err != nil {
		return New("")
	}
	var s State
	if err := json.Unmarshal(full, &s); err != nil {
		return New("")
	}
	if s.EditCounts == nil {
		s.EditCounts = map[string]int{}
	}
	if s.EditHistory == nil {
		s.EditHistory = map[string]string{}
	}
	if s.LibrariesUsed == nil {
		s.LibrariesUsed = map[string]bool{}
	}
	if s.LibrariesResearched == nil {
		s.LibrariesResearched = map[string]bool{}
	}
	if s.OpsTurns == nil {
		s.OpsTurns = map[string]int{}
	}
	if s.ReducerTriggers == nil {
		s.ReducerTriggers = map[string]int{}
	}
	if s.IncreaserTriggers == nil {
		s.IncreaserTriggers = map[string]int{}
	}
	if s.NudgeHistory == nil {
		s.NudgeHistory = map[string]int{}
	}
	if s.ReducerFPCounts == nil {
		s.ReducerFPCounts = map[string]int{}
	}
	if s.ToolDebt == nil {
		s.ToolDebt = map[string]float64{}
	}
	if s.DiminishingCounters == nil {
		s.DiminishingCounters = map[string][]int{}
	}
	if s.ConsecutiveBlocks == nil {
		s.ConsecutiveBlocks = map[string]int{}
	}
	if s.ReducerFirings == nil {
		s.ReducerFirings = map[string]ReducerFiring{}
	}
	s.SchemaVersion = CurrentSchemaVersion
	return &s
}
