package beadclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

func dirOf(path string) string {
	return filepath.Dir(path)
}

// ReleaseStatus enumerates how a claimed bead left an agent's hands.
type ReleaseStatus string

const (
	ReleasePending   ReleaseStatus = ""
	ReleaseCompleted ReleaseStatus = "completed"
	ReleaseAbandoned ReleaseStatus = "abandoned"
	ReleaseExpired   ReleaseStatus = "expired"
)

// Assignment is one line of the per-project assignment ledger (spec
// §3.4): "at most one un-released entry per bead_id per agent".
type Assignment struct {
	AssignmentID     string        `json:"assignment_id"`
	BeadID           string        `json:"bead_id"`
	AgentSessionID   string        `json:"agent_session_id"`
	ParentSessionID  string        `json:"parent_session_id,omitempty"`
	PromptSnippet    string        `json:"prompt_snippet,omitempty"`
	ClaimedAt        time.Time     `json:"claimed_at"`
	ExpectedDeadline *time.Time    `json:"expected_deadline,omitempty"`
	ReleasedAt       *time.Time    `json:"released_at,omitempty"`
	ReleaseStatus    ReleaseStatus `json:"release_status,omitempty"`
}

// Ledger is the append-only JSONL assignment file, guarded by an
// advisory lock (grounded on pkg/teams/task.go's per-resource flock
// discipline, generalized from per-task files to a single append-only
// log since the assignment ledger's invariant — one entry appended,
// rewritten only on release — fits an append log better than one file
// per bead).
type Ledger struct {
	path     string
	lockPath string
}

// NewLedger returns a Ledger backed by path (normally
// Context.AssignmentsFile()).
func NewLedger(path string) *Ledger {
	return &Ledger{path: path, lockPath: path + ".lock"}
}

// Claim appends a new un-released assignment for bead under sessionID.
// It fails if sessionID already has an un-released entry for bead
// (spec §3.4 invariant).
func (l *Ledger) Claim(beadID, sessionID, parentSessionID, promptSnippet string, deadline *time.Time, now time.Time) (Assignment, error) {
	release, err := l.lock()
	if err != nil {
		return Assignment{}, err
	}
	defer release()

	entries, err := l.readLocked()
	if err != nil {
		return Assignment{}, err
	}

	for _, e := range entries {
		if e.BeadID == beadID && e.AgentSessionID == sessionID && e.ReleaseStatus == ReleasePending {
			return Assignment{}, fmt.Errorf("bead %s already claimed by session %s", beadID, sessionID)
		}
	}

	a := Assignment{
		AssignmentID:     uuid.NewString(),
		BeadID:           beadID,
		AgentSessionID:   sessionID,
		ParentSessionID:  parentSessionID,
		PromptSnippet:    promptSnippet,
		ClaimedAt:        now,
		ExpectedDeadline: deadline,
	}
	if err := l.appendLocked(a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// Release marks the most recent un-released assignment for (bead,
// session) with status, rewriting the ledger in place.
func (l *Ledger) Release(beadID, sessionID string, status ReleaseStatus, now time.Time) error {
	release, err := l.lock()
	if err != nil {
		return err
	}
	defer release()

	entries, err := l.readLocked()
	if err != nil {
		return err
	}

	found := false
	for i := len(entries) - 1; i >= 0; i-- {
		e := &entries[i]
		if e.BeadID == beadID && e.AgentSessionID == sessionID && e.ReleaseStatus == ReleasePending {
			e.ReleasedAt = &now
			e.ReleaseStatus = status
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no pending assignment for bead %s session %s", beadID, sessionID)
	}
	return l.rewriteLocked(entries)
}

// Open returns every un-released assignment for sessionID.
func (l *Ledger) Open(sessionID string) ([]Assignment, error) {
	release, err := l.lock()
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := l.readLocked()
	if err != nil {
		return nil, err
	}
	var open []Assignment
	for _, e := range entries {
		if e.AgentSessionID == sessionID && e.ReleaseStatus == ReleasePending {
			open = append(open, e)
		}
	}
	return open, nil
}

func (l *Ledger) lock() (func(), error) {
	fl := flock.New(l.lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ok, err := fl.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil || !ok {
		return nil, fmt.Errorf("lock assignment ledger: %w", err)
	}
	return func() { fl.Unlock() }, nil
}

func (l *Ledger) readLocked() ([]Assignment, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open assignment ledger: %w", err)
	}
	defer f.Close()

	var out []Assignment
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var a Assignment
		if err := json.Unmarshal(line, &a); err != nil {
			continue // skip a corrupt line rather than fail the whole ledger
		}
		out = append(out, a)
	}
	return out, scanner.Err()
}

func (l *Ledger) appendLocked(a Assignment) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open assignment ledger for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assignment: %w", err)
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

func (l *Ledger) rewriteLocked(entries []Assignment) error {
	tmp, err := os.CreateTemp(dirOf(l.path), "assignments-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp assignment ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("marshal assignment: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}
