// Package beadclient wraps the external `bd` task-tracker CLI with a
// per-invocation cache (spec §4.7) and implements the per-project
// assignment ledger directly (spec §3.4), since the ledger's shape is
// owned by this tool, not the tracker.
package beadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// callTimeout bounds every subprocess invocation (spec §5: "Subprocess
// calls to the task-tracker and git (bounded ≤2 s; non-fatal on
// timeout)").
const callTimeout = 2 * time.Second

// Bead mirrors the subset of `bd show`/`bd list` JSON this tool reads.
type Bead struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Status    string   `json:"status"`
	Priority  int      `json:"priority"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// Client is a thin, cached wrapper over the `bd` CLI binary. A Client
// is scoped to one hook invocation: its cache starts empty and is
// never persisted, matching spec §4.7 ("each runner process starts
// with an empty cache").
type Client struct {
	binary     string
	projectDir string

	cache map[string]cacheEntry
}

type cacheEntry struct {
	beads []Bead
	err   error
}

// New returns a Client that shells out to binary (normally "bd") with
// projectDir as its working directory.
func New(binary, projectDir string) *Client {
	if binary == "" {
		binary = "bd"
	}
	return &Client{binary: binary, projectDir: projectDir, cache: map[string]cacheEntry{}}
}

// run executes the bd CLI with args, decoding stdout as JSON into out.
// Task tracking is advisory: run never panics and every caller is
// expected to treat its error as non-fatal (spec §4.7: "failures are
// logged and never escalate").
func (c *Client) run(args []string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = c.projectDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("bd %v: %w (stderr: %s)", args, err, stderr.String())
	}
	if out == nil {
		return nil
	}
	if stdout.Len() == 0 {
		return nil
	}
	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return fmt.Errorf("decode bd %v output: %w", args, err)
	}
	return nil
}

func (c *Client) cacheKey(op string, parts ...string) string {
	key := op
	for _, p := range parts {
		key += "\x00" + p
	}
	return key
}

// List returns beads matching status ("" for all), cached per
// invocation (spec §4.7 `list(status)`).
func (c *Client) List(status string) ([]Bead, error) {
	key := c.cacheKey("list", status)
	if e, ok := c.cache[key]; ok {
		return e.beads, e.err
	}

	args := []string{"list", "--json"}
	if status != "" {
		args = append(args, "--status", status)
	}
	var beads []Bead
	err := c.run(args, &beads)
	c.cache[key] = cacheEntry{beads: beads, err: err}
	return beads, err
}

// Show returns a single bead by id (spec §4.7 `show(id)`).
func (c *Client) Show(id string) (Bead, error) {
	key := c.cacheKey("show", id)
	if e, ok := c.cache[key]; ok {
		if len(e.beads) == 0 {
			return Bead{}, e.err
		}
		return e.beads[0], e.err
	}

	var bead Bead
	err := c.run([]string{"show", id, "--json"}, &bead)
	entry := cacheEntry{err: err}
	if err == nil {
		entry.beads = []Bead{bead}
	}
	c.cache[key] = entry
	return bead, err
}

// Ready returns up to limit beads that are unblocked and unclaimed
// (spec §4.7 `ready(limit)`).
func (c *Client) Ready(limit int) ([]Bead, error) {
	key := c.cacheKey("ready", fmt.Sprint(limit))
	if e, ok := c.cache[key]; ok {
		return e.beads, e.err
	}

	args := []string{"ready", "--json"}
	if limit > 0 {
		args = append(args, "--limit", fmt.Sprint(limit))
	}
	var beads []Bead
	err := c.run(args, &beads)
	c.cache[key] = cacheEntry{beads: beads, err: err}
	return beads, err
}

// Blocked returns beads whose dependencies are not all resolved (spec
// §4.7 `blocked()`).
func (c *Client) Blocked() ([]Bead, error) {
	key := c.cacheKey("blocked")
	if e, ok := c.cache[key]; ok {
		return e.beads, e.err
	}

	var beads []Bead
	err := c.run([]string{"blocked", "--json"}, &beads)
	c.cache[key] = cacheEntry{beads: beads, err: err}
	return beads, err
}

// Create opens a new bead (spec §4.7 `create(title, type, priority)`).
// Creation mutates tracker state, so it is never cached.
func (c *Client) Create(title, beadType string, priority int) (Bead, error) {
	var bead Bead
	err := c.run([]string{
		"create", title,
		"--type", beadType,
		"--priority", fmt.Sprint(priority),
		"--json",
	}, &bead)
	return bead, err
}

// Update changes a bead's status (spec §4.7 `update(id, status)`).
func (c *Client) Update(id, status string) error {
	return c.run([]string{"update", id, "--status", status}, nil)
}

// Close marks a bead closed (spec §4.7 `close(id)`).
func (c *Client) Close(id string) error {
	return c.run([]string{"close", id}, nil)
}

// Claim assigns a bead to sessionID (spec §4.7 `claim(id, session_id, …)`).
func (c *Client) Claim(id, sessionID string) error {
	return c.run([]string{"claim", id, "--session", sessionID}, nil)
}

// Release gives up a claimed bead, recording status ("completed",
// "abandoned", …) (spec §4.7 `release(id, session_id, status)`).
func (c *Client) Release(id, sessionID, status string) error {
	return c.run([]string{"release", id, "--session", sessionID, "--status", status}, nil)
}
