// Package registry persists one process ID per daemon role and answers
// liveness questions about it.
//
// A record is a file named <role>.pid in the registry directory. A missing
// file means the daemon is not running. A record whose process is gone is
// stale: readers treat it as not running, but it stays on disk until it is
// overwritten by the next start or removed by Terminate or Clear.
package registry

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/hoststats/internal/config"
	"github.com/rileyhilliard/hoststats/internal/errors"
)

// StopResult is the outcome of a stop request.
type StopResult int

const (
	// NotRunning means there was no live process to signal.
	NotRunning StopResult = iota
	// Stopped means a termination signal was delivered.
	Stopped
)

func (s StopResult) String() string {
	if s == Stopped {
		return "stopped"
	}
	return "not running"
}

// Status is a point-in-time view of one role.
type Status struct {
	Role    Role
	PID     int // 0 when no record exists
	Running bool
}

// Registry stores daemon records under a single directory.
type Registry struct {
	dir string

	// pollInterval is how often Terminate re-checks liveness.
	pollInterval time.Duration
	// killWait bounds the wait after SIGKILL.
	killWait time.Duration
}

// New returns a registry rooted at dir. The directory is created on first write.
func New(dir string) *Registry {
	return &Registry{
		dir:          dir,
		pollInterval: 100 * time.Millisecond,
		killWait:     2 * time.Second,
	}
}

// Default returns a registry rooted at the hoststats config directory.
func Default() (*Registry, error) {
	root, err := config.Root()
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

// Dir returns the registry directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Path returns the record file for a role.
func (r *Registry) Path(role Role) string {
	return filepath.Join(r.dir, role.pidFileName())
}

// GetPID reads the record for role. ok is false when no record exists.
// Liveness is not checked.
func (r *Registry) GetPID(role Role) (pid int, ok bool, err error) {
	data, err := os.ReadFile(r.Path(role))
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, errors.WrapWithCode(err, errors.ErrRegistry,
			fmt.Sprintf("Failed to read %s pid file", role),
			"Check permissions on "+r.dir)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, false, nil
	}
	pid, err = strconv.Atoi(value)
	if err != nil {
		return 0, false, errors.WrapWithCode(err, errors.ErrRegistry,
			fmt.Sprintf("Malformed %s pid file %s", role, r.Path(role)),
			"Delete the file; it will be recreated on the next start")
	}
	return pid, true, nil
}

// WritePID records pid for role, replacing any previous record.
func (r *Registry) WritePID(role Role, pid int) error {
	if !role.Valid() {
		return errors.New(errors.ErrRegistry,
			fmt.Sprintf("Cannot record a pid for unknown %s", role),
			"Valid roles are: collector, dashboard")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrRegistry,
			"Failed to create "+r.dir,
			"Check permissions on the parent directory")
	}
	if err := os.WriteFile(r.Path(role), []byte(fmt.Sprintf("%d\n", pid)), 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrRegistry,
			fmt.Sprintf("Failed to write %s pid file", role),
			"Check permissions on "+r.dir)
	}
	return nil
}

// Clear removes the record for role. A missing record is not an error.
func (r *Registry) Clear(role Role) error {
	if err := os.Remove(r.Path(role)); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.WrapWithCode(err, errors.ErrRegistry,
			fmt.Sprintf("Failed to remove %s pid file", role), "")
	}
	return nil
}

// IsAlive reports whether a process with this pid exists and can be signaled.
func (r *Registry) IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return probe(pid) == nil
}

// Lookup returns the record and liveness for role.
func (r *Registry) Lookup(role Role) (Status, error) {
	pid, ok, err := r.GetPID(role)
	if err != nil {
		return Status{Role: role}, err
	}
	if !ok {
		return Status{Role: role}, nil
	}
	return Status{Role: role, PID: pid, Running: r.IsAlive(pid)}, nil
}

// Stop sends SIGTERM to the recorded process. It neither waits for the
// process to exit nor removes the record.
func (r *Registry) Stop(role Role) (StopResult, error) {
	st, err := r.Lookup(role)
	if err != nil {
		return NotRunning, err
	}
	if !st.Running {
		return NotRunning, nil
	}
	if err := terminate(st.PID); err != nil {
		if !r.IsAlive(st.PID) {
			return NotRunning, nil
		}
		return NotRunning, errors.WrapWithCode(err, errors.ErrRegistry,
			fmt.Sprintf("Failed to signal %s (pid %d)", role, st.PID), "")
	}
	return Stopped, nil
}

// Terminate stops the recorded process and waits for it to exit. It sends
// SIGTERM, waits up to grace, then SIGKILL and waits briefly again. The
// record is removed once the process is confirmed gone.
func (r *Registry) Terminate(ctx context.Context, role Role, grace time.Duration) (StopResult, error) {
	st, err := r.Lookup(role)
	if err != nil {
		return NotRunning, err
	}
	if !st.Running {
		return NotRunning, nil
	}

	if err := terminate(st.PID); err != nil && r.IsAlive(st.PID) {
		return NotRunning, errors.WrapWithCode(err, errors.ErrRegistry,
			fmt.Sprintf("Failed to signal %s (pid %d)", role, st.PID), "")
	}
	if r.waitForExit(ctx, st.PID, grace) {
		return Stopped, r.Clear(role)
	}
	if ctx.Err() != nil {
		return Stopped, ctx.Err()
	}

	if err := kill(st.PID); err != nil && r.IsAlive(st.PID) {
		return Stopped, errors.WrapWithCode(err, errors.ErrRegistry,
			fmt.Sprintf("Failed to kill %s (pid %d)", role, st.PID), "")
	}
	if r.waitForExit(ctx, st.PID, r.killWait) {
		return Stopped, r.Clear(role)
	}
	return Stopped, errors.New(errors.ErrRegistry,
		fmt.Sprintf("%s (pid %d) did not exit after SIGKILL", role, st.PID),
		"Check the process manually")
}

func (r *Registry) waitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !r.IsAlive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(r.pollInterval):
		}
	}
}
