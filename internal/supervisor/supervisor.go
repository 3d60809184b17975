// Package supervisor starts, stops and reports on the hoststats daemons.
// It is the only writer of new registry records.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/hoststats/internal/errors"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/registry"
)

// Spawner launches a daemon for role in the background and returns its pid.
type Spawner interface {
	Spawn(role registry.Role, args []string) (int, error)
}

// Supervisor couples the registry with a Spawner.
type Supervisor struct {
	reg     *registry.Registry
	spawner Spawner
	log     logger.Logger
}

// New creates a Supervisor.
func New(reg *registry.Registry, spawner Spawner, log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.Noop()
	}
	return &Supervisor{reg: reg, spawner: spawner, log: log}
}

// Start launches role unless a live instance is already recorded. args are
// forwarded to the background process.
func (s *Supervisor) Start(role registry.Role, args []string) (int, error) {
	st, err := s.reg.Lookup(role)
	if err != nil {
		return 0, err
	}
	if st.Running {
		return st.PID, errors.New(errors.ErrAlreadyRunning,
			fmt.Sprintf("%s is already running with PID %d", role, st.PID),
			fmt.Sprintf("Stop it first: hoststats %s --stop", role))
	}
	if st.PID != 0 {
		s.log.Debug("replacing stale %s record for pid %d", role, st.PID)
	}

	pid, err := s.spawner.Spawn(role, args)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrSpawn,
			fmt.Sprintf("Failed to start %s", role),
			fmt.Sprintf("Try running it in the foreground: hoststats %s --interactive --debug", role))
	}
	if err := s.reg.WritePID(role, pid); err != nil {
		return pid, err
	}
	s.log.Debug("%s spawned with pid %d", role, pid)
	return pid, nil
}

// Stop signals role to terminate without waiting.
func (s *Supervisor) Stop(role registry.Role) (registry.StopResult, error) {
	return s.reg.Stop(role)
}

// StopAndWait signals role and waits up to grace before force-killing it.
func (s *Supervisor) StopAndWait(ctx context.Context, role registry.Role, grace time.Duration) (registry.StopResult, error) {
	return s.reg.Terminate(ctx, role, grace)
}

// Status reports every role in fixed order. It never modifies records.
func (s *Supervisor) Status() ([]registry.Status, error) {
	roles := registry.Roles()
	out := make([]registry.Status, 0, len(roles))
	for _, role := range roles {
		st, err := s.reg.Lookup(role)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
