package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rileyhilliard/hoststats/internal/config"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/registry"
	"github.com/rileyhilliard/hoststats/internal/supervisor"
	"github.com/spf13/cobra"
)

// spawner launches background daemons.
var spawner supervisor.Spawner = supervisor.ExecSpawner{}

// foregroundFunc runs a daemon in the current process until ctx is done.
type foregroundFunc func(ctx context.Context, cfg *config.Config, log logger.Logger) error

// daemonCommand dispatches a collector or dashboard invocation to stop,
// foreground run, or background start.
func daemonCommand(cmd *cobra.Command, role registry.Role, flags daemonFlags, run foregroundFunc) error {
	if err := flags.validate(); err != nil {
		return err
	}

	root, err := config.Root()
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.LoadOptions{Root: root, Flags: cmd.Flags()})
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{Debug: cfg.Debug, Name: role.String(), Output: cmd.OutOrStdout()})
	defer func() { _ = log.Sync() }()

	sup := supervisor.New(registry.New(root), spawner, log.Named("supervisor"))

	switch {
	case flags.stop:
		return stopDaemon(cmd.Context(), sup, role, flags.wait, log)
	case flags.interactive:
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, log)
	default:
		return startDaemon(sup, role, forwardedArgs(cmd.Flags()), log)
	}
}

func startDaemon(sup *supervisor.Supervisor, role registry.Role, args []string, log logger.Logger) error {
	log.Info("Starting %s daemon...", role)
	pid, err := sup.Start(role, args)
	if err != nil {
		return err
	}
	log.Info("Daemon started with PID %d", pid)
	return nil
}

// stopDaemon reports a missing daemon as an error message but not a
// failure: stopping something that is not running leaves the desired state.
func stopDaemon(ctx context.Context, sup *supervisor.Supervisor, role registry.Role, wait time.Duration, log logger.Logger) error {
	var (
		res registry.StopResult
		err error
	)
	if wait > 0 {
		res, err = sup.StopAndWait(ctx, role, wait)
	} else {
		res, err = sup.Stop(role)
	}
	if err != nil {
		return err
	}

	if res == registry.NotRunning {
		log.Error("%s daemon is not running", displayName(role))
		return nil
	}
	log.Info("%s daemon stopped", displayName(role))
	return nil
}

func displayName(role registry.Role) string {
	name := role.String()
	if name == "" {
		return name
	}
	return string(name[0]-'a'+'A') + name[1:]
}
