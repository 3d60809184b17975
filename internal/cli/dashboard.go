package cli

import (
	"context"

	"github.com/rileyhilliard/hoststats/internal/broadcast"
	"github.com/rileyhilliard/hoststats/internal/config"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/registry"
	"github.com/spf13/cobra"
)

var (
	dashboardFlags  daemonFlags
	dashboardListen string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the live viewer and relay samples to every viewer",
	Long: `Start the dashboard daemon. It serves the viewer page at / and relays
every stats_update event it receives on /ws to all other connected peers.
Prometheus metrics for the relay are exposed at /metrics.

Examples:
  hoststats dashboard                         # start in the background
  hoststats dashboard --interactive --debug   # run here, log every event
  hoststats dashboard --listen 0.0.0.0:8889
  hoststats dashboard --stop --wait 5s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemonCommand(cmd, registry.RoleDashboard, dashboardFlags, runDashboard)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	addDaemonFlags(dashboardCmd, &dashboardFlags)
	dashboardCmd.Flags().StringVar(&dashboardListen, "listen", config.DefaultListenAddr, "host:port to serve on")
}

func runDashboard(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	srv := broadcast.NewServer(broadcast.ServerOptions{
		Addr:         cfg.ListenAddr,
		QueueSize:    cfg.PeerQueueSize,
		WriteTimeout: cfg.PeerWriteTimeout,
		Logger:       log,
	})
	return srv.Run(ctx)
}
