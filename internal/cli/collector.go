package cli

import (
	"context"

	"github.com/rileyhilliard/hoststats/internal/config"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/metrics"
	"github.com/rileyhilliard/hoststats/internal/publisher"
	"github.com/rileyhilliard/hoststats/internal/registry"
	"github.com/rileyhilliard/hoststats/internal/sampler"
	"github.com/rileyhilliard/hoststats/internal/transport"
	"github.com/spf13/cobra"
)

var (
	collectorFlags        daemonFlags
	collectorNoEmit       bool
	collectorDisplayHost  string
	collectorSleepSeconds int
)

var collectorCmd = &cobra.Command{
	Use:   "collector",
	Short: "Sample CPU and memory usage and push it to the dashboard",
	Long: `Start the collector daemon. It samples CPU and memory utilization every
sleep_seconds and pushes each sample to the dashboard at display_host.

The collector keeps retrying once per second until the dashboard accepts
the connection. Samples taken while disconnected are dropped.

Examples:
  hoststats collector                          # start in the background
  hoststats collector --interactive --debug    # run here, log every sample
  hoststats collector --display-host http://10.0.0.5:8889
  hoststats collector --stop`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemonCommand(cmd, registry.RoleCollector, collectorFlags,
			func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
				return runCollector(ctx, cfg, log, collectorRun{
					Emit:   !collectorNoEmit,
					Source: metrics.NewHostSource(),
				})
			})
	},
}

func init() {
	rootCmd.AddCommand(collectorCmd)
	addDaemonFlags(collectorCmd, &collectorFlags)
	collectorCmd.Flags().BoolVar(&collectorNoEmit, "no-emit", false, "sample and log only, never connect to the dashboard")
	collectorCmd.Flags().StringVar(&collectorDisplayHost, "display-host", config.DefaultDisplayHost, "dashboard base URL")
	collectorCmd.Flags().IntVar(&collectorSleepSeconds, "sleep-seconds", config.DefaultSleepSeconds, "seconds between samples")
}

// collectorRun holds the collaborators of a foreground collector.
type collectorRun struct {
	Emit   bool
	Source metrics.Source
	// Dial and Policy default to transport.Dial and the 1s retry policy.
	Dial   transport.Dialer
	Policy publisher.RetryPolicy
}

// runCollector connects to the dashboard and then samples until ctx is done.
func runCollector(ctx context.Context, cfg *config.Config, log logger.Logger, opts collectorRun) error {
	endpoint, err := transport.EndpointURL(cfg.DisplayHost)
	if err != nil {
		return err
	}
	if opts.Policy.Backoff == 0 {
		opts.Policy = publisher.DefaultRetryPolicy()
	}

	pub := publisher.New(publisher.Options{
		Endpoint: endpoint,
		Enabled:  opts.Emit,
		Policy:   opts.Policy,
		Dial:     opts.Dial,
		Logger:   log.Named("publisher"),
	})
	defer pub.Close()

	if _, err := pub.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	s := sampler.New(opts.Source, cfg.SleepPeriod(), log.Named("sampler"))
	log.Debug("sampling every %s", s.Period())
	return s.Run(ctx, pub.Publish)
}
