package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/hoststats/internal/config"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/transport"
	"github.com/rileyhilliard/hoststats/internal/viewer"
	"github.com/spf13/cobra"
)

var watchDisplayHost string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live CPU and memory view in the terminal",
	Long: `Connect to the dashboard as a viewer and render incoming samples as
meters and sparklines. Reconnects automatically if the dashboard restarts.

Keys: q or esc to quit.

Examples:
  hoststats watch
  hoststats watch --display-host http://10.0.0.5:8889`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoadOptions{Flags: cmd.Flags()})
		if err != nil {
			return err
		}
		endpoint, err := transport.EndpointURL(cfg.DisplayHost)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return viewer.Run(ctx, viewer.Options{Endpoint: endpoint, Logger: logger.Noop()})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchDisplayHost, "display-host", config.DefaultDisplayHost, "dashboard base URL")
}
