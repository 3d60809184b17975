package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/hoststats/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "hoststats",
	Short: "Stream host CPU and memory usage to a live dashboard",
	Long: `hoststats samples CPU and memory utilization with a collector daemon
and pushes every sample to a dashboard daemon, which relays it to every
connected browser or terminal viewer.

Examples:
  hoststats dashboard            # start the dashboard in the background
  hoststats collector            # start sampling in the background
  hoststats status               # see what is running
  hoststats watch                # live view in the terminal
  hoststats collector --stop     # stop the collector`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureColors(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// configureColors turns colors off for --no-color, NO_COLOR, or when the
// output is not a terminal.
func configureColors(w io.Writer) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isTerminal(w) {
		ui.DisableColors()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimRight(err.Error(), "\n"))
		os.Exit(1)
	}
}
