package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/hoststats/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// daemonFlags are shared by the collector and dashboard commands.
type daemonFlags struct {
	debug       bool
	interactive bool
	stop        bool
	wait        time.Duration
}

// addDaemonFlags registers --debug, --interactive, --stop and --wait.
func addDaemonFlags(cmd *cobra.Command, f *daemonFlags) {
	cmd.Flags().BoolVar(&f.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "run in the foreground instead of as a daemon")
	cmd.Flags().BoolVar(&f.stop, "stop", false, "stop the running daemon")
	cmd.Flags().DurationVar(&f.wait, "wait", 0, "with --stop, wait up to this long for exit before force-killing")
}

func (f daemonFlags) validate() error {
	if f.interactive && f.stop {
		return errors.New(errors.ErrConfig,
			"--interactive and --stop cannot be used together",
			"Use --interactive to run in the foreground, or --stop to stop the daemon.")
	}
	if f.wait < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--wait must not be negative, got %s", f.wait),
			"Try something like --wait 5s")
	}
	if f.wait > 0 && !f.stop {
		return errors.New(errors.ErrConfig,
			"--wait only applies to --stop",
			"Run: hoststats <daemon> --stop --wait 5s")
	}
	return nil
}

// localOnlyFlags control this invocation and are never forwarded.
var localOnlyFlags = map[string]bool{
	"interactive": true,
	"stop":        true,
	"wait":        true,
	"no-color":    true,
	"help":        true,
}

// forwardedArgs renders every explicitly set flag as --name=value so the
// background process sees the same settings.
func forwardedArgs(fs *pflag.FlagSet) []string {
	var args []string
	fs.Visit(func(f *pflag.Flag) {
		if localOnlyFlags[f.Name] {
			return
		}
		args = append(args, fmt.Sprintf("--%s=%s", f.Name, f.Value.String()))
	})
	return args
}
