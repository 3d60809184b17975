package cli

import (
	"fmt"
	"io"

	"github.com/rileyhilliard/hoststats/internal/config"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/registry"
	"github.com/rileyhilliard/hoststats/internal/supervisor"
	"github.com/rileyhilliard/hoststats/internal/ui"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which daemons are running",
	Long: `Show the recorded PID of each daemon and whether that process is alive.

A record whose process is gone is reported as stale; the next start
replaces it.

Examples:
  hoststats status
  hoststats status --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(cmd.OutOrStdout(), statusJSON)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

// DaemonStatus is one entry of the status --json output.
type DaemonStatus struct {
	Name    string `json:"name"`
	PID     int    `json:"pid,omitempty"`
	Running bool   `json:"running"`
	State   string `json:"state"`
}

// StatusOutput is the data payload of status --json.
type StatusOutput struct {
	Home    string         `json:"home"`
	Daemons []DaemonStatus `json:"daemons"`
}

func statusCommand(w io.Writer, asJSON bool) error {
	root, err := config.Root()
	if err != nil {
		return statusFailure(w, asJSON, err)
	}

	reg := registry.New(root)
	sup := supervisor.New(reg, nil, logger.Noop())
	statuses, err := sup.Status()
	if err != nil {
		return statusFailure(w, asJSON, err)
	}

	rows := make([]ui.DaemonRow, 0, len(statuses))
	out := StatusOutput{Home: reg.Dir()}
	for _, st := range statuses {
		row := ui.DaemonRow{Role: st.Role.String(), PID: st.PID, Running: st.Running}
		rows = append(rows, row)
		out.Daemons = append(out.Daemons, DaemonStatus{
			Name:    row.Role,
			PID:     row.PID,
			Running: row.Running,
			State:   row.State(),
		})
	}

	if asJSON {
		return WriteJSONSuccess(w, out)
	}
	fmt.Fprint(w, ui.RenderDaemonTable(rows))
	return nil
}

func statusFailure(w io.Writer, asJSON bool, err error) error {
	if asJSON {
		if werr := WriteJSONFromError(w, err); werr != nil {
			return werr
		}
	}
	return err
}
