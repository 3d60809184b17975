package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DaemonRow is one line of the status table.
type DaemonRow struct {
	Role    string
	PID     int // 0 when there is no record
	Running bool
}

// State returns "running", "stopped" or "stale".
func (r DaemonRow) State() string {
	switch {
	case r.Running:
		return "running"
	case r.PID != 0:
		return "stale"
	default:
		return "stopped"
	}
}

// RenderDaemonTable renders one row per daemon with a colored state symbol.
func RenderDaemonTable(rows []DaemonRow) string {
	if len(rows) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-10s  %-8s  %s", "DAEMON", "STATE", "PID")))
	b.WriteString("\n")

	for _, row := range rows {
		var symbol string
		var color lipgloss.Color
		switch row.State() {
		case "running":
			symbol, color = SymbolRunning, ColorSuccess
		case "stale":
			symbol, color = SymbolStale, ColorWarning
		default:
			symbol, color = SymbolStopped, ColorMuted
		}

		pid := mutedStyle.Render("-")
		if row.PID != 0 {
			pid = fmt.Sprintf("%d", row.PID)
		}

		b.WriteString(fmt.Sprintf("%s %-10s  %-8s  %s\n",
			lipgloss.NewStyle().Foreground(color).Render(symbol),
			row.Role, row.State(), pid))
	}
	return b.String()
}
