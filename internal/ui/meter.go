package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters, lowest to highest.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

const (
	meterFilled = '█'
	meterEmpty  = '░'
)

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// RenderSparkline draws the most recent width values on a fixed 0-100
// scale, so a flat 5% line looks low rather than mid-height. The line is
// colored by the last value.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	top := len(sparkBlocks) - 1
	var sb strings.Builder
	for _, v := range values {
		level := int(clampPercent(v) / 100 * float64(top))
		sb.WriteRune(sparkBlocks[level])
	}

	last := values[len(values)-1]
	return lipgloss.NewStyle().Foreground(thresholdColor(last)).Render(sb.String())
}

// RenderMeter draws a bar of the given width followed by the percentage,
// e.g. "████████░░░░  67.0%". Out of range values are clamped for the bar
// but printed as reported.
func RenderMeter(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(clampPercent(percent) / 100 * float64(width))
	bar := strings.Repeat(string(meterFilled), filled) + strings.Repeat(string(meterEmpty), width-filled)

	style := lipgloss.NewStyle().Foreground(thresholdColor(percent))
	return style.Render(bar) + fmt.Sprintf(" %5.1f%%", percent)
}
