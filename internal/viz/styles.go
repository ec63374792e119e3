package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func headerStyle() lipgloss.Style { return fg(CurrentTheme.Primary).Bold(true).MarginBottom(1) }

func labelStyle() lipgloss.Style { return fg(CurrentTheme.Muted).Width(8) }

func valueStyle() lipgloss.Style { return fg(CurrentTheme.Text) }

func graphStyle() lipgloss.Style { return fg(CurrentTheme.Accent).Padding(1, 0) }

func helpStyle() lipgloss.Style { return fg(CurrentTheme.Muted).MarginTop(1) }

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(64)
)

// StrokeBar renders a piston ratio in [0, 1] as a bar. The colour warns
// when the piston closes in on either end stop.
func StrokeBar(ratio float64, width int) string {
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case ratio < 0.1 || ratio > 0.9:
		return fg(CurrentTheme.Error).Render(bar)
	case ratio < 0.25 || ratio > 0.75:
		return fg(CurrentTheme.Warning).Render(bar)
	default:
		return fg(CurrentTheme.Success).Render(bar)
	}
}

// Sparkline renders the last width values on an eight-level scale.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}
