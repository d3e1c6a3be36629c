package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kijani/sentinel/internal/threat"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#30A46C"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8B8D98"))

	messageStyle = lipgloss.NewStyle().
			Width(52)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30A46C")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#F5D90A"))
)

// palette maps status colors to terminal colors. Unknown colors render
// neutral.
var palette = map[threat.Color]lipgloss.Color{
	threat.ColorRed:     lipgloss.Color("#E5484D"),
	threat.ColorYellow:  lipgloss.Color("#F5D90A"),
	threat.ColorGreen:   lipgloss.Color("#30A46C"),
	threat.ColorNeutral: lipgloss.Color("#8B8D98"),
}

func colorOf(c threat.Color) lipgloss.Color {
	if lc, ok := palette[c]; ok {
		return lc
	}
	return palette[threat.ColorNeutral]
}

func cardStyle(c threat.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorOf(c)).
		Padding(1, 2)
}

func scoreStyle(c threat.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(colorOf(c))
}
