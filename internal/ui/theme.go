package ui

import (
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/lingo/internal/config"
)

// styles are the rendered forms of a config theme.
type styles struct {
	label    lipgloss.Style
	match    lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	warning  lipgloss.Style
	input    lipgloss.Style
}

func newStyles(th config.ThemeConfig, noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			label:    plain,
			match:    plain.Underline(true),
			selected: plain.Reverse(true),
			muted:    plain,
			warning:  plain.Bold(true),
			input:    plain.Border(lipgloss.NormalBorder()),
		}
	}
	color := func(v config.ColorValue) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(string(v)))
	}
	return styles{
		label: color(th.Label),
		match: color(th.Match).Bold(true),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(string(th.SelectedFG))).
			Background(lipgloss.Color(string(th.SelectedBG))),
		muted:   color(th.Muted),
		warning: color(th.Warning).Bold(true),
		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(string(th.Border))),
	}
}
