package presentation

import "github.com/charmbracelet/lipgloss"

var (
	headerColor  = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6C6F85", Dark: "#A6ADC8"}
	pendingColor = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"}
	successColor = lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"}
)

// styles are bound to a renderer so that color is only emitted when the
// destination writer is a terminal.
type styles struct {
	header  lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	pending lipgloss.Style
	err     lipgloss.Style
	ok      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(headerColor),
		label:   r.NewStyle().Foreground(mutedColor),
		muted:   r.NewStyle().Foreground(mutedColor),
		pending: r.NewStyle().Foreground(pendingColor).Italic(true),
		err:     r.NewStyle().Foreground(errorColor),
		ok:      r.NewStyle().Foreground(successColor),
	}
}
