package cli

import "github.com/charmbracelet/lipgloss"

// Adaptive colors for light and dark terminals.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Semantic styles for CLI output.
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleHint    = lipgloss.NewStyle().Foreground(colorDim)
)

// Session status badge styles.
var (
	badgePending   = lipgloss.NewStyle().Foreground(colorYellow)
	badgeRunning   = lipgloss.NewStyle().Foreground(colorCyan)
	badgeSucceeded = lipgloss.NewStyle().Foreground(colorGreen)
	badgeFailed    = lipgloss.NewStyle().Foreground(colorRed)
	badgeUnknown   = lipgloss.NewStyle().Foreground(colorDim)
)

func statusBadge(status string) string {
	switch status {
	case "Pending":
		return badgePending.Render(status)
	case "Running":
		return badgeRunning.Render(status)
	case "Succeeded":
		return badgeSucceeded.Render(status)
	case "Failed":
		return badgeFailed.Render(status)
	default:
		return badgeUnknown.Render(status)
	}
}
