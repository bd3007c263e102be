package main

import (
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha, the subset the CLI renders with.
const (
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
)

const (
	colorAccent  = colorMauve
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorLavender).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	dimStyle     = lipgloss.NewStyle().Foreground(colorSubtext0)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorOverlay0)
	borderStyle  = lipgloss.NewStyle().Foreground(colorSurface1)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	amountStyle  = lipgloss.NewStyle().Foreground(colorPeach)
	idStyle      = lipgloss.NewStyle().Foreground(colorBlue)
)

// scoreColor grades a similarity: review threshold and above is green, the
// acceptance band below it yellow, anything lower red.
func scoreColor(score, matchThreshold, reviewThreshold int) lipgloss.Color {
	switch {
	case score >= reviewThreshold:
		return colorSuccess
	case score >= matchThreshold:
		return colorWarning
	default:
		return colorError
	}
}
