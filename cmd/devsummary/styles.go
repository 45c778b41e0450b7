package main

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan     = lipgloss.Color("#00FFFF")
	colorGreen    = lipgloss.Color("#00FF00")
	colorRed      = lipgloss.Color("#FF0000")
	colorYellow   = lipgloss.Color("#FFFF00")
	colorDarkGray = lipgloss.Color("8")

	titleStyle    = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(colorDarkGray)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	idStyle       = lipgloss.NewStyle().Foreground(colorDarkGray)
)

func statusStyle(status string) lipgloss.Style {
	if status == "passed" {
		return lipgloss.NewStyle().Foreground(colorGreen)
	}
	return lipgloss.NewStyle().Foreground(colorRed)
}
