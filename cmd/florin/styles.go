package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// successStyle formats success messages.
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	// errorStyle formats errors or failure messages.
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	// infoStyle formats informational messages.
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3"))
	// subtleStyle formats less prominent text.
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	// headerStyle formats table headers.
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)
