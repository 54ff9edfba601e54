package ui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title    lipgloss.Style
	Counts   lipgloss.Style
	Label    lipgloss.Style
	Done     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Prompt   lipgloss.Style
	Warning  lipgloss.Style
	Empty    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		Counts:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Done:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Selected: lipgloss.NewStyle().Bold(true),
		Prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Empty:    lipgloss.NewStyle().Faint(true).Italic(true),
	}
}
