package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title     lipgloss.Style
	Prompt    lipgloss.Style
	Status    lipgloss.Style
	Dim       lipgloss.Style
	Selected  lipgloss.Style
	Name      lipgloss.Style
	URL       lipgloss.Style
	Tag       lipgloss.Style
	Error     lipgloss.Style
	Loading   lipgloss.Style
	Help      lipgloss.Style
	SourceTag lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Dim:      lipgloss.NewStyle().Faint(true),
		Selected: lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("230")),
		Name:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		URL:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true),
		Tag:      lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Loading:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Help:     lipgloss.NewStyle().Faint(true),
		SourceTag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true),
	}
}
