package health

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	key      lipgloss.Style
	value    lipgloss.Style
	section  lipgloss.Style
	healthy  lipgloss.Style
	warning  lipgloss.Style
	critical lipgloss.Style
	unknown  lipgloss.Style
	alert    lipgloss.Style
	empty    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		key:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		section:  lipgloss.NewStyle().MarginTop(1),
		healthy:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		critical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		unknown:  lipgloss.NewStyle().Faint(true),
		alert:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		empty:    lipgloss.NewStyle().Faint(true),
	}
}

func (s styles) health(label string) lipgloss.Style {
	switch label {
	case "healthy":
		return s.healthy
	case "warning":
		return s.warning
	case "critical":
		return s.critical
	default:
		return s.unknown
	}
}
