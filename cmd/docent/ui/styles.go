// Package ui is the terminal front end of docent: one bubbletea model that
// renders whichever screen the coordinator has on top.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is one palette.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Highlight  lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#2b2118"),
		Primary:    lipgloss.Color("#7a3e1d"),
		Accent:     lipgloss.Color("#b8860b"),
		Muted:      lipgloss.Color("#8c8279"),
		Border:     lipgloss.Color("#d8cfc4"),
		Highlight:  lipgloss.Color("#f3e2b3"),
	}
}

func DarkTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#ece6dd"),
		Primary:    lipgloss.Color("#e0b060"),
		Accent:     lipgloss.Color("#c9703d"),
		Muted:      lipgloss.Color("#7d756c"),
		Border:     lipgloss.Color("#3b342d"),
		Highlight:  lipgloss.Color("#4a3b22"),
		IsDark:     true,
	}
}

// ThemeFor maps the config theme name onto a palette. DOCENT_THEME wins when
// set, so a one-off run can flip palettes without editing the config.
func ThemeFor(name string) Theme {
	if env := strings.TrimSpace(os.Getenv("DOCENT_THEME")); env != "" {
		name = env
	}
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds every style the views use.
type Styles struct {
	Theme Theme

	Header     lipgloss.Style
	Breadcrumb lipgloss.Style
	Title      lipgloss.Style
	Item       lipgloss.Style
	Selected   lipgloss.Style
	Muted      lipgloss.Style
	Active     lipgloss.Style
	Flash      lipgloss.Style
	Error      lipgloss.Style
	Overlay    lipgloss.Style
	Footer     lipgloss.Style
}

func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,
		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),
		Breadcrumb: lipgloss.NewStyle().Foreground(theme.Muted).Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			MarginBottom(1),
		Item:     lipgloss.NewStyle().Foreground(theme.Foreground).PaddingLeft(2),
		Selected: lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).PaddingLeft(1).SetString(">"),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Active: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Highlight),
		Flash: lipgloss.NewStyle().Foreground(theme.Accent).Italic(true),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#d9534f")),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().Foreground(theme.Muted).Padding(0, 1),
	}
}
