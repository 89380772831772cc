package app

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted by the config file and the store.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type palette struct {
	text   lipgloss.Color
	muted  lipgloss.Color
	subtle lipgloss.Color
	accent lipgloss.Color
	border lipgloss.Color
	danger lipgloss.Color
	ok     lipgloss.Color
}

var (
	darkPalette = palette{
		text:   lipgloss.Color("#F0F0F0"),
		muted:  lipgloss.Color("#B8B8B8"),
		subtle: lipgloss.Color("#6E6E6E"),
		accent: lipgloss.Color("#C89A3A"),
		border: lipgloss.Color("#4A4A4A"),
		danger: lipgloss.Color("#FF4D4F"),
		ok:     lipgloss.Color("#6CC570"),
	}
	lightPalette = palette{
		text:   lipgloss.Color("#1F1F1F"),
		muted:  lipgloss.Color("#4A4A4A"),
		subtle: lipgloss.Color("#8C8C8C"),
		accent: lipgloss.Color("#9A6B12"),
		border: lipgloss.Color("#C0C0C0"),
		danger: lipgloss.Color("#C62828"),
		ok:     lipgloss.Color("#2E7D32"),
	}
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	text   lipgloss.Style
	muted  lipgloss.Style
	err    lipgloss.Style
	ok     lipgloss.Style
	accent lipgloss.Style
	modal  lipgloss.Style
	table  table.Styles
}

// NormalizeTheme maps unknown values to the dark theme.
func NormalizeTheme(name string) string {
	if name == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

func toggleTheme(name string) string {
	if name == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

func newStyles(theme string) styles {
	p := darkPalette
	if theme == ThemeLight {
		p = lightPalette
	}
	tableStyles := table.DefaultStyles()
	tableStyles.Header = tableStyles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(p.border).
		Foreground(p.muted).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	tableStyles.Cell = tableStyles.Cell.
		Foreground(p.muted).
		Padding(0, 1).
		PaddingLeft(0)
	tableStyles.Selected = tableStyles.Selected.
		Foreground(p.text).
		Background(lipgloss.NoColor{}).
		Bold(true)

	return styles{
		title:  lipgloss.NewStyle().Foreground(p.text).Bold(true),
		header: lipgloss.NewStyle().Foreground(p.subtle),
		text:   lipgloss.NewStyle().Foreground(p.text),
		muted:  lipgloss.NewStyle().Foreground(p.muted),
		err:    lipgloss.NewStyle().Foreground(p.danger),
		ok:     lipgloss.NewStyle().Foreground(p.ok),
		accent: lipgloss.NewStyle().Foreground(p.accent),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(p.accent).
			Padding(1, 2),
		table: tableStyles,
	}
}
