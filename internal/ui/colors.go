package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mpdx/internal/services"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	tab      lipgloss.Style
	active   lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	banner   lipgloss.Style
	fragment lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		tab:      NewStyle(h).Padding(0, 1),
		active:   NewBold(t).Padding(0, 1).Underline(true),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		banner:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color(e)).Padding(0, 1),
		fragment: NewEm(h),
	}
}

// Severity returns the style for a notification severity.
func (p *Palette) Severity(sev services.Severity) lipgloss.Style {
	switch sev {
	case services.SeverityDanger:
		return p.err
	case services.SeverityWarn:
		return p.warn
	case services.SeveritySuccess:
		return p.ok
	default:
		return p.help
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
