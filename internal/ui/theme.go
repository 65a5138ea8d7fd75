// Package ui holds the lipgloss styles used by effectctl output.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	IconEffect  = "✨"
	IconDrop    = "🗑️"
	IconError   = "🧨"
	IconHeart   = "❤️"
	IconShield  = "🛡️"
	IconBolt    = "⚡"
	IconScroll  = "📜"
	IconTrigger = "🔁"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Story = lipgloss.NewStyle().Italic(true).Foreground(cAccent)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Delta renders a before -> after change, green when it went up and red
// when it went down.
func Delta(before, after float64) string {
	b := strconv.FormatFloat(before, 'f', -1, 64)
	a := strconv.FormatFloat(after, 'f', -1, 64)
	switch {
	case after > before:
		return b + " → " + Good.Render(a)
	case after < before:
		return b + " → " + Bad.Render(a)
	default:
		return Muted.Render(a)
	}
}
