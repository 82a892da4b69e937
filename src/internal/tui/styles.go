// Package tui renders the management CLI's tables and boxes with lipgloss.
// The shim never imports it, so the shim stays small and starts fast.
package tui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Lazy initialization to avoid cold start penalty from lipgloss terminal detection
var (
	initOnce sync.Once

	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorSuccess   lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorMuted     lipgloss.Color

	StyleTool          lipgloss.Style
	StyleVersion       lipgloss.Style
	StyleActiveVersion lipgloss.Style
	StyleMuted         lipgloss.Style
	StyleWarning       lipgloss.Style

	StyleInfoBox lipgloss.Style

	StyleTableHeader lipgloss.Style
	StyleTableCell   lipgloss.Style
	StyleTableBorder lipgloss.Style

	CheckMark string
	CrossMark string
	Bullet    string
)

func initStyles() {
	initOnce.Do(func() {
		// Force TrueColor profile to skip slow terminal capability detection
		// See: https://github.com/charmbracelet/lipgloss/issues/86
		lipgloss.SetColorProfile(termenv.TrueColor)

		colorPrimary = lipgloss.Color("39")    // Cyan
		colorSecondary = lipgloss.Color("213") // Magenta
		colorSuccess = lipgloss.Color("42")    // Green
		colorWarning = lipgloss.Color("214")   // Orange
		colorError = lipgloss.Color("196")     // Red
		colorMuted = lipgloss.Color("245")     // Gray

		StyleTool = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
		StyleVersion = lipgloss.NewStyle().Bold(true).Foreground(colorSecondary)
		StyleActiveVersion = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
		StyleMuted = lipgloss.NewStyle().Foreground(colorMuted)
		StyleWarning = lipgloss.NewStyle().Foreground(colorWarning)

		StyleInfoBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

		StyleTableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingRight(2)

		StyleTableCell = lipgloss.NewStyle().PaddingRight(2)

		StyleTableBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

		CheckMark = lipgloss.NewStyle().Foreground(colorSuccess).Render("✓")
		CrossMark = lipgloss.NewStyle().Foreground(colorError).Render("✗")
		Bullet = StyleMuted.Render("•")
	})
}

// RenderTool renders a tool or package name
func RenderTool(name string) string {
	initStyles()
	return StyleTool.Render(name)
}

// RenderVersion renders a version string
func RenderVersion(version string) string {
	initStyles()
	return StyleVersion.Render(version)
}

// RenderActiveVersion renders the version in use
func RenderActiveVersion(version string) string {
	initStyles()
	return StyleActiveVersion.Render(version)
}

// RenderMuted renders secondary text
func RenderMuted(text string) string {
	initStyles()
	return StyleMuted.Render(text)
}

// RenderWarning renders text that needs the user's attention
func RenderWarning(text string) string {
	initStyles()
	return StyleWarning.Render(text)
}

// RenderInfoBox renders content in a rounded box
func RenderInfoBox(content string) string {
	initStyles()
	return StyleInfoBox.Render(content)
}

// GetCheckMark returns the styled checkmark indicator
func GetCheckMark() string {
	initStyles()
	return CheckMark
}

// GetCrossMark returns the styled cross indicator
func GetCrossMark() string {
	initStyles()
	return CrossMark
}
