// Package tui provides terminal output for the stagehand CLI.
//
// Colors use lipgloss.AdaptiveColor so output reads on light and dark
// terminals. Call CheckNoColor before rendering to honor NO_COLOR and TERM=dumb.
// Every status display carries an icon, a color and a text label so nothing
// depends on color alone.
package tui

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrz1836/stagehand/internal/constants"
)

//nolint:gochecknoglobals // package-level style palette
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	StyleBold = lipgloss.NewStyle().Bold(true)
	StyleDim  = lipgloss.NewStyle().Faint(true)
)

// OutputStyles holds the message styles used by TTYOutput.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles returns the default message styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// TableStyles holds header and cell styles for tabular output.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
}

// NewTableStyles returns the default table styles.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
	}
}

// CheckNoColor switches lipgloss to the ASCII profile when colors are disabled.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false when NO_COLOR is present (any value,
// including empty) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// StatusColor returns the display color for a workspace status.
func StatusColor(status constants.WorkspaceStatus) lipgloss.AdaptiveColor {
	switch status {
	case constants.WorkspaceStatusReady, constants.WorkspaceStatusCommitted:
		return ColorSuccess
	case constants.WorkspaceStatusCreated, constants.WorkspaceStatusStage1Complete,
		constants.WorkspaceStatusStage2Complete:
		return ColorWarning
	case constants.WorkspaceStatusCorrupt:
		return ColorError
	default:
		return ColorMuted
	}
}

// StatusIcon returns the icon for a workspace status.
func StatusIcon(status constants.WorkspaceStatus) string {
	switch status {
	case constants.WorkspaceStatusCreated:
		return "○"
	case constants.WorkspaceStatusStage1Complete, constants.WorkspaceStatusStage2Complete:
		return "◐"
	case constants.WorkspaceStatusReady:
		return "●"
	case constants.WorkspaceStatusCommitted:
		return "✓"
	case constants.WorkspaceStatusCorrupt:
		return "✗"
	default:
		return "?"
	}
}

// StatusLabel turns a persisted status into display text:
// "stage1-complete" becomes "Stage1 Complete".
func StatusLabel(status constants.WorkspaceStatus) string {
	words := strings.Fields(strings.ReplaceAll(status.String(), "-", " "))
	if len(words) == 0 {
		return "Unknown"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// FormatStatus renders a status as icon, label and color.
func FormatStatus(status constants.WorkspaceStatus) string {
	text := StatusIcon(status) + " " + StatusLabel(status)
	if !HasColorSupport() {
		return text
	}
	return lipgloss.NewStyle().Foreground(StatusColor(status)).Render(text)
}

// padRight pads s with spaces to width visible runes.
func padRight(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}
