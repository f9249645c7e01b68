package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

// Prompt widths.
const (
	TerminalEdgeMargin = 4
	MinPromptWidth     = 40
	DefaultPromptWidth = 80
)

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int on supported platforms
}

// TerminalWidth returns the width of stdout, or 0 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // fd fits in int on supported platforms
	if err != nil {
		return 0
	}
	return width
}

// promptWidth fits prompts to the terminal, falling back to DefaultPromptWidth.
func promptWidth() int {
	width := TerminalWidth()
	if width == 0 {
		return DefaultPromptWidth
	}
	width -= TerminalEdgeMargin
	if width < MinPromptWidth {
		return MinPromptWidth
	}
	return width
}

// Theme returns the huh theme using the stagehand palette.
func Theme() *huh.Theme {
	CheckNoColor()

	t := huh.ThemeBase()
	t.Focused.Base = t.Focused.Base.BorderForeground(ColorPrimary)
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(ColorPrimary)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorMuted)
	return t
}

// Confirm asks a yes/no question and defaults to No.
//
// It returns ErrNonInteractiveMode without a terminal so commands can tell
// the user to pass --yes, and ErrOperationCanceled when the user aborts.
func Confirm(title, description string) (bool, error) {
	if !IsInteractive() {
		return false, sherrors.ErrNonInteractiveMode
	}

	confirmed := false
	field := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(Theme()).
		WithWidth(promptWidth()).
		WithAccessible(os.Getenv("ACCESSIBLE") != "")

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, sherrors.ErrOperationCanceled
		}
		return false, fmt.Errorf("confirm prompt failed: %w", err)
	}
	return confirmed, nil
}
