package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/tui"
)

// confirmFunc asks the user a yes/no question. Tests replace it.
//
//nolint:gochecknoglobals // swapped in tests
var confirmFunc = tui.Confirm

// outputFormat returns the resolved --output value for cmd.
func outputFormat(cmd *cobra.Command) string {
	if f := cmd.Flag("output"); f != nil {
		return f.Value.String()
	}
	return OutputText
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// failJSON writes a failed response and returns an error that tells the
// caller the failure was already reported. The original error stays in the
// chain so ExitCodeForError still picks the right code.
func failJSON(w io.Writer, resp any, err error) error {
	if encErr := writeJSON(w, resp); encErr != nil {
		return stderrors.Join(err, encErr)
	}
	return fmt.Errorf("%w: %w", errors.ErrJSONErrorOutput, err)
}

// confirm gates a destructive action. --yes skips the prompt; JSON output
// and non-terminal stdin require --yes.
func confirm(format string, yes bool, title, description string) error {
	if yes {
		return nil
	}
	if format == OutputJSON {
		return errors.ErrNonInteractiveMode
	}
	ok, err := confirmFunc(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrOperationCanceled
	}
	return nil
}
