package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mrz1836/stagehand/internal/clock"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/domain"
	"github.com/mrz1836/stagehand/internal/fsutil"
	"github.com/mrz1836/stagehand/internal/logging"
)

const (
	// maxErrorTail bounds how much stderr is kept in a failed StageResult.
	maxErrorTail = 2048

	// waitDelay bounds how long Run waits for output pipes after the
	// command is killed, in case it left children holding them open.
	waitDelay = 2 * time.Second
)

// CommandExecutor runs a stage as a shell command inside the output directory.
// The command learns its context from STAGEHAND_* environment variables and
// every regular file left in the output directory when it exits successfully
// is reported as written.
//
// SECURITY NOTE: commands come from project configuration
// (.stagehand/config.yaml) or the user's global config
// (~/.stagehand/config.yaml) and are trusted like Makefile targets.
// sh -c is used so commands can rely on pipes and redirects.
type CommandExecutor struct {
	command string
	timeout time.Duration
	liveOut io.Writer
	clock   clock.Clock
	logger  zerolog.Logger
}

// CommandOption configures a CommandExecutor.
type CommandOption func(*CommandExecutor)

// WithTimeout bounds how long the command may run.
func WithTimeout(d time.Duration) CommandOption {
	return func(e *CommandExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLiveOutput streams the command's stdout and stderr to w while capturing them.
func WithLiveOutput(w io.Writer) CommandOption {
	return func(e *CommandExecutor) { e.liveOut = w }
}

// WithCommandLogger sets the logger.
func WithCommandLogger(l zerolog.Logger) CommandOption {
	return func(e *CommandExecutor) { e.logger = l }
}

// WithCommandClock sets the clock used to measure duration.
func WithCommandClock(c clock.Clock) CommandOption {
	return func(e *CommandExecutor) { e.clock = clock.OrReal(c) }
}

// NewCommandExecutor creates a CommandExecutor for command.
func NewCommandExecutor(command string, opts ...CommandOption) *CommandExecutor {
	e := &CommandExecutor{
		command: command,
		timeout: constants.DefaultStageTimeout,
		clock:   clock.RealClock{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the command with sh -c.
func (e *CommandExecutor) Run(ctx context.Context, in StageInput) (domain.StageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := e.clock.Now()

	cmd := exec.CommandContext(ctx, "sh", "-c", e.command) //#nosec G204 -- command comes from trusted configuration
	cmd.Dir = in.OutputDir
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(),
		constants.EnvOutputDir+"="+in.OutputDir,
		constants.EnvWorkspaceDir+"="+in.WorkspaceDir,
		constants.EnvVersion+"="+in.Version,
		constants.EnvPreviousVersion+"="+in.PreviousVersion,
		constants.EnvStage+"="+strconv.Itoa(in.Stage),
	)

	var outBuf, errBuf bytes.Buffer
	if e.liveOut != nil {
		cmd.Stdout = io.MultiWriter(&outBuf, e.liveOut)
		cmd.Stderr = io.MultiWriter(&errBuf, e.liveOut)
	} else {
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	}

	e.logger.Debug().
		Int("stage", in.Stage).
		Str("version", in.Version).
		Str("output_dir", in.OutputDir).
		Str("command", logging.SafeValue("command", e.command)).
		Msg("running stage command")

	runErr := cmd.Run()
	duration := e.clock.Now().Sub(start).Milliseconds()

	if runErr != nil {
		exitCode := 1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		msg := logging.FilterSensitiveValue(describeFailure(runErr, exitCode, errBuf.String(), ctx.Err()))

		e.logger.Debug().
			Int("stage", in.Stage).
			Int("exit_code", exitCode).
			Int64("duration_ms", duration).
			Msg("stage command failed")

		return domain.StageResult{Success: false, FilesWritten: []string{}, Error: msg, DurationMs: duration}, nil
	}

	files, err := fsutil.ListFiles(in.OutputDir)
	if err != nil {
		return domain.StageResult{}, fmt.Errorf("failed to list stage output: %w", err)
	}
	if files == nil {
		files = []string{}
	}

	return domain.StageResult{Success: true, FilesWritten: files, DurationMs: duration}, nil
}

// describeFailure builds the StageResult error message from the command's
// exit status and the tail of its stderr.
func describeFailure(runErr error, exitCode int, stderr string, ctxErr error) string {
	var b strings.Builder
	switch {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		b.WriteString("timed out")
	case errors.Is(ctxErr, context.Canceled):
		b.WriteString("canceled")
	default:
		fmt.Fprintf(&b, "exit status %d", exitCode)
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			fmt.Fprintf(&b, " (%v)", runErr)
		}
	}

	stderr = strings.TrimSpace(stderr)
	if len(stderr) > maxErrorTail {
		cut := len(stderr) - maxErrorTail
		for cut < len(stderr) && !utf8.RuneStart(stderr[cut]) {
			cut++
		}
		stderr = "..." + stderr[cut:]
	}
	if stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

var _ StageExecutor = (*CommandExecutor)(nil)
