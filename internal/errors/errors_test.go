package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

// testError is a custom error type that matches no sentinel.
type testError struct {
	msg string
}

func (e testError) Error() string {
	return e.msg
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	all := []error{
		sherrors.ErrWorkspaceExists,
		sherrors.ErrOrphanBlocking,
		sherrors.ErrStageFailure,
		sherrors.ErrConflict,
		sherrors.ErrCommitFailed,
		sherrors.ErrRecovery,
		sherrors.ErrWorkspaceNotFound,
		sherrors.ErrWorkspaceCorrupted,
		sherrors.ErrInvalidStatus,
	}

	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b, "%v should not match %v", a, b)
		}
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, sherrors.Wrap(nil, "context"))
		require.NoError(t, sherrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("preserves sentinel chain", func(t *testing.T) {
		err := sherrors.Wrap(sherrors.ErrConflict, "commit v2.0.0")
		require.ErrorIs(t, err, sherrors.ErrConflict)
		assert.Equal(t, "commit v2.0.0: production changed since baseline", err.Error())
	})

	t.Run("formats message", func(t *testing.T) {
		err := sherrors.Wrapf(sherrors.ErrRecovery, "workspace %s", "v1")
		require.ErrorIs(t, err, sherrors.ErrRecovery)
		assert.Contains(t, err.Error(), "workspace v1")
	})
}

func TestActionable(t *testing.T) {
	t.Run("known sentinel through wrapping", func(t *testing.T) {
		msg, action := sherrors.Actionable(fmt.Errorf("init: %w", sherrors.ErrOrphanBlocking))
		assert.Contains(t, msg, "interrupted run")
		assert.Contains(t, action, "stagehand status")
	})

	t.Run("unknown error", func(t *testing.T) {
		msg, action := sherrors.Actionable(testError{msg: "boom"})
		assert.Equal(t, "boom", msg)
		assert.Empty(t, action)
	})

	t.Run("nil", func(t *testing.T) {
		msg, action := sherrors.Actionable(nil)
		assert.Empty(t, msg)
		assert.Empty(t, action)
		assert.Empty(t, sherrors.UserMessage(nil))
	})
}

func TestExitCode2Error(t *testing.T) {
	err := sherrors.NewExitCode2Error(sherrors.ErrInvalidArgument)
	assert.True(t, sherrors.IsExitCode2Error(fmt.Errorf("wrapped: %w", err)))
	require.ErrorIs(t, err, sherrors.ErrInvalidArgument)
	assert.False(t, sherrors.IsExitCode2Error(sherrors.ErrInvalidArgument))
}
