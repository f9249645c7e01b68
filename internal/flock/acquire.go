package flock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mrz1836/stagehand/internal/constants"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

const lockFilePerm = 0o600

// Release unlocks and closes a lock acquired with Acquire.
type Release func() error

// Acquire opens (creating if needed) the lock file at path and takes an
// exclusive lock on it, retrying until timeout or ctx is done.
// The parent directory must already exist.
func Acquire(ctx context.Context, path string, timeout time.Duration) (Release, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePerm) //#nosec G302,G304 -- lock file path is constructed internally
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		default:
		}

		err := Exclusive(f.Fd())
		if err == nil {
			return func() error {
				if unlockErr := Unlock(f.Fd()); unlockErr != nil {
					_ = f.Close()
					return fmt.Errorf("failed to release lock: %w", unlockErr)
				}
				return f.Close()
			}, nil
		}
		if !contended(err) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to lock %s: %w", path, err)
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to acquire lock on %s: %w", path, sherrors.ErrLockTimeout)
		}

		time.Sleep(constants.LockRetryInterval)
	}
}
