//go:build unix

package flock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Exclusive takes a non-blocking exclusive flock on fd.
// An interrupted call is retried.
func Exclusive(fd uintptr) error {
	for {
		err := unix.Flock(int(fd), unix.LOCK_EX|unix.LOCK_NB) //nolint:gosec // fd fits in int
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// Unlock releases the flock on fd.
func Unlock(fd uintptr) error {
	return unix.Flock(int(fd), unix.LOCK_UN) //nolint:gosec // fd fits in int
}

// contended reports whether err means another holder owns the lock.
func contended(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
}
