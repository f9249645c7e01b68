// Package testutil provides shared test doubles and fixtures for stagehand.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors used to simulate failures from injected dependencies.
var (
	// ErrMockDiskFull simulates a failed rename or write during commit.
	ErrMockDiskFull = errors.New("disk full")

	// ErrMockTransient simulates a one-off I/O failure that succeeds on retry.
	ErrMockTransient = errors.New("transient")

	// ErrMockUpstream simulates a stage executor whose generator is unreachable.
	ErrMockUpstream = errors.New("upstream unavailable")

	// ErrMockWriteFailed simulates a log sink that rejects writes.
	ErrMockWriteFailed = errors.New("write failed")
)
