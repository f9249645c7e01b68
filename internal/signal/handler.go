// Package signal turns SIGINT and SIGTERM into context cancellation for the
// stagehand CLI. A canceled pipeline run rolls its workspace back, so the
// handler records which signal arrived and exposes it as the context cause.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages
package signal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptedError is the context cause set when a signal cancels the handler.
type InterruptedError struct {
	Signal os.Signal
}

// Error implements the error interface.
func (e *InterruptedError) Error() string {
	if e.Signal == nil {
		return "interrupted"
	}
	return fmt.Sprintf("interrupted by %s", e.Signal)
}

// Is reports context.Canceled as a match so callers checking for plain
// cancellation keep working.
func (e *InterruptedError) Is(target error) bool {
	return target == context.Canceled
}

// Handler cancels its context when SIGINT or SIGTERM is received.
type Handler struct {
	ctx         context.Context //nolint:containedctx // handler owns the context lifecycle
	cancel      context.CancelCauseFunc
	interrupted chan struct{}
	done        chan struct{}
	once        sync.Once
	stopOnce    sync.Once
	sigChan     chan os.Signal

	mu       sync.Mutex
	received os.Signal
}

// NewHandler creates a handler that listens for SIGINT and SIGTERM.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	result, err := orchestrator.Run(h.Context(), version, prev)
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancelCause(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		sigChan:     make(chan os.Signal, 1),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the cancellable context.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when a signal is received.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Received returns the first signal handled, or nil.
func (h *Handler) Received() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// Reason returns a human readable rollback reason for an interrupted run,
// or an empty string when no signal arrived.
func (h *Handler) Reason() string {
	sig := h.Received()
	select {
	case <-h.interrupted:
	default:
		return ""
	}
	return (&InterruptedError{Signal: sig}).Error()
}

// Stop stops listening and cancels the context. Safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel(nil)
	})
}

func (h *Handler) handleSignal(sig os.Signal) {
	h.once.Do(func() {
		h.mu.Lock()
		h.received = sig
		h.mu.Unlock()
		h.cancel(&InterruptedError{Signal: sig})
		close(h.interrupted)
	})
}

// listen keeps draining sigChan until stopped; only the first signal counts.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case sig := <-h.sigChan:
			h.handleSignal(sig)
		}
	}
}
