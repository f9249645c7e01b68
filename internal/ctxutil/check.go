// Package ctxutil provides context utility functions.
package ctxutil

import "context"

// Canceled returns nil while ctx is live. Once ctx is done it returns the
// cancellation cause, which is the plain ctx.Err() unless the canceler
// supplied one (the signal handler records the received signal). Store and
// pipeline entry points call it first so a canceled run does no further
// disk work.
func Canceled(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	return context.Cause(ctx)
}
