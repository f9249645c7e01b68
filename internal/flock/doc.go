// Package flock provides advisory file locking for workspace metadata.
//
// Exclusive and Unlock wrap flock(2) on Unix and LockFileEx on Windows.
// Acquire adds a context-aware retry loop on top and is what the workspace
// store uses to serialize read-modify-write cycles on workspace.json:
//
//	release, err := flock.Acquire(ctx, path+".lock", constants.LockTimeout)
//	if err != nil {
//	    return err
//	}
//	defer release()
//
// Locks are advisory. They only exclude other stagehand processes.
package flock
