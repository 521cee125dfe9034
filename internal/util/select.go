package util

import (
	"context"
)

// Sel runs f on its own routine and blocks until it finishes
// or until ctx is done, whichever comes first.
func Sel(ctx context.Context, f func() error) error {
	var d = make(chan error)
	go func() {
		d <- f()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-d:
		return err
	}
}
