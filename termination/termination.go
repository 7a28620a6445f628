// Package termination turns process signals into an error the caller can return.
package termination

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

var ErrTerminated = errors.New("terminated")

// Handle blocks until the process receives SIGINT or SIGTERM, returning ErrTerminated,
// or until ctx is done, returning nil.
func Handle(ctx context.Context) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		return ErrTerminated
	case <-ctx.Done():
		return nil
	}
}
