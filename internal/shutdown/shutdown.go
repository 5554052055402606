// Package shutdown provides a signal-aware root context.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context that is cancelled on SIGINT or SIGTERM, together
// with the cancel function.
func New() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
