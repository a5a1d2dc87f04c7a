package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context cancelled on SIGINT or SIGTERM.
func New() (context.Context, func()) {
	return InterruptContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// InterruptContext derives a context that is done once one of sig arrives or done is called.
func InterruptContext(ctx context.Context, sig ...os.Signal) (context.Context, func()) {
	return signal.NotifyContext(ctx, sig...)
}
