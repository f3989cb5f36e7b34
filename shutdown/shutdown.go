// Package shutdown ties the process lifetime to termination signals.
package shutdown

import (
	"context"
	"os/signal"
)

// Context returns a context that is cancelled on the first termination
// signal or when stop is called. After stop, a further signal gets the
// default behaviour again.
func Context(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}
