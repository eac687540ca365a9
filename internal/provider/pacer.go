package provider

import (
	"context"
	"time"
)

// DefaultCallDelay is the pause before each catalog call during an import.
const DefaultCallDelay = 5 * time.Second

// Pacer is the delay-before-call policy applied ahead of every catalog
// request made by an import.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay sleeps for a constant duration before each call.
type FixedDelay time.Duration

// Wait sleeps for the delay or until ctx is done.
func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(d))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelay is a Pacer that never waits.
var NoDelay Pacer = FixedDelay(0)
