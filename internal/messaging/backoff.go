package messaging

import (
	"context"
	"time"
)

// Backoff doubles the wait between reconnect attempts, up to Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	next    time.Duration
}

// NewBackoff returns the delay policy the consumers use when the broker is unreachable.
func NewBackoff() *Backoff {
	return &Backoff{Initial: 500 * time.Millisecond, Max: 30 * time.Second}
}

// Next returns the delay to wait before the coming attempt.
func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Initial
	}
	d := b.next
	b.next = min(b.next*2, b.Max)
	return d
}

// Reset starts the next failure streak from Initial again.
func (b *Backoff) Reset() {
	b.next = 0
}

// Wait sleeps for Next() and reports false if ctx ended first.
func (b *Backoff) Wait(ctx context.Context) bool {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
