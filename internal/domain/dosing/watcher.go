package dosing

import (
	"context"
	"time"
)

// Watch recomputes the tracker's statuses on a fixed interval and delivers
// each batch to fn, starting with one immediate computation. It blocks until
// ctx is cancelled; the owning view cancels the context on teardown, which
// stops the ticker and guarantees no recomputation runs against a dead view.
func (t *Tracker) Watch(ctx context.Context, interval time.Duration, fn func([]Status)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(t.Statuses(time.Now()))
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fn(t.Statuses(now))
		}
	}
}
