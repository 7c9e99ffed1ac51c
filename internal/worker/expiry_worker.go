package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AttemptExpirer is the slice of the attempt store the sweep needs.
type AttemptExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryWorker periodically sweeps in-progress attempts whose exam window or
// per-attempt duration has elapsed into timeout status. Without it, an
// abandoned browser tab would hold its attempt open forever.
type ExpiryWorker struct {
	attempts AttemptExpirer
	interval time.Duration
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(attempts AttemptExpirer, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		attempts: attempts,
		interval: interval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpiryWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	swept, err := w.attempts.ExpireStale(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("Expiry sweep failed")
		return
	}
	if swept > 0 {
		w.log.Info().Int64("count", swept).Msg("Swept stale attempts to timeout")
	}
}
