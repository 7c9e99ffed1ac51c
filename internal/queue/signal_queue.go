// Package queue carries anti-cheat signals off the request path. Heartbeat
// handling stays fast because history persistence and monitor fanout happen
// through Redis, not in the HTTP handler's transaction.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/campusgrid/exam-backend/internal/config"
	"github.com/campusgrid/exam-backend/internal/model"
)

// SignalQueue pushes anti-cheat signals onto the persistence queue and fans
// them out to live exam monitors over pub/sub.
type SignalQueue struct {
	rdb *redis.Client
}

// NewSignalQueue creates a new SignalQueue.
func NewSignalQueue(rdb *redis.Client) *SignalQueue {
	return &SignalQueue{rdb: rdb}
}

// Publish enqueues the signal for history persistence and broadcasts it on
// the exam's monitor channel. Both writes ride one pipeline round trip.
func (q *SignalQueue) Publish(ctx context.Context, sig model.Signal) error {
	raw, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}

	pipe := q.rdb.Pipeline()
	pipe.RPush(ctx, config.QueueKey.PersistSignalsQueue, raw)
	pipe.Publish(ctx, config.ChannelKey.ExamMonitorChannel(sig.ExamID.String()), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish signal: %w", err)
	}
	return nil
}
