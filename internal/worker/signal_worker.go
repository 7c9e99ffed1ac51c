package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campusgrid/exam-backend/internal/config"
	"github.com/campusgrid/exam-backend/internal/model"
)

const (
	signalBatchSize    = 50
	signalBatchTimeout = 2 * time.Second
	signalPollTimeout  = 1 * time.Second // must be >= 1s to satisfy Redis BLPop
)

// SignalWorker drains the anti-cheat signal queue into the attempt_signals
// history table. Signals are advisory telemetry; losing one degrades the
// monitor view, not any score.
type SignalWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSignalWorker creates a new SignalWorker.
func NewSignalWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SignalWorker {
	return &SignalWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "signal_worker").Logger(),
	}
}

// Start runs the consume loop until ctx is cancelled. Call in a goroutine.
func (w *SignalWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SignalWorker started")

	batch := make([]*model.Signal, 0, signalBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= signalBatchSize || time.Since(lastFlush) >= signalBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(batch)
			return
		default:
		}

		item, err := w.rdb.BLPop(ctx, signalPollTimeout, config.QueueKey.PersistSignalsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // queue empty, loop back to check the flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(item) < 2 {
			continue
		}

		var sig model.Signal
		if err := json.Unmarshal([]byte(item[1]), &sig); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed signal")
			continue
		}

		batch = append(batch, &sig)
	}
}

// flushSafe attempts the bulk insert, then falls back to row-by-row with
// requeueing for rows that fail on what is likely a DB outage.
func (w *SignalWorker) flushSafe(ctx context.Context, batch []*model.Signal) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *SignalWorker) bulkInsert(ctx context.Context, batch []*model.Signal) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, sig := range batch {
		rows = append(rows, []interface{}{
			sig.AttemptID, sig.ExamID, sig.StudentID, sig.Visible, sig.Fullscreen, sig.RecordedAt,
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"attempt_signals"},
		[]string{"attempt_id", "exam_id", "student_id", "visible", "fullscreen", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *SignalWorker) fallbackInsert(ctx context.Context, batch []*model.Signal) {
	requeueList := make([]*model.Signal, 0)

	for _, sig := range batch {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO attempt_signals (attempt_id, exam_id, student_id, visible, fullscreen, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sig.AttemptID, sig.ExamID, sig.StudentID, sig.Visible, sig.Fullscreen, sig.RecordedAt,
		)
		if err != nil {
			w.log.Error().Err(err).Str("attempt_id", sig.AttemptID.String()).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, sig)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *SignalWorker) requeue(ctx context.Context, items []*model.Signal) {
	pipe := w.rdb.Pipeline()
	for _, sig := range items {
		data, _ := json.Marshal(sig)
		pipe.RPush(ctx, config.QueueKey.PersistSignalsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("Failed to requeue signals; telemetry lost")
		return
	}

	w.log.Info().Int("count", len(items)).Msg("Requeued failed signals")
	// Back off a little so a hard-down DB is not hammered.
	time.Sleep(2 * time.Second)
}

func (w *SignalWorker) shutdown(batch []*model.Signal) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w.flushSafe(shutdownCtx, batch)
}
