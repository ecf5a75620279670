package worker

import (
	"context"
	"time"

	"github.com/examgate/examgate-backend/internal/config"
	"github.com/examgate/examgate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StatsWorker consumes the stats queue and recomputes per-exam aggregates
// into a Redis hash, keeping the admin stats endpoint off the hot path.
type StatsWorker struct {
	results *repository.ExamResultRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewStatsWorker creates a new StatsWorker.
func NewStatsWorker(results *repository.ExamResultRepository, rdb *redis.Client, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{
		results: results,
		rdb:     rdb,
		log:     log.With().Str("component", "stats_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *StatsWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.StatsQueue()).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.rollup(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Str("exam_id", result[1]).Msg("Rollup error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.StatsQueue(), result[1])
		time.Sleep(5 * time.Second)
	}
}

// rollup recomputes one exam's aggregates from PostgreSQL and stores them
// as a Redis hash. Recomputation is idempotent, so duplicate queue entries
// are harmless.
func (w *StatsWorker) rollup(ctx context.Context, rawExamID string) error {
	examID, err := uuid.Parse(rawExamID)
	if err != nil {
		// Malformed entry; drop it rather than retry forever.
		w.log.Warn().Str("exam_id", rawExamID).Msg("Dropping malformed queue entry")
		return nil
	}

	stats, err := w.results.GetStats(ctx, examID)
	if err != nil {
		return err
	}

	err = w.rdb.HSet(ctx, config.CacheKey.ExamStatsKey(examID), map[string]interface{}{
		"attempts":      stats.Attempts,
		"average_score": stats.AverageScore,
		"passed":        stats.Passed,
		"failed":        stats.Failed,
	}).Err()
	if err != nil {
		return err
	}

	w.log.Debug().
		Str("exam_id", examID.String()).
		Int64("attempts", stats.Attempts).
		Msg("Stats rolled up")
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *StatsWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.StatsQueue()).Result()
		if err != nil {
			break
		}
		if err := w.rollup(ctx, result); err != nil {
			w.log.Error().Err(err).Msg("Drain rollup error")
			continue
		}
		drained++
	}
	if drained > 0 {
		w.log.Info().Int("drained", drained).Msg("Drained stats queue")
	}
}
