package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/nusalend/nusalend/internal/jobs"
)

// SessionSweepJob removes expired session audit rows. Redis entries expire on
// their own; the postgres mirror does not.
type SessionSweepJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSessionSweepJob initialises the sweep handler.
func NewSessionSweepJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionSweepJob {
	return &SessionSweepJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the expired session sweep.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("session sweep: handler not configured")
	}
	var payload SessionSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Batch <= 0 {
		payload.Batch = 1000
	}

	tracker := j.Metrics.Track(TaskSessionSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	tag, err := j.Pool.Exec(ctx, `DELETE FROM sessions WHERE id IN (
SELECT id FROM sessions WHERE expires_at < $1 LIMIT $2)`, time.Now().UTC(), payload.Batch)
	if err != nil {
		resultErr = err
		j.logger().Error("session sweep failed", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("session sweep completed", slog.Int64("removed", tag.RowsAffected()))
	return nil
}

func (j *SessionSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
