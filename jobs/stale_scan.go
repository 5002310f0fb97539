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

// StaleLoanScanJob flags applications that sit in a non-terminal status for
// too long so the ops team can chase the pending reviewer or approver.
type StaleLoanScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewStaleLoanScanJob initialises the stale scan handler.
func NewStaleLoanScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *StaleLoanScanJob {
	return &StaleLoanScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type staleLoan struct {
	ID     string
	Status string
	Age    time.Duration
}

// scannedStatuses are the non-terminal statuses the scan watches.
var scannedStatuses = []string{"CREATED", "REVIEWED", "APPROVED"}

// Handle executes the stale application scan.
func (j *StaleLoanScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("stale scan: handler not configured")
	}
	var payload StaleScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ThresholdHours <= 0 {
		payload.ThresholdHours = 336
	}

	tracker := j.metrics().Track(TaskLoanStaleScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	threshold := time.Duration(payload.ThresholdHours) * time.Hour
	cutoff := j.now().Add(-threshold)
	logger := j.logger().With(slog.Int("threshold_hours", payload.ThresholdHours))
	logger.Info("starting stale loan scan")

	stale, err := j.scan(ctx, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	counts := make(map[string]int)
	for _, s := range stale {
		counts[s.Status]++
		logger.Warn("stale loan application",
			slog.String("loan_id", s.ID),
			slog.String("status", s.Status),
			slog.Duration("age", s.Age),
		)
	}
	// Every scanned status is written, so a cleared backlog drops to zero.
	for _, status := range scannedStatuses {
		j.metrics().SetStaleLoans(status, counts[status])
	}

	logger.Info("completed stale loan scan", slog.Int("flagged", len(stale)))
	return nil
}

func (j *StaleLoanScanJob) scan(ctx context.Context, cutoff time.Time) ([]staleLoan, error) {
	rows, err := j.Pool.Query(ctx, `SELECT id, status, created_at FROM loans
WHERE status IN ('CREATED', 'REVIEWED', 'APPROVED') AND created_at < $1
ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := j.now()
	var stale []staleLoan
	for rows.Next() {
		var s staleLoan
		var createdAt time.Time
		if err := rows.Scan(&s.ID, &s.Status, &createdAt); err != nil {
			return nil, err
		}
		s.Age = now.Sub(createdAt)
		stale = append(stale, s)
	}
	return stale, rows.Err()
}

func (j *StaleLoanScanJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}

func (j *StaleLoanScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *StaleLoanScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
