package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskLoanStaleScan flags applications parked in non-terminal statuses.
	TaskLoanStaleScan = "loan:stale_scan"
	// TaskSessionSweep removes expired session rows from postgres.
	TaskSessionSweep = "session:sweep"
	// TaskIdempotencyCleanup prunes settled idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// StaleScanPayload configures the stale application scan.
type StaleScanPayload struct {
	ThresholdHours int `json:"threshold_hours"`
}

// NewStaleScanTask constructs an Asynq task for the stale scan.
func NewStaleScanTask(thresholdHours int) (*asynq.Task, error) {
	data, err := json.Marshal(StaleScanPayload{ThresholdHours: thresholdHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoanStaleScan, data), nil
}

// SessionSweepPayload configures the expired session sweep.
type SessionSweepPayload struct {
	Batch int `json:"batch"`
}

// NewSessionSweepTask constructs an Asynq task for the session sweep.
func NewSessionSweepTask(batch int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionSweepPayload{Batch: batch})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionSweep, data), nil
}

// IdempotencyCleanupPayload configures key pruning.
type IdempotencyCleanupPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key pruning.
func NewIdempotencyCleanupTask(olderThanHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{OlderThanHours: olderThanHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
