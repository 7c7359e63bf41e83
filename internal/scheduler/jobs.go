package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Triggerer wakes the work processor.
type Triggerer interface {
	Trigger()
}

// Enqueuer queues on-demand work.
type Enqueuer interface {
	Enqueue(typeID, subject string) error
}

// SweepJob wakes the processor so time-based cursors (launch dates, stage
// settle delays) are picked up without any in-memory timers.
type SweepJob struct {
	processor Triggerer
}

// NewSweepJob creates a sweep job.
func NewSweepJob(processor Triggerer) *SweepJob {
	return &SweepJob{processor: processor}
}

// Name returns the job name
func (j *SweepJob) Name() string {
	return "sweep"
}

// Run executes the sweep
func (j *SweepJob) Run() error {
	j.processor.Trigger()
	return nil
}

// EveryInterval builds an "@every" schedule for d.
func EveryInterval(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// EnqueueJob hands one on-demand work type to the processor on schedule.
// The processor owns retries.
type EnqueueJob struct {
	processor Enqueuer
	workType  string
}

// NewEnqueueJob creates a job that enqueues workType with an empty subject.
func NewEnqueueJob(processor Enqueuer, workType string) *EnqueueJob {
	return &EnqueueJob{processor: processor, workType: workType}
}

// Name returns the job name
func (j *EnqueueJob) Name() string {
	return "enqueue:" + j.workType
}

// Run executes the enqueue
func (j *EnqueueJob) Run() error {
	return j.processor.Enqueue(j.workType, "")
}

// IntegrityChecker runs PRAGMA integrity_check. *database.DB implements it.
type IntegrityChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// CheckDatabasesJob verifies integrity of the SQLite databases
type CheckDatabasesJob struct {
	log       zerolog.Logger
	databases []IntegrityChecker
}

// NewCheckDatabasesJob creates a new CheckDatabasesJob
func NewCheckDatabasesJob(log zerolog.Logger, databases ...IntegrityChecker) *CheckDatabasesJob {
	return &CheckDatabasesJob{
		log:       log.With().Str("job", "check_databases").Logger(),
		databases: databases,
	}
}

// Name returns the job name
func (j *CheckDatabasesJob) Name() string {
	return "check_databases"
}

// Run executes the integrity check. Corruption cannot be repaired automatically,
// so the first failure is returned.
func (j *CheckDatabasesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().
				Err(err).
				Str("database", db.Name()).
				Msg("Database integrity check failed")
			return fmt.Errorf("database %s is corrupted: %w", db.Name(), err)
		}
		j.log.Debug().Str("database", db.Name()).Msg("Database integrity OK")
	}

	j.log.Info().Int("checked", len(j.databases)).Msg("Database integrity check passed")
	return nil
}
