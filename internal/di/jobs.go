package di

import (
	"fmt"

	"github.com/aristath/foundry/internal/config"
	"github.com/aristath/foundry/internal/reliability"
	"github.com/aristath/foundry/internal/scheduler"
	"github.com/aristath/foundry/internal/work"
	"github.com/rs/zerolog"
)

// Cron schedules for the fixed jobs (seconds field first)
const (
	checkDatabasesSchedule = "0 30 4 * * *" // daily at 04:30
	diskSpaceSchedule      = "@hourly"
)

// RegisterJobs creates the scheduler and adds every cron job. The scheduler
// is returned stopped.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)
	processor := container.Work.Processor

	// Sweep: wakes the processor so due launches and settled stages run
	if err := sched.AddJob(scheduler.EveryInterval(cfg.Scheduler.SweepInterval), scheduler.NewSweepJob(processor)); err != nil {
		return nil, fmt.Errorf("failed to register sweep job: %w", err)
	}

	if container.BackupService != nil {
		if err := sched.AddJob(cfg.Backup.Schedule, scheduler.NewEnqueueJob(processor, work.WorkTypeBackup)); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	checkers := make([]scheduler.IntegrityChecker, 0, len(container.Databases()))
	for _, db := range container.Databases() {
		checkers = append(checkers, db)
	}
	if err := sched.AddJob(checkDatabasesSchedule, scheduler.NewCheckDatabasesJob(log, checkers...)); err != nil {
		return nil, fmt.Errorf("failed to register check_databases job: %w", err)
	}

	if err := sched.AddJob(diskSpaceSchedule, reliability.NewDiskSpaceJob(cfg.DataDir, log)); err != nil {
		return nil, fmt.Errorf("failed to register disk_space job: %w", err)
	}

	container.Scheduler = sched
	return sched, nil
}
