package di

import (
	"context"
	"fmt"

	"github.com/aristath/foundry/internal/config"
	"github.com/aristath/foundry/internal/events"
	"github.com/aristath/foundry/internal/work"
	"github.com/rs/zerolog"
)

// InitializeWork creates the processor before the services that wake it.
// Work types are registered later by RegisterWorkTypes.
func InitializeWork(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	completion, err := work.NewPersistentCompletionTracker(ctx, work.NewSQLiteCompletionStore(container.CacheDB.Conn()), log)
	if err != nil {
		return fmt.Errorf("failed to load work completions: %w", err)
	}

	registry := work.NewRegistry()
	processor := work.NewProcessor(
		registry,
		completion,
		events.NewWorkEmitter(container.EventManager),
		cfg.Scheduler.WorkTimeout,
		log,
	)

	container.Work = &WorkComponents{
		Registry:   registry,
		Completion: completion,
		Processor:  processor,
	}
	return nil
}

// RegisterWorkTypes registers launch, pipeline stage and maintenance work.
func RegisterWorkTypes(container *Container, cfg *config.Config, log zerolog.Logger) {
	registry := container.Work.Registry

	work.RegisterLaunchWorkTypes(registry, container.AgentRepo, container.Launcher)

	work.RegisterWorkflowWorkTypes(registry, work.WorkflowDeps{
		Engine:             container.WorkflowEngine,
		LaunchStartDelay:   cfg.Scheduler.LaunchStartDelay,
		ApprovalStartDelay: cfg.Scheduler.ApprovalStartDelay,
	})

	maintenance := &work.MaintenanceDeps{
		Completions: container.Work.Completion,
		Log:         log,
	}
	for _, db := range container.Databases() {
		maintenance.Databases = append(maintenance.Databases, db)
	}
	if container.BackupService != nil {
		maintenance.Backup = container.BackupService
	}
	work.RegisterMaintenanceWorkTypes(registry, maintenance)

	log.Info().Int("work_types", registry.Count()).Msg("Work types registered")
}
