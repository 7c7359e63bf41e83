package work

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Maintenance work type IDs
const (
	WorkTypeWALCheckpoint = "maintenance:wal-checkpoint"
	WorkTypeBackup        = "maintenance:backup"
	WorkTypeCleanup       = "maintenance:cleanup"
)

// walFrameThreshold is the WAL size, in frames, above which the checkpoint
// job truncates the log.
const walFrameThreshold = 1000

// completionRetention is how long completion records are kept.
const completionRetention = 7 * 24 * time.Hour

// WALDatabase is a database whose write-ahead log can be checkpointed.
// *database.DB implements it.
type WALDatabase interface {
	Name() string
	Conn() *sql.DB
	WALCheckpoint(mode string) error
}

// BackupRunner takes one backup of the application data.
type BackupRunner interface {
	RunBackup(ctx context.Context) error
}

// MaintenanceDeps contains all dependencies for maintenance work types
type MaintenanceDeps struct {
	Databases   []WALDatabase
	Backup      BackupRunner // nil when backups are not configured
	Completions *CompletionTracker
	Log         zerolog.Logger
}

// RegisterMaintenanceWorkTypes registers all maintenance work types with the registry
func RegisterMaintenanceWorkTypes(registry *Registry, deps *MaintenanceDeps) {
	log := deps.Log.With().Str("component", "maintenance").Logger()

	// maintenance:wal-checkpoint - Keep WAL files from growing unbounded
	registry.Register(&WorkType{
		ID:          WorkTypeWALCheckpoint,
		Description: "Check WAL size and truncate large logs",
		Priority:    PriorityLow,
		Interval:    time.Hour,
		FindSubjects: func(ctx context.Context) ([]string, error) {
			return []string{""}, nil
		},
		Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
			for i, db := range deps.Databases {
				progress.Report(i, len(deps.Databases), db.Name())
				if err := checkpoint(ctx, db, log); err != nil {
					return err
				}
			}
			return nil
		},
	})

	// maintenance:backup - Snapshot and upload, enqueued by the backup cron job
	if deps.Backup != nil {
		registry.Register(&WorkType{
			ID:          WorkTypeBackup,
			Description: "Upload a database snapshot to object storage",
			Priority:    PriorityLow,
			MaxRetries:  MaxRetries,
			Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
				if err := deps.Backup.RunBackup(ctx); err != nil {
					return fmt.Errorf("failed to run backup: %w", err)
				}
				return nil
			},
		})
	}

	// maintenance:cleanup - Forget completions nobody will look at again
	registry.Register(&WorkType{
		ID:          WorkTypeCleanup,
		Description: "Prune old work completion records",
		Priority:    PriorityLow,
		Interval:    24 * time.Hour,
		FindSubjects: func(ctx context.Context) ([]string, error) {
			return []string{""}, nil
		},
		Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
			removed, err := deps.Completions.Prune(ctx, time.Now().Add(-completionRetention))
			if err != nil {
				return fmt.Errorf("failed to prune completions: %w", err)
			}
			log.Debug().Int("removed", removed).Msg("Pruned work completions")
			return nil
		},
	})
}

// checkpoint inspects the WAL passively and truncates it once it grows past the threshold.
func checkpoint(ctx context.Context, db WALDatabase, log zerolog.Logger) error {
	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		return fmt.Errorf("failed to check WAL checkpoint for %s: %w", db.Name(), err)
	}

	if frames <= walFrameThreshold {
		log.Debug().Str("database", db.Name()).Int("wal_frames", frames).Msg("WAL checkpoint status OK")
		return nil
	}

	log.Info().
		Str("database", db.Name()).
		Int("wal_frames", frames).
		Int("checkpointed", checkpointed).
		Msg("WAL file is large, truncating")
	return db.WALCheckpoint("TRUNCATE")
}
