package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Free space thresholds for the data directory
const (
	criticalFreeBytes = 500 * 1000 * 1000
	lowFreeBytes      = 5 * 1000 * 1000 * 1000
)

// UsageFunc reports filesystem usage for a path.
type UsageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// DiskSpaceJob warns when the data directory runs out of room
type DiskSpaceJob struct {
	dataDir string
	usage   UsageFunc
	log     zerolog.Logger
}

// NewDiskSpaceJob creates a job that checks the filesystem holding dataDir.
func NewDiskSpaceJob(dataDir string, log zerolog.Logger) *DiskSpaceJob {
	return &DiskSpaceJob{
		dataDir: dataDir,
		usage:   disk.UsageWithContext,
		log:     log.With().Str("job", "disk_space").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *DiskSpaceJob) Name() string {
	return "disk_space"
}

// Run checks free space. Below the critical threshold it returns an error.
func (j *DiskSpaceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usage, err := j.usage(ctx, j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9

	switch {
	case usage.Free < criticalFreeBytes:
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	case usage.Free < lowFreeBytes:
		j.log.Warn().
			Float64("available_gb", availableGB).
			Float64("used_percent", usage.UsedPercent).
			Msg("Disk space running low")
	default:
		j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")
	}
	return nil
}
