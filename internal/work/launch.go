package work

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/foundry/internal/modules/companies"
)

// WorkTypeLaunch converts an agent whose launch date has passed into a company.
const WorkTypeLaunch = "agent:launch"

// DueAgents lists agents whose launch date has passed.
type DueAgents interface {
	DueForLaunch(ctx context.Context, now time.Time) ([]int64, error)
}

// CompanyLauncher launches one agent. *companies.Launcher implements it.
type CompanyLauncher interface {
	Launch(ctx context.Context, agentID int64) (*companies.Company, error)
}

// RegisterLaunchWorkTypes registers the agent launch work type.
func RegisterLaunchWorkTypes(registry *Registry, agents DueAgents, launcher CompanyLauncher) {
	registry.Register(&WorkType{
		ID:          WorkTypeLaunch,
		Description: "Launch agents whose launch date has passed",
		Priority:    PriorityCritical,
		MaxRetries:  MaxRetries,
		FindSubjects: func(ctx context.Context) ([]string, error) {
			ids, err := agents.DueForLaunch(ctx, time.Now())
			if err != nil {
				return nil, err
			}
			return formatIDs(ids), nil
		},
		Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
			agentID, err := parseID(subject)
			if err != nil {
				return err
			}
			if _, err := launcher.Launch(ctx, agentID); err != nil && !errors.Is(err, companies.ErrAlreadyLaunched) {
				return fmt.Errorf("failed to launch agent %d: %w", agentID, err)
			}
			return nil
		},
	})
}

func formatIDs(ids []int64) []string {
	subjects := make([]string, len(ids))
	for i, id := range ids {
		subjects[i] = strconv.FormatInt(id, 10)
	}
	return subjects
}

func parseID(subject string) (int64, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", subject, err)
	}
	return id, nil
}
