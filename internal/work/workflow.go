package work

import (
	"context"
	"time"

	"github.com/aristath/foundry/internal/modules/workflow"
)

// Workflow stage work type IDs
const (
	WorkTypeResearch    = "workflow:research"
	WorkTypeProduct     = "workflow:product"
	WorkTypeMarketing   = "workflow:marketing"
	WorkTypeEngineering = "workflow:engineering"
)

// StageRunner advances company pipelines. *workflow.Engine implements it.
type StageRunner interface {
	Pending(ctx context.Context, step workflow.Step, delay time.Duration) ([]int64, error)
	RunResearch(ctx context.Context, companyID int64) error
	RunProduct(ctx context.Context, companyID int64) error
	RunMarketing(ctx context.Context, companyID int64) error
	RunEngineering(ctx context.Context, companyID int64) error
}

// WorkflowDeps configures the stage work types.
type WorkflowDeps struct {
	Engine             StageRunner
	LaunchStartDelay   time.Duration // settle time before research starts
	ApprovalStartDelay time.Duration // settle time before marketing starts
}

// RegisterWorkflowWorkTypes registers one work type per automatic pipeline stage.
// Stages are not retried: a failed stage leaves the workflow in error status.
func RegisterWorkflowWorkTypes(registry *Registry, deps WorkflowDeps) {
	stages := []struct {
		id          string
		description string
		step        workflow.Step
		delay       time.Duration
		run         func(ctx context.Context, companyID int64) error
	}{
		{WorkTypeResearch, "Market research for new companies", workflow.StepResearch, deps.LaunchStartDelay, deps.Engine.RunResearch},
		{WorkTypeProduct, "Product design after research", workflow.StepProduct, 0, deps.Engine.RunProduct},
		{WorkTypeMarketing, "Marketing launch for approved products", workflow.StepApproved, deps.ApprovalStartDelay, deps.Engine.RunMarketing},
		{WorkTypeEngineering, "Website brief for the engineering handoff", workflow.StepEngineering, 0, deps.Engine.RunEngineering},
	}

	for _, s := range stages {
		s := s
		registry.Register(&WorkType{
			ID:          s.id,
			Description: s.description,
			Priority:    PriorityHigh,
			MaxRetries:  -1,
			FindSubjects: func(ctx context.Context) ([]string, error) {
				ids, err := deps.Engine.Pending(ctx, s.step, s.delay)
				if err != nil {
					return nil, err
				}
				return formatIDs(ids), nil
			},
			Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
				companyID, err := parseID(subject)
				if err != nil {
					return err
				}
				progress.ReportPhase(string(s.step), "Running stage")
				return s.run(ctx, companyID)
			},
		})
	}
}
