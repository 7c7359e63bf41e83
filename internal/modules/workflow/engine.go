package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aristath/foundry/internal/domain"
	"github.com/aristath/foundry/internal/events"
	"github.com/aristath/foundry/internal/modules/companies"
	"github.com/rs/zerolog"
)

// Store is the persistence the engine needs. *Repository implements it.
type Store interface {
	Get(ctx context.Context, companyID int64) (*State, error)
	FindActive(ctx context.Context, step Step, settledBefore time.Time) ([]int64, error)
	Advance(ctx context.Context, t Transition) error
	Fail(ctx context.Context, companyID int64, reason string) error
	ApplyVote(ctx context.Context, v *Vote, to Step, status Status) error
	Votes(ctx context.Context, companyID int64) ([]Vote, error)
	VoteSummary(ctx context.Context, companyID int64) (*VoteSummary, error)
}

// CompanyReader loads the company a workflow belongs to.
type CompanyReader interface {
	GetByID(ctx context.Context, id int64) (*companies.Company, error)
}

// Researcher produces the research stage output.
type Researcher interface {
	Research(ctx context.Context, idea domain.Idea) (*domain.ResearchData, error)
}

// ProductManager produces the product stage output.
type ProductManager interface {
	DesignProduct(ctx context.Context, idea domain.Idea, research *domain.ResearchData) (*domain.ProductData, error)
}

// MarketingRunner produces a marketing strategy and publishes its posts.
type MarketingRunner interface {
	RunMarketing(ctx context.Context, in domain.MarketingInput) (*domain.MarketingStrategy, error)
}

// TechnicalStrategist produces the CTO's technical strategy.
type TechnicalStrategist interface {
	TechnicalStrategy(ctx context.Context, idea domain.Idea, product *domain.ProductData, marketing *domain.MarketingStrategy) (*domain.TechnicalStrategy, error)
}

// WebsiteBriefer produces the engineering handoff prompt.
type WebsiteBriefer interface {
	BoltPrompt(ctx context.Context, idea domain.Idea, product *domain.ProductData) (*domain.BoltPrompt, error)
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Waker schedules a processor pass after a delay.
type Waker interface {
	TriggerAfter(d time.Duration)
}

// Deps are the collaborators injected into the engine.
type Deps struct {
	Store          Store
	Companies      CompanyReader
	Researcher     Researcher
	ProductManager ProductManager
	Marketing      MarketingRunner
	CTO            TechnicalStrategist
	Engineering    WebsiteBriefer
	Events         EventEmitter // optional
	Waker          Waker        // optional
}

// Engine drives company workflows through their stages.
//
// Stage methods are idempotent: they do nothing unless the persisted cursor is
// on their step and active, and they advance it with a conditional update.
// A per-company lock keeps two stages of one company from overlapping.
type Engine struct {
	deps          Deps
	approvalDelay time.Duration
	locks         map[int64]*companyLock
	locksMu       sync.Mutex
	log           zerolog.Logger
}

// companyLock is dropped from the map once nobody holds or waits on it.
type companyLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates a workflow engine.
func NewEngine(deps Deps, approvalDelay time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		deps:          deps,
		approvalDelay: approvalDelay,
		locks:         make(map[int64]*companyLock),
		log:           log.With().Str("component", "workflow_engine").Logger(),
	}
}

func (e *Engine) lock(companyID int64) func() {
	e.locksMu.Lock()
	l, ok := e.locks[companyID]
	if !ok {
		l = &companyLock{}
		e.locks[companyID] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, companyID)
		}
		e.locksMu.Unlock()
	}
}

// IdeaFor builds the idea a company's pipeline works on.
func IdeaFor(c *companies.Company) domain.Idea {
	title := c.CompanyIdea
	if strings.TrimSpace(title) == "" {
		title = c.Name
	}
	description := c.Description
	if strings.TrimSpace(description) == "" {
		description = "AI-powered innovation"
	}
	return domain.Idea{
		ID:               c.ID,
		Title:            title,
		Description:      description,
		PotentialRevenue: "$1M+",
		Status:           "approved",
	}
}

// Pending returns companies whose cursor is on step and has been settled for at least delay.
func (e *Engine) Pending(ctx context.Context, step Step, delay time.Duration) ([]int64, error) {
	return e.deps.Store.FindActive(ctx, step, time.Now().Add(-delay))
}

type stageFunc func(ctx context.Context, state *State, idea domain.Idea) (Transition, error)

// runStage loads state, runs fn if the cursor is on step, and persists the transition.
// Stage failures mark the workflow as errored and are returned to the caller.
func (e *Engine) runStage(ctx context.Context, companyID int64, step Step, fn stageFunc) error {
	unlock := e.lock(companyID)
	defer unlock()

	state, err := e.deps.Store.Get(ctx, companyID)
	if err != nil {
		return e.fail(ctx, companyID, step, err)
	}
	if state == nil {
		return ErrWorkflowNotFound
	}
	if state.CurrentStep != step || state.Status != StatusActive {
		e.log.Debug().
			Int64("company_id", companyID).
			Str("expected", string(step)).
			Str("step", string(state.CurrentStep)).
			Str("status", string(state.Status)).
			Msg("Stage not applicable, skipping")
		return nil
	}

	company, err := e.deps.Companies.GetByID(ctx, companyID)
	if err != nil {
		return e.fail(ctx, companyID, step, err)
	}
	if company == nil {
		return e.fail(ctx, companyID, step, companies.ErrCompanyNotFound)
	}

	started := time.Now()
	e.log.Info().Int64("company_id", companyID).Str("step", string(step)).Msg("Stage started")

	t, err := fn(ctx, state, IdeaFor(company))
	if err != nil {
		return e.fail(ctx, companyID, step, err)
	}

	t.CompanyID = companyID
	t.From = step
	if err := e.deps.Store.Advance(ctx, t); err != nil {
		if errors.Is(err, ErrStepConflict) {
			e.log.Warn().Int64("company_id", companyID).Str("step", string(step)).Msg("Stage result discarded, cursor moved")
			return nil
		}
		return e.fail(ctx, companyID, step, err)
	}

	e.log.Info().
		Int64("company_id", companyID).
		Str("from", string(step)).
		Str("to", string(t.To)).
		Bool("fallback", t.fallback()).
		Dur("duration", time.Since(started)).
		Msg("Stage completed")

	e.emit(&events.WorkflowStepChangedData{
		CompanyID: companyID,
		From:      string(step),
		To:        string(t.To),
		Status:    string(t.Status),
		Fallback:  t.fallback(),
	})
	return nil
}

func (e *Engine) fail(ctx context.Context, companyID int64, step Step, cause error) error {
	e.log.Error().Err(cause).Int64("company_id", companyID).Str("step", string(step)).Msg("Stage failed")

	// Record against a fresh context so a cancelled stage still lands in storage.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.deps.Store.Fail(recordCtx, companyID, cause.Error()); err != nil {
		e.log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to record workflow error")
	}

	e.emit(&events.WorkflowFailedData{
		CompanyID: companyID,
		Step:      string(step),
		Error:     cause.Error(),
	})
	return fmt.Errorf("%s stage failed for company %d: %w", step, companyID, cause)
}

func (e *Engine) emit(data events.EventData) {
	if e.deps.Events != nil {
		e.deps.Events.EmitTyped("workflow", data)
	}
}

// RunResearch runs the research stage: research → product.
func (e *Engine) RunResearch(ctx context.Context, companyID int64) error {
	return e.runStage(ctx, companyID, StepResearch, func(ctx context.Context, _ *State, idea domain.Idea) (Transition, error) {
		research, err := e.deps.Researcher.Research(ctx, idea)
		if err != nil {
			return Transition{}, err
		}
		return Transition{To: StepProduct, Status: StatusActive, Research: research}, nil
	})
}

// RunProduct runs the product stage: product → voting.
func (e *Engine) RunProduct(ctx context.Context, companyID int64) error {
	return e.runStage(ctx, companyID, StepProduct, func(ctx context.Context, state *State, idea domain.Idea) (Transition, error) {
		product, err := e.deps.ProductManager.DesignProduct(ctx, idea, state.ResearchData)
		if err != nil {
			return Transition{}, err
		}
		return Transition{To: StepVoting, Status: StatusActive, Product: product}, nil
	})
}

// RunMarketing runs the go-to-market stage: approved → engineering.
// The CMO strategy is generated and published, then the CTO plans the build.
func (e *Engine) RunMarketing(ctx context.Context, companyID int64) error {
	return e.runStage(ctx, companyID, StepApproved, func(ctx context.Context, state *State, idea domain.Idea) (Transition, error) {
		if state.ProductData == nil {
			return Transition{}, fmt.Errorf("approved workflow has no product data")
		}

		strategy, err := e.deps.Marketing.RunMarketing(ctx, domain.MarketingInput{
			Idea:     idea,
			Product:  state.ProductData,
			Research: state.ResearchData,
			Publish:  true,
		})
		if err != nil {
			return Transition{}, fmt.Errorf("marketing strategy: %w", err)
		}

		technical, err := e.deps.CTO.TechnicalStrategy(ctx, idea, state.ProductData, strategy)
		if err != nil {
			return Transition{}, fmt.Errorf("technical strategy: %w", err)
		}

		return Transition{To: StepEngineering, Status: StatusActive, Marketing: strategy, Technical: technical}, nil
	})
}

// RunEngineering runs the handoff stage: engineering → complete.
func (e *Engine) RunEngineering(ctx context.Context, companyID int64) error {
	return e.runStage(ctx, companyID, StepEngineering, func(ctx context.Context, state *State, idea domain.Idea) (Transition, error) {
		prompt, err := e.deps.Engineering.BoltPrompt(ctx, idea, state.ProductData)
		if err != nil {
			return Transition{}, fmt.Errorf("bolt prompt: %w", err)
		}
		return Transition{To: StepComplete, Status: StatusCompleted, BoltPrompt: prompt}, nil
	})
}

// Vote records an approve or reject decision on a workflow in the voting step.
// Approval schedules the marketing stage; rejection pauses the workflow for good.
func (e *Engine) Vote(ctx context.Context, companyID int64, req VoteRequest) (*VoteResult, error) {
	result, err := e.vote(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	if result.NewStep == StepApproved && e.deps.Waker != nil {
		e.deps.Waker.TriggerAfter(e.approvalDelay)
	}
	return result, nil
}

func (e *Engine) vote(ctx context.Context, companyID int64, req VoteRequest) (*VoteResult, error) {
	var to Step
	var status Status
	switch req.Vote {
	case VoteApprove:
		to, status = StepApproved, StatusActive
	case VoteReject:
		to, status = StepRejected, StatusPaused
	default:
		return nil, ErrInvalidVote
	}

	unlock := e.lock(companyID)
	defer unlock()

	state, err := e.deps.Store.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrWorkflowNotFound
	}

	voter := strings.TrimSpace(req.VoterID)
	if voter == "" {
		voter = "anonymous"
	}
	v := &Vote{
		CompanyID: companyID,
		VoteType:  VoteTypeProductApproval,
		Vote:      req.Vote,
		VoterID:   voter,
		Feedback:  req.Feedback,
	}

	if err := e.deps.Store.ApplyVote(ctx, v, to, status); err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("company_id", companyID).
		Str("vote", v.Vote).
		Str("voter", v.VoterID).
		Str("new_step", string(to)).
		Msg("Vote recorded")

	e.emit(&events.VoteRecordedData{CompanyID: companyID, Vote: v.Vote, VoterID: v.VoterID})
	e.emit(&events.WorkflowStepChangedData{
		CompanyID: companyID,
		From:      string(StepVoting),
		To:        string(to),
		Status:    string(status),
	})

	return &VoteResult{Vote: *v, NewStep: to}, nil
}

// AdminApprove approves a company's product as the administrator and runs the
// marketing stage inline, returning the resulting strategy. Engineering is
// left to the scheduler.
func (e *Engine) AdminApprove(ctx context.Context, companyID int64) (*State, error) {
	company, err := e.deps.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companies.ErrCompanyNotFound
	}

	if _, err := e.vote(ctx, companyID, VoteRequest{Vote: VoteApprove, VoterID: "admin", Feedback: "Approved"}); err != nil {
		return nil, err
	}

	if err := e.RunMarketing(ctx, companyID); err != nil {
		return nil, err
	}
	if e.deps.Waker != nil {
		e.deps.Waker.TriggerAfter(0)
	}

	return e.Get(ctx, companyID)
}

// Get returns a company's workflow state.
func (e *Engine) Get(ctx context.Context, companyID int64) (*State, error) {
	state, err := e.deps.Store.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrWorkflowNotFound
	}
	return state, nil
}

// Votes returns a company's vote log, newest first.
func (e *Engine) Votes(ctx context.Context, companyID int64) ([]Vote, error) {
	return e.deps.Store.Votes(ctx, companyID)
}

// VoteSummary returns approve/reject counts for a company.
func (e *Engine) VoteSummary(ctx context.Context, companyID int64) (*VoteSummary, error) {
	return e.deps.Store.VoteSummary(ctx, companyID)
}
