package workflow

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aristath/foundry/internal/domain"
	"github.com/aristath/foundry/internal/events"
	"github.com/aristath/foundry/internal/modules/companies"
	testingpkg "github.com/aristath/foundry/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResearcher struct{ mock.Mock }

func (m *mockResearcher) Research(ctx context.Context, idea domain.Idea) (*domain.ResearchData, error) {
	args := m.Called(ctx, idea)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResearchData), args.Error(1)
}

type mockProductManager struct{ mock.Mock }

func (m *mockProductManager) DesignProduct(ctx context.Context, idea domain.Idea, research *domain.ResearchData) (*domain.ProductData, error) {
	args := m.Called(ctx, idea, research)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductData), args.Error(1)
}

type mockMarketing struct{ mock.Mock }

func (m *mockMarketing) RunMarketing(ctx context.Context, in domain.MarketingInput) (*domain.MarketingStrategy, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarketingStrategy), args.Error(1)
}

type mockCTO struct{ mock.Mock }

func (m *mockCTO) TechnicalStrategy(ctx context.Context, idea domain.Idea, product *domain.ProductData, marketing *domain.MarketingStrategy) (*domain.TechnicalStrategy, error) {
	args := m.Called(ctx, idea, product, marketing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TechnicalStrategy), args.Error(1)
}

type mockEngineer struct{ mock.Mock }

func (m *mockEngineer) BoltPrompt(ctx context.Context, idea domain.Idea, product *domain.ProductData) (*domain.BoltPrompt, error) {
	args := m.Called(ctx, idea, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoltPrompt), args.Error(1)
}

type engineFixture struct {
	engine     *Engine
	repo       *Repository
	conn       *sql.DB
	researcher *mockResearcher
	pm         *mockProductManager
	marketing  *mockMarketing
	cto        *mockCTO
	engineer   *mockEngineer
	events     *testingpkg.RecordingEmitter
	waker      *testingpkg.RecordingWaker
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t, "foundry")
	t.Cleanup(cleanup)

	f := &engineFixture{
		repo:       NewRepository(db.Conn(), zerolog.Nop()),
		conn:       db.Conn(),
		researcher: &mockResearcher{},
		pm:         &mockProductManager{},
		marketing:  &mockMarketing{},
		cto:        &mockCTO{},
		engineer:   &mockEngineer{},
		events:     testingpkg.NewRecordingEmitter(),
		waker:      &testingpkg.RecordingWaker{},
	}
	f.engine = NewEngine(Deps{
		Store:          f.repo,
		Companies:      companies.NewRepository(db.Conn(), zerolog.Nop()),
		Researcher:     f.researcher,
		ProductManager: f.pm,
		Marketing:      f.marketing,
		CTO:            f.cto,
		Engineering:    f.engineer,
		Events:         f.events,
		Waker:          f.waker,
	}, time.Second, zerolog.Nop())
	return f
}

func (f *engineFixture) heldLocks() int {
	f.engine.locksMu.Lock()
	defer f.engine.locksMu.Unlock()
	return len(f.engine.locks)
}

func (f *engineFixture) state(t *testing.T, companyID int64) *State {
	t.Helper()
	state, err := f.repo.Get(context.Background(), companyID)
	require.NoError(t, err)
	require.NotNil(t, state)
	return state
}

func TestEngine_RunResearchAdvancesToProduct(t *testing.T) {
	f := newEngineFixture(t)
	companyID := testingpkg.InsertCompany(t, f.conn, "Research", 1, "research", "active")

	f.researcher.On("Research", mock.Anything, mock.MatchedBy(func(idea domain.Idea) bool {
		return idea.ID == companyID && idea.Title == "Research idea" && idea.PotentialRevenue == "$1M+"
	})).Return(sampleResearch(), nil).Once()

	require.NoError(t, f.engine.RunResearch(context.Background(), companyID))

	state := f.state(t, companyID)
	assert.Equal(t, StepProduct, state.CurrentStep)
	assert.Equal(t, StatusActive, state.Status)
	require.NotNil(t, state.ResearchData)
	assert.Equal(t, []events.EventType{events.WorkflowStepChanged}, f.events.Types())
	f.researcher.AssertExpectations(t)
}

func TestEngine_StageSkipsWhenCursorElsewhere(t *testing.T) {
	f := newEngineFixture(t)
	companyID := testingpkg.InsertCompany(t, f.conn, "Skip", 1, "voting", "active")

	require.NoError(t, f.engine.RunResearch(context.Background(), companyID))
	require.NoError(t, f.engine.RunMarketing(context.Background(), companyID))

	f.researcher.AssertNotCalled(t, "Research", mock.Anything, mock.Anything)
	f.marketing.AssertNotCalled(t, "RunMarketing", mock.Anything, mock.Anything)
	assert.Empty(t, f.events.Types())
}

func TestEngine_MissingWorkflow(t *testing.T) {
	f := newEngineFixture(t)
	assert.ErrorIs(t, f.engine.RunResearch(context.Background(), 404), ErrWorkflowNotFound)

	_, err := f.engine.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestEngine_StageErrorMarksWorkflow(t *testing.T) {
	f := newEngineFixture(t)
	companyID := testingpkg.InsertCompany(t, f.conn, "Broken", 1, "research", "active")

	f.researcher.On("Research", mock.Anything, mock.Anything).Return(nil, context.Canceled).Once()

	err := f.engine.RunResearch(context.Background(), companyID)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	state := f.state(t, companyID)
	assert.Equal(t, StepResearch, state.CurrentStep)
	assert.Equal(t, StatusError, state.Status)
	assert.Contains(t, state.ErrorMessage, "context canceled")
	assert.Equal(t, []events.EventType{events.WorkflowFailed}, f.events.Types())

	// Errored workflows are not picked up again.
	ids, err := f.engine.Pending(context.Background(), StepResearch, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEngine_FallbackContentAdvancesAndIsFlagged(t *testing.T) {
	f := newEngineFixture(t)
	companyID := testingpkg.InsertCompany(t, f.conn, "Fallback", 1, "product", "active")

	product := sampleProduct()
	product.Fallback = true
	f.pm.On("DesignProduct", mock.Anything, mock.Anything, (*domain.ResearchData)(nil)).Return(product, nil).Once()

	require.NoError(t, f.engine.RunProduct(context.Background(), companyID))

	state := f.state(t, companyID)
	assert.Equal(t, StepVoting, state.CurrentStep)
	require.NotNil(t, state.ProductData)
	assert.True(t, state.ProductData.Fallback)

	recorded := f.events.Events()
	require.Len(t, recorded, 1)
	changed, ok := recorded[0].(*events.WorkflowStepChangedData)
	require.True(t, ok)
	assert.True(t, changed.Fallback)
}

func TestEngine_ConcurrentStageRunsOnce(t *testing.T) {
	f := newEngineFixture(t)
	companyID := testingpkg.InsertCompany(t, f.conn, "Race", 1, "research", "active")

	f.researcher.On("Research", mock.Anything, mock.Anything).Return(sampleResearch(), nil).Once()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.engine.RunResearch(context.Background(), companyID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	f.researcher.AssertNumberOfCalls(t, "Research", 1)
	assert.Equal(t, StepProduct, f.state(t, companyID).CurrentStep)
}

func TestEngine_VoteValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, f.conn, "Validate", 1, "research", "active")

	_, err := f.engine.Vote(ctx, companyID, VoteRequest{Vote: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidVote)

	_, err = f.engine.Vote(ctx, companyID, VoteRequest{Vote: VoteApprove})
	assert.ErrorIs(t, err, ErrNotVoting)

	_, err = f.engine.Vote(ctx, 999, VoteRequest{Vote: VoteApprove})
	assert.ErrorIs(t, err, ErrWorkflowNotFound)

	assert.Empty(t, f.waker.Delays())
}

func TestEngine_RejectPausesForGood(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, f.conn, "Rejected", 1, "voting", "active")

	result, err := f.engine.Vote(ctx, companyID, VoteRequest{Vote: VoteReject, Feedback: "no"})
	require.NoError(t, err)
	assert.Equal(t, StepRejected, result.NewStep)
	assert.Equal(t, "anonymous", result.Vote.VoterID)
	assert.Empty(t, f.waker.Delays())

	require.NoError(t, f.engine.RunMarketing(ctx, companyID))
	require.NoError(t, f.engine.RunEngineering(ctx, companyID))

	state := f.state(t, companyID)
	assert.Equal(t, StepRejected, state.CurrentStep)
	assert.Equal(t, StatusPaused, state.Status)
	f.marketing.AssertNotCalled(t, "RunMarketing", mock.Anything, mock.Anything)
}

func TestEngine_FullPipeline(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, f.conn, "Pipeline", 1, "research", "active")

	research := sampleResearch()
	product := sampleProduct()
	strategy := &domain.MarketingStrategy{BrandPositioning: "Best widgets", Posts: []domain.PostResult{{Platform: "twitter", Success: true}}}
	technical := &domain.TechnicalStrategy{Architecture: "Monolith"}
	prompt := &domain.BoltPrompt{WebsiteTitle: "Widget - Website", Prompt: "Build a site"}

	f.researcher.On("Research", mock.Anything, mock.Anything).Return(research, nil).Once()
	f.pm.On("DesignProduct", mock.Anything, mock.Anything, mock.Anything).Return(product, nil).Once()
	f.marketing.On("RunMarketing", mock.Anything, mock.MatchedBy(func(in domain.MarketingInput) bool {
		return in.Publish && in.Product != nil && in.Product.ProductName == "Widget" && in.Research != nil
	})).Return(strategy, nil).Once()
	f.cto.On("TechnicalStrategy", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(technical, nil).Once()
	f.engineer.On("BoltPrompt", mock.Anything, mock.Anything, mock.Anything).Return(prompt, nil).Once()

	require.NoError(t, f.engine.RunResearch(ctx, companyID))
	require.NoError(t, f.engine.RunProduct(ctx, companyID))
	assert.Equal(t, StepVoting, f.state(t, companyID).CurrentStep)

	result, err := f.engine.Vote(ctx, companyID, VoteRequest{Vote: VoteApprove, VoterID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, StepApproved, result.NewStep)
	assert.Equal(t, []time.Duration{time.Second}, f.waker.Delays())

	require.NoError(t, f.engine.RunMarketing(ctx, companyID))
	state := f.state(t, companyID)
	assert.Equal(t, StepEngineering, state.CurrentStep)
	require.NotNil(t, state.MarketingStrategy)
	require.NotNil(t, state.TechnicalStrategy)
	assert.Len(t, state.MarketingStrategy.Posts, 1)

	require.NoError(t, f.engine.RunEngineering(ctx, companyID))
	state = f.state(t, companyID)
	assert.Equal(t, StepComplete, state.CurrentStep)
	assert.Equal(t, StatusCompleted, state.Status)

	n, err := f.repo.CountBoltPrompts(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	summary, err := f.engine.VoteSummary(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, VoteSummary{Approve: 1, Reject: 0, Total: 1}, *summary)

	votes, err := f.engine.Votes(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, VoteTypeProductApproval, votes[0].VoteType)
}

func TestEngine_AdminApproveRunsMarketingInline(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, f.conn, "Admin", 1, "voting", "active")
	require.NoError(t, f.repo.Advance(ctx, Transition{
		CompanyID: companyID, From: StepVoting, To: StepVoting, Status: StatusActive, Product: sampleProduct(),
	}))

	f.marketing.On("RunMarketing", mock.Anything, mock.Anything).
		Return(&domain.MarketingStrategy{BrandPositioning: "Admin approved"}, nil).Once()
	f.cto.On("TechnicalStrategy", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.TechnicalStrategy{Architecture: "Serverless"}, nil).Once()

	state, err := f.engine.AdminApprove(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, StepEngineering, state.CurrentStep)
	assert.Equal(t, "Admin approved", state.MarketingStrategy.BrandPositioning)

	votes, err := f.engine.Votes(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "admin", votes[0].VoterID)
	assert.Equal(t, "Approved", votes[0].Feedback)
}

func TestEngine_AdminApproveErrors(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.AdminApprove(ctx, 12345)
	assert.ErrorIs(t, err, companies.ErrCompanyNotFound)

	companyID := testingpkg.InsertCompany(t, f.conn, "Early", 1, "research", "active")
	_, err = f.engine.AdminApprove(ctx, companyID)
	assert.ErrorIs(t, err, ErrNotVoting)
}

func TestEngine_MarketingFailureRecordsError(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, f.conn, "NoProduct", 1, "approved", "active")

	err := f.engine.RunMarketing(ctx, companyID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrStepConflict))

	state := f.state(t, companyID)
	assert.Equal(t, StatusError, state.Status)
	assert.Contains(t, state.ErrorMessage, "no product data")
}

func TestEngine_LocksReleasedAfterCompletion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, f.conn, "Done", 1, "engineering", "active")

	f.engineer.On("BoltPrompt", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.BoltPrompt{WebsiteTitle: "Done - Website"}, nil).Once()

	require.NoError(t, f.engine.RunEngineering(ctx, companyID))
	assert.Equal(t, StepComplete, f.state(t, companyID).CurrentStep)
	assert.Zero(t, f.heldLocks())
}

func TestEngine_LockSerializesOneCompany(t *testing.T) {
	f := newEngineFixture(t)

	unlock := f.engine.lock(7)
	acquired := make(chan struct{})
	go func() {
		release := f.engine.lock(7)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, f.heldLocks())

	other := f.engine.lock(8)
	assert.Equal(t, 2, f.heldLocks())
	other()

	unlock()
	<-acquired
	assert.Eventually(t, func() bool { return f.heldLocks() == 0 }, time.Second, 5*time.Millisecond)
}
