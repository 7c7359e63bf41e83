package workflow

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aristath/foundry/internal/database"
	"github.com/aristath/foundry/internal/domain"
	testingpkg "github.com/aristath/foundry/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*Repository, *sql.DB) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "foundry")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop()), db.Conn()
}

func sampleResearch() *domain.ResearchData {
	return &domain.ResearchData{
		Competitors:    []domain.Competitor{{Name: "Acme"}},
		MarketAnalysis: domain.MarketAnalysis{MarketSize: "$1B"},
	}
}

func sampleProduct() *domain.ProductData {
	return &domain.ProductData{ProductName: "Widget", Tagline: "Widgets for all"}
}

func TestRepository_InitAndGet(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()

	agentID := testingpkg.InsertAgent(t, conn, testingpkg.DefaultAgent("INIT"))
	res, err := conn.Exec(`INSERT INTO companies (name, ceo_agent_id) VALUES ('Init Co', ?)`, agentID)
	require.NoError(t, err)
	companyID, _ := res.LastInsertId()

	err = database.WithTransaction(conn, func(tx *sql.Tx) error {
		return repo.InitTx(ctx, tx, companyID)
	})
	require.NoError(t, err)

	state, err := repo.Get(ctx, companyID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StepResearch, state.CurrentStep)
	assert.Equal(t, StatusActive, state.Status)
	assert.Nil(t, state.ResearchData)

	missing, err := repo.Get(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_AdvanceIsConditional(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, conn, "Cond", 1, "research", "active")

	err := repo.Advance(ctx, Transition{
		CompanyID: companyID, From: StepResearch, To: StepProduct, Status: StatusActive,
		Research: sampleResearch(),
	})
	require.NoError(t, err)

	// Same transition again loses: the cursor already moved.
	err = repo.Advance(ctx, Transition{
		CompanyID: companyID, From: StepResearch, To: StepProduct, Status: StatusActive,
		Research: &domain.ResearchData{Competitors: []domain.Competitor{{Name: "Other"}}},
	})
	assert.ErrorIs(t, err, ErrStepConflict)

	state, err := repo.Get(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, StepProduct, state.CurrentStep)
	require.NotNil(t, state.ResearchData)
	assert.Equal(t, "Acme", state.ResearchData.Competitors[0].Name)
}

func TestRepository_AdvanceRejectsInvalidPayload(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, conn, "Invalid", 1, "product", "active")

	err := repo.Advance(ctx, Transition{
		CompanyID: companyID, From: StepProduct, To: StepVoting, Status: StatusActive,
		Product: &domain.ProductData{},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	state, err := repo.Get(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, StepProduct, state.CurrentStep)
}

func TestRepository_AdvanceStoresBoltPrompt(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, conn, "Bolt", 1, "engineering", "active")

	err := repo.Advance(ctx, Transition{
		CompanyID: companyID, From: StepEngineering, To: StepComplete, Status: StatusCompleted,
		BoltPrompt: &domain.BoltPrompt{WebsiteTitle: "Widget - Website", Prompt: "Build it"},
	})
	require.NoError(t, err)

	n, err := repo.CountBoltPrompts(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state, err := repo.Get(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, state.CurrentStep)
	assert.Equal(t, StatusCompleted, state.Status)
}

func TestRepository_GetRejectsCorruptPayload(t *testing.T) {
	repo, conn := setupRepo(t)
	companyID := testingpkg.InsertCompany(t, conn, "Corrupt", 1, "voting", "active")
	testingpkg.SetWorkflowPayload(t, conn, companyID, "product_data", `{"tagline":"no name"}`)

	_, err := repo.Get(context.Background(), companyID)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestRepository_FailOnlyTouchesActive(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()
	active := testingpkg.InsertCompany(t, conn, "Active", 1, "research", "active")
	paused := testingpkg.InsertCompany(t, conn, "Paused", 2, "rejected", "paused")

	require.NoError(t, repo.Fail(ctx, active, "llm exploded"))
	require.NoError(t, repo.Fail(ctx, paused, "should not apply"))

	state, err := repo.Get(ctx, active)
	require.NoError(t, err)
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "llm exploded", state.ErrorMessage)

	state, err = repo.Get(ctx, paused)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, state.Status)
	assert.Empty(t, state.ErrorMessage)
}

func TestRepository_FindActiveHonorsSettleWindow(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()

	settled := testingpkg.InsertCompany(t, conn, "Settled", 1, "research", "active")
	fresh := testingpkg.InsertCompany(t, conn, "Fresh", 2, "research", "active")
	testingpkg.InsertCompany(t, conn, "Errored", 3, "research", "error")
	testingpkg.BackdateWorkflow(t, conn, settled, time.Minute)

	ids, err := repo.FindActive(ctx, StepResearch, time.Now().Add(-10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []int64{settled}, ids)

	ids, err = repo.FindActive(ctx, StepResearch, time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{settled, fresh}, ids)
}

func TestRepository_ApplyVote(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()
	companyID := testingpkg.InsertCompany(t, conn, "Voting", 1, "voting", "active")

	v := &Vote{CompanyID: companyID, VoteType: VoteTypeProductApproval, Vote: VoteApprove, VoterID: "alice"}
	require.NoError(t, repo.ApplyVote(ctx, v, StepApproved, StatusActive))
	assert.Positive(t, v.ID)
	assert.Positive(t, v.CreatedAt)

	// A second vote arrives after the cursor moved on.
	late := &Vote{CompanyID: companyID, VoteType: VoteTypeProductApproval, Vote: VoteReject, VoterID: "bob"}
	assert.ErrorIs(t, repo.ApplyVote(ctx, late, StepRejected, StatusPaused), ErrNotVoting)

	votes, err := repo.Votes(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "alice", votes[0].VoterID)

	summary, err := repo.VoteSummary(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, VoteSummary{Approve: 1, Reject: 0, Total: 1}, *summary)
}

func TestRepository_VoteSummaryEmpty(t *testing.T) {
	repo, _ := setupRepo(t)

	summary, err := repo.VoteSummary(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, VoteSummary{}, *summary)
}
