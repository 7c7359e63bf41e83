package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/foundry/internal/modules/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct{ mock.Mock }

func (m *mockService) Get(ctx context.Context, companyID int64) (*workflow.State, error) {
	args := m.Called(companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.State), args.Error(1)
}

func (m *mockService) Vote(ctx context.Context, companyID int64, req workflow.VoteRequest) (*workflow.VoteResult, error) {
	args := m.Called(companyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.VoteResult), args.Error(1)
}

func (m *mockService) Votes(ctx context.Context, companyID int64) ([]workflow.Vote, error) {
	args := m.Called(companyID)
	return args.Get(0).([]workflow.Vote), args.Error(1)
}

func (m *mockService) VoteSummary(ctx context.Context, companyID int64) (*workflow.VoteSummary, error) {
	args := m.Called(companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.VoteSummary), args.Error(1)
}

func setupRouter(svc Service) *chi.Mux {
	router := chi.NewRouter()
	NewHandler(svc, zerolog.New(nil).Level(zerolog.Disabled)).RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w, response
}

func TestHandleGetWorkflow(t *testing.T) {
	svc := &mockService{}
	svc.On("Get", int64(7)).Return(&workflow.State{CompanyID: 7, CurrentStep: workflow.StepVoting, Status: workflow.StatusActive}, nil)
	svc.On("Get", int64(8)).Return(nil, workflow.ErrWorkflowNotFound)
	router := setupRouter(svc)

	w, response := doRequest(t, router, "GET", "/company-workflow/7", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, response["success"])
	state := response["workflow"].(map[string]interface{})
	assert.Equal(t, "voting", state["current_step"])

	w, response = doRequest(t, router, "GET", "/company-workflow/8", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "Workflow state not found", response["error"])

	w, _ = doRequest(t, router, "GET", "/company-workflow/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleVote(t *testing.T) {
	tests := []struct {
		name       string
		vote       string
		err        error
		wantStatus int
		wantText   string
	}{
		{"approve", "approve", nil, http.StatusOK, "Product Development Report approved successfully!"},
		{"reject", "reject", nil, http.StatusOK, "Product Development Report rejected successfully!"},
		{"invalid", "maybe", workflow.ErrInvalidVote, http.StatusBadRequest, "Invalid vote. Must be approve or reject."},
		{"not voting", "approve", workflow.ErrNotVoting, http.StatusBadRequest, "Workflow is not awaiting a vote"},
		{"missing", "approve", workflow.ErrWorkflowNotFound, http.StatusNotFound, "Workflow state not found"},
		{"storage", "approve", errors.New("disk full"), http.StatusInternalServerError, "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			req := workflow.VoteRequest{Vote: tt.vote, VoterID: "alice"}
			if tt.err != nil {
				svc.On("Vote", int64(3), req).Return(nil, tt.err)
			} else {
				svc.On("Vote", int64(3), req).Return(&workflow.VoteResult{
					Vote:    workflow.Vote{CompanyID: 3, Vote: tt.vote, VoterID: "alice"},
					NewStep: workflow.StepApproved,
				}, nil)
			}

			w, response := doRequest(t, setupRouter(svc), "POST", "/company-workflow/3/vote",
				map[string]string{"vote": tt.vote, "voterId": "alice"})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.err == nil {
				assert.Equal(t, tt.wantText, response["message"])
				assert.Equal(t, "approved", response["newStep"])
			} else {
				assert.Equal(t, tt.wantText, response["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleVote_BadBody(t *testing.T) {
	router := setupRouter(&mockService{})

	req := httptest.NewRequest("POST", "/company-workflow/3/vote", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetVotesAndSummary(t *testing.T) {
	svc := &mockService{}
	svc.On("Votes", int64(5)).Return([]workflow.Vote{{ID: 1, CompanyID: 5, Vote: "approve"}}, nil)
	svc.On("VoteSummary", int64(5)).Return(&workflow.VoteSummary{Approve: 1, Total: 1}, nil)
	router := setupRouter(svc)

	w, response := doRequest(t, router, "GET", "/company-workflow/5/votes", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["votes"], 1)

	w, response = doRequest(t, router, "GET", "/company-workflow/5/votes/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	summary := response["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["approve"])
	assert.Equal(t, float64(0), summary["reject"])
	assert.Equal(t, float64(1), summary["total"])
}

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		NewHandler(&mockService{}, zerolog.Nop()).RegisterRoutes(router)
	})
}
