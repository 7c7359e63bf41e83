package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/foundry/internal/domain"
	"github.com/aristath/foundry/internal/modules/companies"
	"github.com/aristath/foundry/internal/modules/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) GetByID(ctx context.Context, id int64) (*companies.Company, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*companies.Company), args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]companies.Company, error) {
	args := m.Called()
	return args.Get(0).([]companies.Company), args.Error(1)
}

type mockApprover struct{ mock.Mock }

func (m *mockApprover) AdminApprove(ctx context.Context, companyID int64) (*workflow.State, error) {
	args := m.Called(companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.State), args.Error(1)
}

func (m *mockApprover) Get(ctx context.Context, companyID int64) (*workflow.State, error) {
	args := m.Called(companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.State), args.Error(1)
}

func serve(t *testing.T, store CompanyStore, approver Approver, method, path string) (int, map[string]interface{}) {
	t.Helper()
	router := chi.NewRouter()
	NewHandler(store, approver, zerolog.New(nil).Level(zerolog.Disabled)).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w.Code, response
}

func TestHandleListCompanies(t *testing.T) {
	store := &mockStore{}
	store.On("List").Return([]companies.Company{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}, nil)

	code, response := serve(t, store, &mockApprover{}, "GET", "/companies")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, response["companies"], 2)
}

func TestHandleGetCompany(t *testing.T) {
	store := &mockStore{}
	store.On("GetByID", int64(1)).Return(&companies.Company{ID: 1, Name: "A"}, nil)
	store.On("GetByID", int64(2)).Return(nil, nil)
	approver := &mockApprover{}
	approver.On("Get", int64(1)).Return(&workflow.State{CompanyID: 1, CurrentStep: workflow.StepProduct}, nil)

	code, response := serve(t, store, approver, "GET", "/companies/1")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "A", response["company"].(map[string]interface{})["name"])
	assert.Equal(t, "product", response["workflow"].(map[string]interface{})["current_step"])

	code, response = serve(t, store, approver, "GET", "/companies/2")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Company not found", response["error"])
}

func TestHandleApproveCompany(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"company missing", companies.ErrCompanyNotFound, http.StatusNotFound},
		{"workflow missing", workflow.ErrWorkflowNotFound, http.StatusNotFound},
		{"not voting", workflow.ErrNotVoting, http.StatusBadRequest},
		{"stage failed", errors.New("marketing exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approver := &mockApprover{}
			if tt.err != nil {
				approver.On("AdminApprove", int64(4)).Return(nil, tt.err)
			} else {
				approver.On("AdminApprove", int64(4)).Return(&workflow.State{
					CompanyID:         4,
					CurrentStep:       workflow.StepEngineering,
					MarketingStrategy: &domain.MarketingStrategy{BrandPositioning: "Bold"},
				}, nil)
			}

			code, response := serve(t, &mockStore{}, approver, "POST", "/companies/4/approve")
			assert.Equal(t, tt.wantStatus, code)
			if tt.err == nil {
				assert.Equal(t, "Bold", response["marketing"].(map[string]interface{})["brand_positioning"])
			} else {
				assert.Equal(t, false, response["success"])
			}
		})
	}
}
