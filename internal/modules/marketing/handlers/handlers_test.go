package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/foundry/internal/domain"
	"github.com/aristath/foundry/internal/modules/marketing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct{ mock.Mock }

func (m *mockService) GenerateStrategy(ctx context.Context, req marketing.StrategyRequest) (*domain.MarketingStrategy, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarketingStrategy), args.Error(1)
}

func (m *mockService) BoltPrompt(req marketing.BoltPromptRequest) *domain.BoltPrompt {
	return &domain.BoltPrompt{WebsiteTitle: req.ProductName() + " - Website", Prompt: "p"}
}

func (m *mockService) CreatePDR(ctx context.Context, idea domain.Idea, product *domain.ProductData) (int64, error) {
	args := m.Called(idea, product)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockService) GetPDR(ctx context.Context, id int64) (*marketing.PDR, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketing.PDR), args.Error(1)
}

func (m *mockService) ApprovePDR(ctx context.Context, id int64) (*marketing.Approval, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketing.Approval), args.Error(1)
}

func (m *mockService) Activities(ctx context.Context) ([]marketing.Activity, error) {
	args := m.Called()
	return args.Get(0).([]marketing.Activity), args.Error(1)
}

func (m *mockService) Posts(ctx context.Context) ([]marketing.Post, error) {
	args := m.Called()
	return args.Get(0).([]marketing.Post), args.Error(1)
}

func setupRouter(svc Service) *chi.Mux {
	router := chi.NewRouter()
	NewHandler(svc, zerolog.New(nil).Level(zerolog.Disabled)).RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	reader := bytes.NewReader(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w, response
}

var (
	testIdea    = map[string]interface{}{"title": "Solar Drones"}
	testProduct = map[string]interface{}{"product_name": "SunFly"}
)

func TestHandleMarketingStrategy(t *testing.T) {
	svc := &mockService{}
	svc.On("GenerateStrategy", mock.MatchedBy(func(req marketing.StrategyRequest) bool {
		return req.Idea.Title == "Solar Drones" && req.ShouldPublish()
	})).Return(&domain.MarketingStrategy{
		BrandPositioning: "p",
		Posts:            []domain.PostResult{{Platform: "twitter", Success: true}},
	}, nil)

	w, resp := doRequest(t, setupRouter(svc), http.MethodPost, "/agents/marketing-strategy", map[string]interface{}{
		"idea": testIdea, "productData": testProduct,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "p", resp["strategy"].(map[string]interface{})["brand_positioning"])
	assert.Len(t, resp["postResp"], 1)
}

func TestHandleMarketingStrategy_MissingFields(t *testing.T) {
	svc := &mockService{}
	w, resp := doRequest(t, setupRouter(svc), http.MethodPost, "/agents/marketing-strategy", map[string]interface{}{
		"idea": testIdea,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Idea and product data are required", resp["error"])
	svc.AssertNotCalled(t, "GenerateStrategy", mock.Anything)
}

func TestHandleBoltPrompt(t *testing.T) {
	router := setupRouter(&mockService{})

	w, resp := doRequest(t, router, http.MethodPost, "/agents/bolt-prompt", map[string]interface{}{"productData": testProduct})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SunFly - Website", resp["boltPrompt"].(map[string]interface{})["website_title"])

	w, resp = doRequest(t, router, http.MethodPost, "/agents/bolt-prompt", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Your Product - Website", resp["boltPrompt"].(map[string]interface{})["website_title"])
}

func TestHandleCreatePDR(t *testing.T) {
	svc := &mockService{}
	svc.On("CreatePDR", domain.Idea{Title: "Solar Drones"}, &domain.ProductData{ProductName: "SunFly"}).Return(int64(3), nil)
	router := setupRouter(svc)

	w, resp := doRequest(t, router, http.MethodPost, "/agents/pdrs", map[string]interface{}{
		"idea": testIdea, "product": testProduct,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), resp["pdrId"])

	w, resp = doRequest(t, router, http.MethodPost, "/agents/pdrs", map[string]interface{}{"idea": testIdea})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Idea and product are required", resp["error"])
}

func TestHandleGetPDR(t *testing.T) {
	svc := &mockService{}
	svc.On("GetPDR", int64(3)).Return(&marketing.PDR{ID: 3, Status: marketing.PDRDraft, Idea: domain.Idea{Title: "Solar Drones"}}, nil)
	svc.On("GetPDR", int64(4)).Return(nil, marketing.ErrPDRNotFound)
	router := setupRouter(svc)

	w, resp := doRequest(t, router, http.MethodGet, "/agents/pdrs/3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	pdr := resp["pdr"].(map[string]interface{})
	assert.Equal(t, "Solar Drones", pdr["idea"].(map[string]interface{})["title"])

	w, resp = doRequest(t, router, http.MethodGet, "/agents/pdrs/4", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PDR not found", resp["error"])

	w, _ = doRequest(t, router, http.MethodGet, "/agents/pdrs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleApprovePDR(t *testing.T) {
	svc := &mockService{}
	svc.On("ApprovePDR", int64(1)).Return(&marketing.Approval{
		Strategy: &domain.MarketingStrategy{BrandPositioning: "p"},
		Posts:    []domain.PostResult{{Platform: "twitter"}, {Platform: "linkedin"}},
	}, nil)
	svc.On("ApprovePDR", int64(2)).Return(nil, marketing.ErrPDRAlreadyApproved)
	svc.On("ApprovePDR", int64(3)).Return(nil, marketing.ErrPDRNotFound)
	svc.On("ApprovePDR", int64(4)).Return(nil, errors.New("disk full"))
	router := setupRouter(svc)

	w, resp := doRequest(t, router, http.MethodPost, "/agents/pdrs/1/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["postResp"], 2)

	w, resp = doRequest(t, router, http.MethodPost, "/agents/pdrs/2/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "PDR already approved", resp["message"])

	w, _ = doRequest(t, router, http.MethodPost, "/agents/pdrs/3/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = doRequest(t, router, http.MethodPost, "/agents/pdrs/4/approve", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestHandleActivitiesAndPosts(t *testing.T) {
	svc := &mockService{}
	svc.On("Activities").Return([]marketing.Activity{{ID: 1, AgentName: "CMO Agent", Activity: "Posted to twitter"}}, nil)
	svc.On("Posts").Return([]marketing.Post{}, nil)
	router := setupRouter(svc)

	w, resp := doRequest(t, router, http.MethodGet, "/agents/activities", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["activities"], 1)

	w, resp = doRequest(t, router, http.MethodGet, "/agents/posts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["posts"])
}
