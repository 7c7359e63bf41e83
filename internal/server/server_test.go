package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/foundry/internal/database"
	"github.com/aristath/foundry/internal/events"
	"github.com/aristath/foundry/internal/work"
)

type fakeDB struct {
	err error
}

func (f *fakeDB) QuickCheck(ctx context.Context) error { return f.err }

func (f *fakeDB) GetStats() (*database.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &database.Stats{PageCount: 10, PageSize: 4096}, nil
}

type fakeWork struct{}

func (fakeWork) Status() work.Status {
	return work.Status{Running: []string{"agent:launch:1"}, Requested: 2}
}

type routeFunc func(r chi.Router)

func (f routeFunc) RegisterRoutes(r chi.Router) { f(r) }

func newTestServer(t *testing.T, db Database) (*Server, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	return New(Config{
		Log:     zerolog.Nop(),
		Port:    0,
		DevMode: true,
		DB:      db,
		Bus:     bus,
		Work:    fakeWork{},
	}), bus
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDB{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, APIVersion, body["version"])
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeDB{})

		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health-check", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "API and database connection healthy", body["message"])
		assert.Equal(t, APIVersion, body["apiVersion"])
	})

	t.Run("database down", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeDB{err: errors.New("disk I/O error")})

		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health-check", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Database connection error", body["message"])
		assert.Contains(t, body["error"], "disk I/O error")
	})
}

func TestSystemStatus(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDB{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "healthy", body.Status)
	require.NotNil(t, body.Database)
	assert.Equal(t, int64(10), body.Database.PageCount)
	require.NotNil(t, body.Work)
	assert.Equal(t, 2, body.Work.Requested)
	assert.Positive(t, body.Goroutines)
}

func TestSystemStatus_DatabaseDegraded(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDB{err: errors.New("locked")})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))

	var body SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Nil(t, body.Database)
}

func TestCEOAgentsMounting(t *testing.T) {
	var hits []string
	companies := routeFunc(func(r chi.Router) {
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) { hits = append(hits, "companies") })
		})
	})
	agents := routeFunc(func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { hits = append(hits, "agents") })
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) { hits = append(hits, "agent:"+chi.URLParam(r, "id")) })
	})
	other := routeFunc(func(r chi.Router) {
		r.Get("/agents", func(w http.ResponseWriter, r *http.Request) { hits = append(hits, "marketing") })
	})

	srv := New(Config{
		Log:       zerolog.Nop(),
		DevMode:   true,
		DB:        &fakeDB{},
		Bus:       events.NewBus(),
		Agents:    agents,
		Companies: companies,
		Routes:    []RouteRegistrar{other},
	})

	for _, path := range []string{"/api/ceo-agents", "/api/ceo-agents/companies", "/api/ceo-agents/7", "/api/agents"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	assert.Equal(t, []string{"agents", "companies", "agent:7", "marketing"}, hits)
}

// readSSE returns the next data payload from an event stream.
func readSSE(t *testing.T, reader *bufio.Reader) map[string]interface{} {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg))
		return msg
	}
}

func TestEventsStream(t *testing.T) {
	srv, bus := newTestServer(t, &fakeDB{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events/stream?types=COMPANY_LAUNCHED", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	assert.Equal(t, "connected", readSSE(t, reader)["type"])

	// Filtered out
	bus.Emit(events.PostPublished, "marketing", map[string]interface{}{"post_id": 1})
	bus.Emit(events.CompanyLaunched, "companies", map[string]interface{}{"company_id": 42})

	msg := readSSE(t, reader)
	assert.Equal(t, string(events.CompanyLaunched), msg["type"])
	assert.Equal(t, "companies", msg["module"])
	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["company_id"])
}

func TestEventsStream_UnsubscribesOnDisconnect(t *testing.T) {
	srv, bus := newTestServer(t, &fakeDB{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	readSSE(t, bufio.NewReader(resp.Body))
	assert.Equal(t, 1, bus.SubscriberCount(events.CompanyLaunched))

	cancel()
	resp.Body.Close()

	assert.Eventually(t, func() bool {
		return bus.SubscriberCount(events.CompanyLaunched) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventsSocket(t *testing.T) {
	srv, bus := newTestServer(t, &fakeDB{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var msg map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "connected", msg["type"])

	bus.Emit(events.WorkflowStepChanged, "workflow", map[string]interface{}{"company_id": 3, "step": "product"})

	msg = nil
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, string(events.WorkflowStepChanged), msg["type"])
	assert.Equal(t, "workflow", msg["module"])
}
