package reliability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	testingpkg "github.com/aristath/foundry/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, method, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHandleBackup_NotConfigured(t *testing.T) {
	h := NewHandler(nil, zerolog.Nop())

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/system/backup"},
		{http.MethodGet, "/system/backups"},
	} {
		w := serve(h, tc.method, tc.path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Backups are not configured", body["error"])
	}
}

func TestHandleBackup_RunsAndLists(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "foundry")
	defer cleanup()

	store := newMemStore()
	h := NewHandler(NewBackupService(store, t.TempDir(), 30, nil, zerolog.Nop(), db), zerolog.Nop())

	w := serve(h, http.MethodPost, "/system/backup")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Backup  BackupResult `json:"backup"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, store.keys(), resp.Backup.Key)

	w = serve(h, http.MethodGet, "/system/backups")
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Backups []BackupInfo `json:"backups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Backups, 1)
	assert.Equal(t, resp.Backup.Key, list.Backups[0].Key)
}
