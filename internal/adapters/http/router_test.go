package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/app/orch"
	"github.com/dkeye/Poker/internal/config"
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/store"
)

func setupTestRouter(t *testing.T, allowOverwrite bool) (http.Handler, *orch.Orchestrator) {
	t.Helper()
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>poker</h1>"), 0o600))

	cfg := &config.Config{
		Mode:           "release",
		StaticPath:     static,
		Secret:         "test-secret",
		AllowedOrigins: []string{"*"},
		WS:             config.WSConfig{SendBuffer: 8, Backpressure: "kick"},
		Rooms:          config.RoomsConfig{GCEmpty: true, AllowOverwrite: allowOverwrite},
		Store:          config.StoreConfig{Driver: config.DriverMemory, OpTimeout: time.Second},
	}
	o := &orch.Orchestrator{
		Registry:       app.NewRegistry(),
		Rooms:          app.NewRoomManager(),
		Store:          store.Instrument(store.NewMemory(), config.DriverMemory),
		Policy:         app.SimplePolicy{},
		GCEmptyRooms:   true,
		AllowOverwrite: allowOverwrite,
	}
	return SetupRouter(context.Background(), cfg, o), o
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetRoom(t *testing.T) {
	h, _ := setupTestRouter(t, true)

	w := do(h, http.MethodPost, "/api/rooms", `{"id":"R1","scale":[1,2,3]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"R1"}`, w.Body.String())

	w = do(h, http.MethodGet, "/api/rooms/R1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":"R1","scale":[1,2,3]}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = do(h, http.MethodPost, "/api/rooms", `{"id":"R1","scale":[5]}`)
	assert.Equal(t, http.StatusCreated, w.Code, "overwrite allowed")
}

func TestCreateRoomErrors(t *testing.T) {
	h, _ := setupTestRouter(t, false)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/rooms", `{"scale":[1]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/rooms", `not json`).Code)

	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/rooms", `{"id":"R1"}`).Code)
	w := do(h, http.MethodPost, "/api/rooms", `{"id":"R1","v":2}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate room")
}

func TestGetRoomNotFound(t *testing.T) {
	h, _ := setupTestRouter(t, true)
	w := do(h, http.MethodGet, "/api/rooms/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRooms(t *testing.T) {
	h, o := setupTestRouter(t, true)
	room := o.Rooms.GetOrCreate("R1")
	room.AddMember(core.NewMemberSession("s1", nil))

	w := do(h, http.MethodGet, "/api/rooms", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"R1","client_count":1}]`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := setupTestRouter(t, true)

	w := do(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","connections":0,"rooms":0}`, w.Body.String())

	do(h, http.MethodGet, "/api/rooms/ghost", "")
	w = do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "poker_store_operations_total")
}

func TestClientTokenCookie(t *testing.T) {
	h, _ := setupTestRouter(t, true)

	w := do(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "poker")

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "PokerSessions", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// A returning browser keeps its session and gets no new cookie.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
}
