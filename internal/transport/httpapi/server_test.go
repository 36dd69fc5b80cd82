package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/bullbear/internal/game"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	g, err := game.NewGame(game.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(g.Close)

	s := NewServer(DefaultConfig(), g, nil)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/game/initialize", map[string]string{"playerName": "Web"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = post(t, srv.URL+"/api/game/start", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// double start conflicts
	resp = post(t, srv.URL+"/api/game/start", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var snap snapshotJSON
	r, err := http.Get(srv.URL + "/api/game/session")
	require.NoError(t, err)
	defer r.Body.Close()
	require.NoError(t, json.NewDecoder(r.Body).Decode(&snap))
	assert.Equal(t, "active", snap.State)
	require.NotEmpty(t, snap.Players)
	assert.Equal(t, "Web", snap.Players[0].Name)
}

func TestStartBeforeInitializeConflicts(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/api/game/start", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTradeValidation(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv.URL+"/api/game/initialize", nil)
	post(t, srv.URL+"/api/game/start", nil)

	resp := post(t, srv.URL+"/api/game/trade", map[string]string{"stance": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/game/trade", map[string]string{"stance": "buy"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestOpenPositionRejectsOversizedMargin(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv.URL+"/api/game/initialize", nil)
	post(t, srv.URL+"/api/game/start", nil)

	// margin far above the default starting balance
	resp := post(t, srv.URL+"/api/game/positions", map[string]float64{
		"size": 100, "leverage": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestClosePositionNotFound(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv.URL+"/api/game/initialize", nil)
	post(t, srv.URL+"/api/game/start", nil)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/game/positions/nope", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardDisabledWithoutStore(t *testing.T) {
	srv := newTestServer(t)
	r, err := http.Get(srv.URL + "/api/leaderboard")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, r.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	r, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
}
