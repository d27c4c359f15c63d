package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/relay-service/internal/config"
	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/ice"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newAdminRouter(t *testing.T) (*gin.Engine, service.SignalService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewSignalService(registry.New(), nil, service.Options{})
	resolver := ice.NewResolver(config.WebRTCConfig{
		ICEServers: []config.ICEServerConfig{{URLs: []string{"stun:stun.example.com:3478"}}},
	})
	h := NewAdminHandler(svc, hub.NewHub(testWSConfig()), resolver)
	return h.NewRouter(zerolog.Nop()), svc
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAdmin_Rooms(t *testing.T) {
	r, svc := newAdminRouter(t)
	ctx := context.Background()
	require.NoError(t, svc.HandleJoin(ctx, &fakeConn{id: "h"}, "r1", domain.RoleHost))
	require.NoError(t, svc.HandleJoin(ctx, &fakeConn{id: "v"}, "r1", domain.RoleViewer))

	w, env := get(t, r, "/api/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	var rooms []registry.RoomSummary
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	assert.Equal(t, []registry.RoomSummary{{RoomID: "r1", HasHost: true, ViewerCount: 1}}, rooms)

	w, env = get(t, r, "/api/rooms/r1")
	require.Equal(t, http.StatusOK, w.Code)
	var room registry.RoomSummary
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, 1, room.ViewerCount)

	w, env = get(t, r, "/api/rooms/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAdmin_Stats(t *testing.T) {
	r, svc := newAdminRouter(t)
	require.NoError(t, svc.HandleJoin(context.Background(), &fakeConn{id: "v"}, "r1", domain.RoleViewer))

	w, env := get(t, r, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, StatsResponse{Rooms: 1, JoinedConnections: 1, OpenConnections: 0}, stats)
}

func TestAdmin_ICEServers(t *testing.T) {
	r, _ := newAdminRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ice-servers", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"iceServers":[{"urls":["stun:stun.example.com:3478"]}]}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/ice-servers", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
