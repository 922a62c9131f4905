package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/realtime-backend/internal/core/realtime"
)

func newRealtimeRouter() (chi.Router, *realtime.Registry) {
	logger := testLogger()
	registry := realtime.NewRegistry(8, logger)
	handler := NewRealtimeHandler(registry, NewErrorHandler(logger), logger)

	r := chi.NewRouter()
	r.Route("/realtime", handler.RegisterRoutes)
	return r, registry
}

func TestRealtimeStats(t *testing.T) {
	router, registry := newRealtimeRouter()

	subscriberID := uuid.New()
	registry.Connect(subscriberID)
	registry.Connect(subscriberID)
	registry.Connect(uuid.New())

	req := httptest.NewRequest(stdhttp.MethodGet, "/realtime/stats", nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response StatsResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))

	assert.Equal(t, 3, response.Connections)
	assert.Equal(t, 2, response.Subscribers)
}

func TestRealtimeSubscriberStats(t *testing.T) {
	router, registry := newRealtimeRouter()

	subscriberID := uuid.New()
	registry.Connect(subscriberID)
	registry.Connect(subscriberID)

	req := httptest.NewRequest(stdhttp.MethodGet, "/realtime/subscribers/"+subscriberID.String(), nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response SubscriberStatsResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))

	assert.Equal(t, 2, response.Connections)
	assert.True(t, response.Online)
}

func TestRealtimeSubscriberStats_Offline(t *testing.T) {
	router, _ := newRealtimeRouter()

	req := httptest.NewRequest(stdhttp.MethodGet, "/realtime/subscribers/"+uuid.NewString(), nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response SubscriberStatsResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))

	assert.Equal(t, 0, response.Connections)
	assert.False(t, response.Online)
}

func TestRealtimeSubscriberStats_InvalidID(t *testing.T) {
	router, _ := newRealtimeRouter()

	req := httptest.NewRequest(stdhttp.MethodGet, "/realtime/subscribers/not-a-uuid", nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
}
