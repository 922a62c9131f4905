package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/adapters/primary/validation"
	"github.com/opsboard/realtime-backend/internal/core/realtime"
)

// RealtimeHandler exposes operational statistics about the live connection
// registry. It sits behind the admin API key.
type RealtimeHandler struct {
	registry     *realtime.Registry
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewRealtimeHandler creates a new realtime stats handler
func NewRealtimeHandler(
	registry *realtime.Registry,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *RealtimeHandler {
	return &RealtimeHandler{
		registry:     registry,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "realtime"),
	}
}

// Router sets up a new chi Router for the realtime stats routes.
func (h *RealtimeHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for the realtime stats endpoints.
func (h *RealtimeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.HandleStats)
	r.Get("/subscribers/{subscriberID}", h.HandleSubscriberStats)
}

// StatsResponse summarizes the registry state
type StatsResponse struct {
	Connections int `json:"connections"`
	Subscribers int `json:"subscribers"`
}

// SubscriberStatsResponse summarizes one subscriber's connections
type SubscriberStatsResponse struct {
	SubscriberID string `json:"subscriberId"`
	Connections  int    `json:"connections"`
	Online       bool   `json:"online"`
}

// HandleStats handles GET /realtime/stats
func (h *RealtimeHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, StatsResponse{
		Connections: h.registry.TotalConnections(),
		Subscribers: h.registry.SubscriberCount(),
	})
}

// HandleSubscriberStats handles GET /realtime/subscribers/{subscriberID}
func (h *RealtimeHandler) HandleSubscriberStats(w http.ResponseWriter, r *http.Request) {
	subscriberIDStr := chi.URLParam(r, "subscriberID")
	subscriberID, err := uuid.Parse(subscriberIDStr)
	if err != nil {
		v := validation.NewValidator()
		v.Custom("subscriberID", false, "Invalid subscriber ID")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	count := h.registry.ConnectionCount(subscriberID)
	WriteJSON(w, http.StatusOK, SubscriberStatsResponse{
		SubscriberID: subscriberID.String(),
		Connections:  count,
		Online:       count > 0,
	})
}
