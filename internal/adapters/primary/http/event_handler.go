package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/opsboard/realtime-backend/internal/adapters/primary/http/middleware"
	"github.com/opsboard/realtime-backend/internal/adapters/primary/validation"
	"github.com/opsboard/realtime-backend/internal/auth"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	"github.com/opsboard/realtime-backend/internal/core/ports"
)

const maxRecipientsPerEvent = 1000

// EventHandler handles HTTP requests for publishing events
type EventHandler struct {
	eventService ports.EventService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(
	eventService ports.EventService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "event"),
	}
}

// Router sets up a new chi Router for all event-related routes.
func (h *EventHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all event endpoints.
func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandlePublishEvent)
}

// --- Request/Response DTOs ---

// PublishEventRequest defines the expected JSON body for publishing an event
type PublishEventRequest struct {
	Type            string         `json:"type"`
	Payload         map[string]any `json:"payload"`
	RecipientIDs    []string       `json:"recipientIds"`
	TenantBroadcast bool           `json:"tenantBroadcast"`
}

// Validate validates the publish event request
func (r *PublishEventRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("type", r.Type).
		Custom("type", r.Type == "" || domain.ValidEventType(r.Type), "Must match '<module>.<action>'")

	v.Custom("recipientIds", len(r.RecipientIDs) > 0 || r.TenantBroadcast,
		"Either recipientIds or tenantBroadcast is required")

	v.Max("recipientIds", len(r.RecipientIDs), maxRecipientsPerEvent)

	for _, id := range r.RecipientIDs {
		v.UUID("recipientIds", id)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Handlers ---

// HandlePublishEvent handles POST /events
func (h *EventHandler) HandlePublishEvent(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[PublishEventRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	recipientIDs := make([]uuid.UUID, 0, len(req.RecipientIDs))
	for _, raw := range req.RecipientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		recipientIDs = append(recipientIDs, id)
	}

	params := ports.PublishEventParams{
		EventType:       req.Type,
		Payload:         req.Payload,
		RecipientIDs:    recipientIDs,
		TenantID:        claims.TenantID,
		TenantBroadcast: req.TenantBroadcast,
	}

	if err := h.eventService.PublishEvent(r.Context(), params); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("event published",
		"event_type", req.Type,
		"recipients", len(recipientIDs),
		"tenant_broadcast", req.TenantBroadcast,
		"user_id", claims.UserID,
	)

	WriteAccepted(w, SuccessResponse{Message: "Event accepted for delivery"})
}

// getClaims extracts and validates user claims from the request context
func (h *EventHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}
