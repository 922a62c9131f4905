package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/opsboard/realtime-backend/internal/adapters/primary/http/middleware"
	"github.com/opsboard/realtime-backend/internal/adapters/primary/validation"
	"github.com/opsboard/realtime-backend/internal/auth"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	"github.com/opsboard/realtime-backend/internal/core/ports"
)

const (
	maxWebhookURLLength = 2048
	maxWebhookAttempts  = 10
)

// WebhookHandler handles HTTP requests for webhook endpoint management
type WebhookHandler struct {
	webhookService ports.WebhookService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	webhookService ports.WebhookService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "webhook"),
	}
}

// Router sets up a new chi Router for all webhook-related routes.
func (h *WebhookHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all webhook endpoints.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListWebhooks)
	r.Post("/", h.HandleCreateWebhook)

	r.Route("/{webhookID}", func(r chi.Router) {
		r.Get("/", h.HandleGetWebhook)
		r.Patch("/", h.HandleUpdateWebhook)
		r.Delete("/", h.HandleDeleteWebhook)
	})
}

// --- Request/Response DTOs ---

// CreateWebhookRequest defines the expected JSON body for registering a webhook
type CreateWebhookRequest struct {
	URL         string            `json:"url"`
	Secret      string            `json:"secret"`
	Events      []string          `json:"events"`
	Headers     map[string]string `json:"headers"`
	MaxAttempts int               `json:"maxAttempts"`
	TimeoutSecs int               `json:"timeoutSeconds"`
}

// Validate validates the create webhook request
func (r *CreateWebhookRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("url", r.URL).
		MaxLength("url", r.URL, maxWebhookURLLength)

	v.Custom("events", len(r.Events) > 0, "Must subscribe to at least one event type")
	for _, event := range r.Events {
		v.Custom("events", domain.ValidEventType(event), "Must match '<module>.<action>'")
	}

	if r.MaxAttempts != 0 {
		v.Min("maxAttempts", r.MaxAttempts, 1).
			Max("maxAttempts", r.MaxAttempts, maxWebhookAttempts)
	}

	if r.TimeoutSecs != 0 {
		v.Min("timeoutSeconds", r.TimeoutSecs, 1).
			Max("timeoutSeconds", r.TimeoutSecs, 120)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateWebhookRequest defines the expected JSON body for updating a webhook
type UpdateWebhookRequest struct {
	URL      *string  `json:"url"`
	Events   []string `json:"events"`
	IsActive *bool    `json:"isActive"`
}

// Validate validates the update webhook request
func (r *UpdateWebhookRequest) Validate() error {
	v := validation.NewValidator()

	if r.URL != nil {
		v.Required("url", *r.URL).
			MaxLength("url", *r.URL, maxWebhookURLLength)
	}

	for _, event := range r.Events {
		v.Custom("events", domain.ValidEventType(event), "Must match '<module>.<action>'")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// WebhookDTO defines the JSON response for webhook endpoints.
// The signing secret is write-only and never echoed back.
type WebhookDTO struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	Events          []string          `json:"events"`
	IsActive        bool              `json:"isActive"`
	Headers         map[string]string `json:"headers,omitempty"`
	MaxAttempts     int               `json:"maxAttempts"`
	TimeoutSecs     int               `json:"timeoutSeconds"`
	CreatedAt       string            `json:"createdAt"`
	LastTriggeredAt *string           `json:"lastTriggeredAt"`
	SuccessCount    int64             `json:"successCount"`
	FailureCount    int64             `json:"failureCount"`
}

func toWebhookDTO(endpoint *domain.WebhookEndpoint) WebhookDTO {
	var lastTriggeredAt *string
	if endpoint.LastTriggeredAt != nil {
		value := endpoint.LastTriggeredAt.Format(time.RFC3339)
		lastTriggeredAt = &value
	}

	return WebhookDTO{
		ID:              endpoint.ID.String(),
		URL:             endpoint.URL,
		Events:          endpoint.Events,
		IsActive:        endpoint.IsActive,
		Headers:         endpoint.Headers,
		MaxAttempts:     endpoint.MaxAttempts,
		TimeoutSecs:     int(endpoint.Timeout / time.Second),
		CreatedAt:       endpoint.CreatedAt.Format(time.RFC3339),
		LastTriggeredAt: lastTriggeredAt,
		SuccessCount:    endpoint.SuccessCount,
		FailureCount:    endpoint.FailureCount,
	}
}

func toWebhookDTOs(endpoints []*domain.WebhookEndpoint) []WebhookDTO {
	response := make([]WebhookDTO, 0, len(endpoints))
	for _, endpoint := range endpoints {
		response = append(response, toWebhookDTO(endpoint))
	}
	return response
}

// --- Handlers ---

// HandleListWebhooks handles GET /webhooks
func (h *WebhookHandler) HandleListWebhooks(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	endpoints, err := h.webhookService.ListWebhooks(r.Context(), claims.TenantID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toWebhookDTOs(endpoints))
}

// HandleCreateWebhook handles POST /webhooks
func (h *WebhookHandler) HandleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateWebhookRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateWebhookParams{
		TenantID:    claims.TenantID,
		URL:         req.URL,
		Secret:      req.Secret,
		Events:      req.Events,
		Headers:     req.Headers,
		MaxAttempts: req.MaxAttempts,
		Timeout:     time.Duration(req.TimeoutSecs) * time.Second,
		CreatedByID: &claims.UserID,
	}

	endpoint, err := h.webhookService.CreateWebhook(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("webhook endpoint created",
		"webhook_id", endpoint.ID,
		"url", endpoint.URL,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toWebhookDTO(endpoint))
}

// HandleGetWebhook handles GET /webhooks/{webhookID}
func (h *WebhookHandler) HandleGetWebhook(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	webhookID, err := h.parseWebhookID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	endpoint, err := h.webhookService.GetWebhook(r.Context(), webhookID, claims.TenantID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toWebhookDTO(endpoint))
}

// HandleUpdateWebhook handles PATCH /webhooks/{webhookID}
func (h *WebhookHandler) HandleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	webhookID, err := h.parseWebhookID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateWebhookRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateWebhookParams{
		URL:      req.URL,
		Events:   req.Events,
		IsActive: req.IsActive,
	}

	endpoint, err := h.webhookService.UpdateWebhook(r.Context(), webhookID, claims.TenantID, params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("webhook endpoint updated",
		"webhook_id", endpoint.ID,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, toWebhookDTO(endpoint))
}

// HandleDeleteWebhook handles DELETE /webhooks/{webhookID}
func (h *WebhookHandler) HandleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	webhookID, err := h.parseWebhookID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.webhookService.DeleteWebhook(r.Context(), webhookID, claims.TenantID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("webhook endpoint deleted",
		"webhook_id", webhookID,
		"user_id", claims.UserID,
	)

	WriteNoContent(w)
}

// --- Helper methods ---

// getClaims extracts and validates user claims from the request context
func (h *WebhookHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
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

// parseWebhookID extracts and validates the webhook ID from the URL
func (h *WebhookHandler) parseWebhookID(r *http.Request) (uuid.UUID, error) {
	webhookIDStr := chi.URLParam(r, "webhookID")
	webhookID, err := uuid.Parse(webhookIDStr)
	if err != nil {
		v := validation.NewValidator()
		v.Custom("webhookID", false, "Invalid webhook ID")
		return uuid.Nil, v.Errors()
	}
	return webhookID, nil
}
