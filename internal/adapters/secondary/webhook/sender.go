package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	"github.com/opsboard/realtime-backend/internal/core/ports"
)

// SignatureHeader carries the HMAC-SHA256 of the request body, hex encoded
// and prefixed with "sha256=".
const SignatureHeader = "X-Webhook-Signature"

// deliveryPayload is the wire format POSTed to webhook endpoints.
type deliveryPayload struct {
	Event      string         `json:"event"`
	Data       map[string]any `json:"data"`
	Timestamp  time.Time      `json:"timestamp"`
	DeliveryID string         `json:"delivery_id"`
}

// Sender is a secondary adapter that delivers signed envelopes to webhook
// endpoints over HTTP. It implements the ports.WebhookSender interface; the
// caller owns retries.
type Sender struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.WebhookSender = (*Sender)(nil)

// NewSender creates a sender. A nil client falls back to a default with a
// 30 second timeout; per-endpoint timeouts are applied via the request
// context.
func NewSender(client *http.Client, logger *slog.Logger) *Sender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Sender{
		client: client,
		logger: logger.With("component", "webhook_sender"),
	}
}

// Send POSTs one envelope to the endpoint. Any non-2xx response or transport
// error is returned so the retry coordinator can decide whether another
// attempt remains.
func (s *Sender) Send(ctx context.Context, endpoint *domain.WebhookEndpoint, envelope domain.Envelope) error {
	body, err := json.Marshal(deliveryPayload{
		Event:      envelope.EventType,
		Data:       envelope.Payload,
		Timestamp:  envelope.Timestamp,
		DeliveryID: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	if endpoint.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, endpoint.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range endpoint.Headers {
		req.Header.Set(key, value)
	}
	if endpoint.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(endpoint.Secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	s.logger.Debug("webhook delivered",
		"webhook_id", endpoint.ID,
		"url", endpoint.URL,
		"event_type", envelope.EventType,
		"status", resp.StatusCode,
	)
	return nil
}

// Sign computes the signature header value for a request body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
