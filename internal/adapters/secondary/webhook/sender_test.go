package webhook_test

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/adapters/secondary/webhook"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEndpoint(url string) *domain.WebhookEndpoint {
	return &domain.WebhookEndpoint{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		URL:      url,
		Secret:   "s3cret",
		Events:   []string{"tasks.completed"},
		IsActive: true,
		Headers:  map[string]string{"X-Custom": "erp"},
		Timeout:  5 * time.Second,
	}
}

func TestSender_Send(t *testing.T) {
	env := domain.NewEnvelope("tasks.completed", map[string]any{"id": "T1"})

	t.Run("delivers signed payload", func(t *testing.T) {
		var gotBody []byte
		var gotSignature, gotCustom, gotContentType string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			gotSignature = r.Header.Get(webhook.SignatureHeader)
			gotCustom = r.Header.Get("X-Custom")
			gotContentType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		sender := webhook.NewSender(srv.Client(), testLogger())
		err := sender.Send(context.Background(), testEndpoint(srv.URL), env)
		require.NoError(t, err)

		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "erp", gotCustom)
		assert.True(t, hmac.Equal([]byte(webhook.Sign("s3cret", gotBody)), []byte(gotSignature)))

		var payload struct {
			Event      string         `json:"event"`
			Data       map[string]any `json:"data"`
			Timestamp  time.Time      `json:"timestamp"`
			DeliveryID string         `json:"delivery_id"`
		}
		require.NoError(t, json.Unmarshal(gotBody, &payload))
		assert.Equal(t, "tasks.completed", payload.Event)
		assert.Equal(t, "T1", payload.Data["id"])
		assert.False(t, payload.Timestamp.IsZero())
		assert.NotEmpty(t, payload.DeliveryID)
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		sender := webhook.NewSender(srv.Client(), testLogger())
		err := sender.Send(context.Background(), testEndpoint(srv.URL), env)

		assert.ErrorContains(t, err, "502")
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		sender := webhook.NewSender(&http.Client{Timeout: time.Second}, testLogger())
		err := sender.Send(context.Background(), testEndpoint("http://127.0.0.1:1/hook"), env)

		assert.Error(t, err)
	})

	t.Run("no signature header without a secret", func(t *testing.T) {
		var signaturePresent bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, signaturePresent = r.Header[webhook.SignatureHeader]
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		endpoint := testEndpoint(srv.URL)
		endpoint.Secret = ""

		sender := webhook.NewSender(srv.Client(), testLogger())
		require.NoError(t, sender.Send(context.Background(), endpoint, env))
		assert.False(t, signaturePresent)
	})
}
