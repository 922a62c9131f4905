package realtime

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	"github.com/opsboard/realtime-backend/internal/core/ports"
)

// Dispatcher fans published events out to every open channel of the target
// subscriber(s). Delivery to live connections is fire-and-forget: a stalled
// consumer loses its connection, it never slows the publisher or its
// neighbours.
type Dispatcher struct {
	registry *Registry
	tenants  ports.TenantDirectory
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry. The tenant
// directory may be nil when tenant-wide broadcast is not wired.
func NewDispatcher(registry *Registry, tenants ports.TenantDirectory, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		tenants:  tenants,
		logger:   logger.With("component", "realtime_dispatcher"),
	}
}

// Publish delivers one envelope to every open channel of the subscriber.
// Publishing to a subscriber with no open channels is not an error.
//
// The enqueue is non-blocking; channels whose queue is full or closed are
// recorded during the fan-out and cleaned up after the loop completes, so a
// dead connection never interferes with delivery to the others.
func (d *Dispatcher) Publish(subscriberID domain.SubscriberID, eventType string, payload map[string]any) {
	channels := d.registry.ChannelsFor(subscriberID)
	if len(channels) == 0 {
		return
	}

	env := domain.NewEnvelope(eventType, payload)

	var dead []*Channel
	for _, ch := range channels {
		if !ch.TrySend(env) {
			dead = append(dead, ch)
		}
	}

	for _, ch := range dead {
		d.logger.Warn("dropping dead channel",
			"subscriber_id", subscriberID,
			"event_type", eventType,
			"connected_at", ch.CreatedAt(),
		)
		d.registry.Disconnect(subscriberID, ch)
		ch.Close()
	}

	d.logger.Debug("event dispatched",
		"subscriber_id", subscriberID,
		"event_type", eventType,
		"delivered", len(channels)-len(dead),
		"dropped", len(dead),
	)
}

// PublishToTenant resolves the tenant's members through the directory and
// publishes to each. Resolution failures are logged, not propagated; the
// broadcast is best-effort like every other delivery.
func (d *Dispatcher) PublishToTenant(ctx context.Context, tenantID uuid.UUID, eventType string, payload map[string]any) {
	if d.tenants == nil {
		d.logger.Warn("tenant broadcast skipped: no tenant directory configured",
			"tenant_id", tenantID,
			"event_type", eventType,
		)
		return
	}

	members, err := d.tenants.ResolveTenantMembers(ctx, tenantID)
	if err != nil {
		d.logger.Error("failed to resolve tenant members",
			"tenant_id", tenantID,
			"event_type", eventType,
			"error", err,
		)
		return
	}

	for _, member := range members {
		d.Publish(member, eventType, payload)
	}
}
