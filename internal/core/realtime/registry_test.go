package realtime_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	"github.com/opsboard/realtime-backend/internal/core/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *realtime.Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return realtime.NewRegistry(4, logger)
}

func TestRegistry_ConnectDisconnect(t *testing.T) {
	reg := newTestRegistry()
	sub := uuid.New()

	ch := reg.Connect(sub)
	require.NotNil(t, ch)
	assert.Equal(t, sub, ch.SubscriberID())
	assert.Equal(t, 1, reg.ConnectionCount(sub))
	assert.True(t, reg.HasConnections(sub))

	reg.Disconnect(sub, ch)
	assert.Equal(t, 0, reg.ConnectionCount(sub))
	assert.False(t, reg.HasConnections(sub))
	// The backing entry is removed outright, not kept as an empty set.
	assert.Equal(t, 0, reg.SubscriberCount())
}

func TestRegistry_DisconnectIsIdempotent(t *testing.T) {
	reg := newTestRegistry()
	sub := uuid.New()

	ch := reg.Connect(sub)
	reg.Disconnect(sub, ch)
	assert.NotPanics(t, func() {
		reg.Disconnect(sub, ch)
	})
	assert.Equal(t, 0, reg.ConnectionCount(sub))
}

func TestRegistry_DisconnectUnknownSubscriber(t *testing.T) {
	reg := newTestRegistry()
	ch := realtime.NewChannel(uuid.New(), 4)

	assert.NotPanics(t, func() {
		reg.Disconnect(uuid.New(), ch)
	})
}

func TestRegistry_MultipleChannelsPerSubscriber(t *testing.T) {
	reg := newTestRegistry()
	sub := uuid.New()

	ch1 := reg.Connect(sub)
	ch2 := reg.Connect(sub)
	require.NotSame(t, ch1, ch2)

	assert.Equal(t, 2, reg.ConnectionCount(sub))
	assert.Len(t, reg.ChannelsFor(sub), 2)

	reg.Disconnect(sub, ch1)
	assert.Equal(t, 1, reg.ConnectionCount(sub))
	assert.True(t, reg.HasConnections(sub))

	// Removing one channel must leave the other deliverable.
	remaining := reg.ChannelsFor(sub)
	require.Len(t, remaining, 1)
	assert.Same(t, ch2, remaining[0])
}

func TestRegistry_ChannelsForUnknownSubscriberIsEmpty(t *testing.T) {
	reg := newTestRegistry()
	assert.Empty(t, reg.ChannelsFor(uuid.New()))
}

func TestRegistry_TotalConnections(t *testing.T) {
	reg := newTestRegistry()
	subA := uuid.New()
	subB := uuid.New()

	reg.Connect(subA)
	reg.Connect(subA)
	reg.Connect(subB)

	assert.Equal(t, 3, reg.TotalConnections())
	assert.Equal(t, 2, reg.SubscriberCount())
}

func TestRegistry_CloseAll(t *testing.T) {
	reg := newTestRegistry()
	ch := reg.Connect(uuid.New())

	reg.CloseAll()

	assert.Equal(t, 0, reg.TotalConnections())
	_, open := <-ch.Queue()
	assert.False(t, open, "queue should be closed after CloseAll")
}

func TestRegistry_ConcurrentConnectDisconnect(t *testing.T) {
	reg := newTestRegistry()
	sub := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := reg.Connect(sub)
			reg.ChannelsFor(sub)
			reg.Disconnect(sub, ch)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, reg.ConnectionCount(sub))
	assert.Equal(t, 0, reg.SubscriberCount())
}

func TestChannel_FIFOOrder(t *testing.T) {
	ch := realtime.NewChannel(uuid.New(), 4)

	for i, name := range []string{"tasks.created", "tasks.assigned", "tasks.completed"} {
		ok := ch.TrySend(domain.NewEnvelope(name, map[string]any{"seq": i}))
		require.True(t, ok)
	}

	for _, want := range []string{"tasks.created", "tasks.assigned", "tasks.completed"} {
		env := <-ch.Queue()
		assert.Equal(t, want, env.EventType)
	}
}

func TestChannel_TrySendFullQueue(t *testing.T) {
	ch := realtime.NewChannel(uuid.New(), 2)

	assert.True(t, ch.TrySend(domain.NewEnvelope("tasks.created", nil)))
	assert.True(t, ch.TrySend(domain.NewEnvelope("tasks.created", nil)))
	assert.False(t, ch.TrySend(domain.NewEnvelope("tasks.created", nil)))
}

func TestChannel_TrySendAfterClose(t *testing.T) {
	ch := realtime.NewChannel(uuid.New(), 2)
	ch.Close()

	assert.NotPanics(t, func() {
		assert.False(t, ch.TrySend(domain.NewEnvelope("tasks.created", nil)))
	})
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	ch := realtime.NewChannel(uuid.New(), 2)
	assert.NotPanics(t, func() {
		ch.Close()
		ch.Close()
	})
}
