package realtime

import (
	"log/slog"
	"sync"

	"github.com/opsboard/realtime-backend/internal/core/domain"
)

// Registry tracks which channels are live for which subscriber. A single
// subscriber can hold multiple channels (multiple tabs/devices).
//
// The registry is an injected instance owned by the composition root; it is
// safe for concurrent use from connection handlers and the dispatch path.
// Reads take a snapshot under the read lock, so dispatch to one subscriber
// never serializes behind mutations for another.
type Registry struct {
	// channels maps subscriber IDs to their active channel set. An entry
	// with an empty set is removed, never kept, so HasConnections stays
	// a plain map lookup.
	channels map[domain.SubscriberID]map[*Channel]struct{}

	queueCapacity int

	mu     sync.RWMutex
	logger *slog.Logger
}

// NewRegistry creates an empty registry whose channels use the given queue
// capacity.
func NewRegistry(queueCapacity int, logger *slog.Logger) *Registry {
	return &Registry{
		channels:      make(map[domain.SubscriberID]map[*Channel]struct{}),
		queueCapacity: queueCapacity,
		logger:        logger.With("component", "realtime_registry"),
	}
}

// Connect allocates a new bounded channel for the subscriber and registers
// it. It never fails under normal conditions.
func (r *Registry) Connect(subscriberID domain.SubscriberID) *Channel {
	ch := NewChannel(subscriberID, r.queueCapacity)

	r.mu.Lock()
	set, ok := r.channels[subscriberID]
	if !ok {
		set = make(map[*Channel]struct{})
		r.channels[subscriberID] = set
	}
	set[ch] = struct{}{}
	count := len(set)
	r.mu.Unlock()

	r.logger.Info("channel registered",
		"subscriber_id", subscriberID,
		"connection_count", count,
	)
	return ch
}

// Disconnect removes the specific channel from the subscriber's set. When
// the set becomes empty the whole entry is dropped. Disconnecting a channel
// that was already removed is a no-op.
func (r *Registry) Disconnect(subscriberID domain.SubscriberID, ch *Channel) {
	r.mu.Lock()
	set, ok := r.channels[subscriberID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, exists := set[ch]; !exists {
		r.mu.Unlock()
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(r.channels, subscriberID)
	}
	r.mu.Unlock()

	r.logger.Info("channel unregistered", "subscriber_id", subscriberID)
}

// ChannelsFor returns a snapshot of the subscriber's current channels, or an
// empty slice if none. The snapshot is safe to iterate while other
// goroutines connect and disconnect.
func (r *Registry) ChannelsFor(subscriberID domain.SubscriberID) []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.channels[subscriberID]
	if !ok {
		return nil
	}
	snapshot := make([]*Channel, 0, len(set))
	for ch := range set {
		snapshot = append(snapshot, ch)
	}
	return snapshot
}

// HasConnections reports whether the subscriber holds any live channel.
func (r *Registry) HasConnections(subscriberID domain.SubscriberID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[subscriberID]) > 0
}

// ConnectionCount returns the number of live channels for one subscriber.
func (r *Registry) ConnectionCount(subscriberID domain.SubscriberID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[subscriberID])
}

// TotalConnections returns the number of live channels across all
// subscribers.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, set := range r.channels {
		total += len(set)
	}
	return total
}

// SubscriberCount returns how many subscribers hold at least one channel.
func (r *Registry) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// CloseAll removes and closes every channel. Called on process shutdown so
// consumer goroutines observe closed queues and exit.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[domain.SubscriberID]map[*Channel]struct{})
	r.mu.Unlock()

	closed := 0
	for _, set := range channels {
		for ch := range set {
			ch.Close()
			closed++
		}
	}
	if closed > 0 {
		r.logger.Info("registry closed", "channels_closed", closed)
	}
}
