package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opsboard/realtime-backend/internal/core/realtime"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client pumps envelopes between one subscriber channel and its websocket
// connection. The channel is the single source of outbound messages; the
// read side exists for liveness (pings) and connection-close detection.
type Client struct {
	conn     *websocket.Conn
	channel  *realtime.Channel
	registry *realtime.Registry
	logger   *slog.Logger
}

// NewClient creates a client around an upgraded connection and its
// registered channel.
func NewClient(conn *websocket.Conn, channel *realtime.Channel, registry *realtime.Registry, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		channel:  channel,
		registry: registry,
		logger:   logger.With("subscriber_id", channel.SubscriberID().String()),
	}
}

// ReadPump consumes messages from the websocket connection until it closes.
// This method runs in its own goroutine. On exit the channel is removed
// from the registry, so a connection that times out never leaves a stale
// registry entry behind.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.Disconnect(c.channel.SubscriberID(), c.channel)
		c.channel.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		// Subscribers don't send application messages; the read loop
		// exists to process pongs and observe the close.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
	}
}

// WritePump streams envelopes from the subscriber channel to the websocket
// connection. This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case envelope, ok := <-c.channel.Queue():
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The channel was closed (disconnect or dropped by the
				// dispatcher). Tell the peer and stop.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(envelope); err != nil {
				c.logger.Error("failed to write envelope", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) writeJSON(v any) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}
