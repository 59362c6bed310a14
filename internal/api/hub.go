package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/spaceflight-sim/internal/logging"
	"github.com/signalsfoundry/spaceflight-sim/telemetry"
)

// feedPollInterval is how often the telemetry pump drains the stream for
// WebSocket clients.
const feedPollInterval = 100 * time.Millisecond

// Hub fans telemetry batches out to WebSocket clients. A slow client's
// buffer filling up drops that client rather than stalling the pump.
type Hub struct {
	log logging.Logger

	mu      sync.Mutex
	clients map[*feedClient]struct{}
	closed  bool
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*feedClient]struct{}),
	}
}

// Broadcast queues a payload for every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Backed-up client; disconnect it.
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// Close disconnects every client and rejects future connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) register(c *feedClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS upgrades the request and attaches the client to the live feed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", logging.Any("error", err))
		return
	}

	client := &feedClient{conn: conn, send: make(chan []byte, 64)}
	if !s.hub.register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go func() {
		// Drain and discard inbound frames; a read error means the peer
		// went away.
		defer s.hub.unregister(client)
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (c *feedClient) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// feedMessage is the JSON envelope sent over /ws/telemetry.
type feedMessage struct {
	Type     string        `json:"type"`
	Readings []readingJSON `json:"readings"`
}

// pumpTelemetry follows the run's stream with its own cursor and broadcasts
// new readings to the hub until ctx is cancelled.
func (s *Server) pumpTelemetry(ctx context.Context) {
	ticker := time.NewTicker(feedPollInterval)
	defer ticker.Stop()

	var cursor uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stream := s.ctrl.Telemetry()
		if stream == nil {
			continue
		}
		for {
			readings, next, err := stream.ReadFrom(cursor, 512)
			if err != nil {
				if errors.Is(err, telemetry.ErrCursorEvicted) {
					// The feed fell behind; resume from the oldest
					// retained reading.
					cursor = stream.OldestCursor()
					continue
				}
				return
			}
			if len(readings) == 0 {
				break
			}
			cursor = next

			payload, err := json.Marshal(feedMessage{
				Type:     "telemetry",
				Readings: readingDTOs(readings),
			})
			if err != nil {
				s.log.Error(ctx, "telemetry feed encode failed", logging.Any("error", err))
				return
			}
			s.hub.Broadcast(payload)
		}
	}
}
