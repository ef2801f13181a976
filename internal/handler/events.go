package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendQueueSize  = 64
)

// eventClient is a single websocket subscriber.
type eventClient struct {
	send   chan []byte
	cancel context.CancelFunc
}

// EventHub streams todo change events to websocket subscribers.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*eventClient
}

// NewEventHub creates a new EventHub instance.
func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // origins are enforced by the CORS middleware
			},
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*eventClient),
	}
}

// RegisterRoutes registers the WebSocket route with the router.
func (h *EventHub) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/todos", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket upgrades the request and subscribes the connection.
//
//nolint:contextcheck // intentional: WebSocket connections outlive the HTTP request context
func (h *EventHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &eventClient{
		send:   make(chan []byte, sendQueueSize),
		cancel: cancel,
	}

	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()

	h.logger.Info("websocket client connected", zap.String("remote_addr", conn.RemoteAddr().String()))

	go h.writePump(ctx, conn, client)
	go h.readPump(ctx, conn, cancel)
}

// Publish sends event to every subscriber. Subscribers whose queue is
// full are disconnected.
func (h *EventHub) Publish(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("dropping slow websocket client", zap.String("remote_addr", conn.RemoteAddr().String()))
			client.cancel()
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// readPump drains incoming messages so control frames are processed.
func (h *EventHub) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer func() {
		cancel()
		h.removeClient(conn)
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket read error", zap.Error(err))
				}
				return
			}
			h.logger.Debug("received message", zap.ByteString("message", message))
		}
	}
}

// writePump forwards queued events and keeps the connection alive with pings.
func (h *EventHub) writePump(ctx context.Context, conn *websocket.Conn, client *eventClient) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sendCloseMessage(conn)
			return
		case payload := <-client.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("failed to send event", zap.Error(err))
				client.cancel()
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				client.cancel()
				return
			}
		}
	}
}

// sendPing sends a ping message to the connection.
func (h *EventHub) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *EventHub) sendCloseMessage(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline for close", zap.Error(err))
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient removes a client from the clients map.
func (h *EventHub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[conn]; exists {
		client.cancel()
		delete(h.clients, conn)
		h.logger.Info("websocket client disconnected", zap.String("remote_addr", conn.RemoteAddr().String()))
	}
}

// CloseAllConnections closes all active WebSocket connections.
func (h *EventHub) CloseAllConnections() {
	h.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(h.clients))
	for _, client := range h.clients {
		cancels = append(cancels, client.cancel)
	}
	h.mu.RUnlock()

	// Cancelling makes each writePump send a close frame.
	for _, cancel := range cancels {
		cancel()
	}

	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	for conn := range h.clients {
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	h.logger.Info("all websocket connections closed")
}
