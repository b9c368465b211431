package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/StrathCole/chainlink-oracle-go/pkg/events"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
)

// WebSocketServer streams registry and factory events to connected clients.
type WebSocketServer struct {
	addr     string
	bus      *events.Bus
	logger   *logging.Logger
	upgrader websocket.Upgrader

	// Client management
	mu      sync.RWMutex
	clients map[*WebSocketClient]bool

	// Events received from the bus
	updates chan events.Event

	// Server control
	ctx    context.Context
	cancel context.CancelFunc
}

// WebSocketClient represents a connected WebSocket client.
type WebSocketClient struct {
	conn           *websocket.Conn
	send           chan []byte
	server         *WebSocketServer
	subscribedAll  bool
	subscribedKind map[events.Kind]bool
	mu             sync.RWMutex
}

// WebSocketMessage represents a client message.
type WebSocketMessage struct {
	Type  string   `json:"type"`  // "subscribe", "unsubscribe", "ping"
	Kinds []string `json:"kinds"` // event kinds, "*" for all
}

// EventMessage is sent to clients.
type EventMessage struct {
	Type  string       `json:"type"` // "event"
	Event events.Event `json:"event"`
}

// NewWebSocketServer creates a new WebSocket server fed by bus.
func NewWebSocketServer(addr string, bus *events.Bus, logger *logging.Logger) *WebSocketServer {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	return &WebSocketServer{
		addr:   addr,
		bus:    bus,
		logger: logger.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				// Allow all origins (configure CORS as needed)
				return true
			},
		},
		clients: make(map[*WebSocketClient]bool),
		updates: make(chan events.Event, 100),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Handler returns the /ws handler.
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start subscribes to the bus and serves clients until Stop is called.
func (s *WebSocketServer) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.run()

	s.logger.Info("Starting WebSocket server", "addr", s.addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("WebSocket server error", "error", err)
		}
	}()

	// Wait for context cancellation
	<-s.ctx.Done()

	// Graceful shutdown with timeout based on parent context
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// run subscribes to the bus and starts the broadcast loop.
func (s *WebSocketServer) run() {
	if s.bus != nil {
		s.bus.Subscribe(s.updates)
	}
	go s.broadcastUpdates()
}

// Stop stops the WebSocket server.
func (s *WebSocketServer) Stop() {
	if s.bus != nil {
		s.bus.Unsubscribe(s.updates)
	}
	s.cancel()
}

// ClientCount returns the number of connected clients.
func (s *WebSocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// handleWebSocket handles new WebSocket connections.
func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &WebSocketClient{
		conn:           conn,
		send:           make(chan []byte, 256),
		server:         s,
		subscribedAll:  true, // Subscribe to all by default
		subscribedKind: make(map[events.Kind]bool),
	}

	s.registerClient(client)

	// Start client goroutines
	go client.writePump()
	go client.readPump()

	s.logger.Info("New WebSocket client connected", "remote", conn.RemoteAddr())
}

// registerClient adds a client to the server.
func (s *WebSocketServer) registerClient(client *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// unregisterClient removes a client from the server.
func (s *WebSocketServer) unregisterClient(client *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
}

// broadcastUpdates forwards bus events to all clients.
func (s *WebSocketServer) broadcastUpdates() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case e := <-s.updates:
			s.broadcast(e)
		}
	}
}

// broadcast sends an event to all subscribed clients.
func (s *WebSocketServer) broadcast(e events.Event) {
	data, err := json.Marshal(EventMessage{Type: "event", Event: e})
	if err != nil {
		s.logger.Error("Failed to marshal event", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		if client.shouldReceive(e.Kind) {
			select {
			case client.send <- data:
			default:
				s.logger.Warn("Client send buffer full, skipping event", "kind", e.Kind)
			}
		}
	}
}

// writePump sends messages to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.server.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket connection.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.server.unregisterClient(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage processes client messages.
func (c *WebSocketClient) handleMessage(data []byte) {
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.server.logger.Warn("Invalid client message", "error", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe(msg.Kinds)
	case "unsubscribe":
		c.unsubscribe(msg.Kinds)
	case "ping":
		c.sendPong()
	default:
		c.server.logger.Warn("Unknown message type", "type", msg.Type)
	}
}

// subscribe narrows or widens the set of event kinds delivered to the client.
func (c *WebSocketClient) subscribe(kinds []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(kinds) == 0 || (len(kinds) == 1 && kinds[0] == "*") {
		c.subscribedAll = true
		c.subscribedKind = make(map[events.Kind]bool)
	} else {
		c.subscribedAll = false
		for _, kind := range kinds {
			c.subscribedKind[events.Kind(kind)] = true
		}
	}

	c.server.logger.Debug("Client subscribed", "kinds", kinds)
}

// unsubscribe removes event kinds from the client's subscription.
func (c *WebSocketClient) unsubscribe(kinds []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(kinds) == 0 || (len(kinds) == 1 && kinds[0] == "*") {
		c.subscribedAll = false
		c.subscribedKind = make(map[events.Kind]bool)
	} else {
		for _, kind := range kinds {
			delete(c.subscribedKind, events.Kind(kind))
		}
	}

	c.server.logger.Debug("Client unsubscribed", "kinds", kinds)
}

// shouldReceive checks if the client subscribed to kind.
func (c *WebSocketClient) shouldReceive(kind events.Kind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscribedAll || c.subscribedKind[kind]
}

// sendPong sends a pong response.
func (c *WebSocketClient) sendPong() {
	pong := map[string]string{"type": "pong"}
	data, _ := json.Marshal(pong)
	select {
	case c.send <- data:
	default:
	}
}
