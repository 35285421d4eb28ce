package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/events"
	"smart-stock-trader/internal/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient is one dashboard connection
type WSClient struct {
	hub    *WSHub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// WSHub fans bus events out to connected dashboards. Events carrying a
// user ID go only to that user's connections; the rest go to everyone.
type WSHub struct {
	mu          sync.RWMutex
	userClients map[string]map[*WSClient]bool
	register    chan *WSClient
	unregister  chan *WSClient
	outbound    chan events.Event
	logger      zerolog.Logger
}

// NewWSHub creates the hub and subscribes it to the event bus
func NewWSHub(bus *events.EventBus) *WSHub {
	hub := &WSHub{
		userClients: make(map[string]map[*WSClient]bool),
		register:    make(chan *WSClient),
		unregister:  make(chan *WSClient),
		outbound:    make(chan events.Event, 256),
		logger:      logging.Component("websocket"),
	}

	bus.SubscribeAll(func(event events.Event) {
		select {
		case hub.outbound <- event:
		default:
			hub.logger.Warn().Str("type", string(event.Type)).Msg("event dropped, hub backlog full")
		}
	})

	return hub
}

// Run dispatches registrations and events until the context ends
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.userClients[client.userID] == nil {
				h.userClients[client.userID] = make(map[*WSClient]bool)
			}
			h.userClients[client.userID][client] = true
			h.mu.Unlock()
			h.logger.Debug().Str("user_id", client.userID).Msg("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.userClients[client.userID]; ok {
				if clients[client] {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.userClients, client.userID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.outbound:
			h.dispatch(event)
		}
	}
}

func (h *WSHub) dispatch(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if event.UserID != "" {
		for client := range h.userClients[event.UserID] {
			client.trySend(payload)
		}
		return
	}
	for _, clients := range h.userClients {
		for client := range clients {
			client.trySend(payload)
		}
	}
}

func (h *WSHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.userClients {
		for client := range clients {
			close(client.send)
		}
		delete(h.userClients, userID)
	}
}

// trySend drops the message rather than blocking the hub on a slow reader
func (c *WSClient) trySend(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handleWebSocket upgrades the connection and streams the caller's events
func (s *Server) handleWebSocket(c *gin.Context) {
	userID := auth.GetUserID(c)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &WSClient{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
	}
	s.hub.register <- client

	welcome, _ := json.Marshal(gin.H{
		"type":      "CONNECTED",
		"timestamp": time.Now().UTC(),
	})
	client.trySend(welcome)

	go client.writePump()
	go client.readPump()
}
