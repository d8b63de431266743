package shell

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames carry only the four actions; anything larger is noise.
	maxActionSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the server only listens on loopback
	},
}

// Message is one outbound event or inbound action on the wire.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

// client is one connected shell window.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans launcher events out to every connected shell and dispatches the
// four inbound actions to registered handlers. Handlers run on their own
// goroutines; the hub loop never blocks on launcher work.
type Hub struct {
	logger zerolog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	actions    chan string

	mu      sync.RWMutex
	clients map[*client]struct{}

	handlersMu sync.RWMutex
	handlers   map[string]func()
}

func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		logger:     logger.With().Str("component", "shell").Logger(),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		actions:    make(chan string, 64),
		clients:    make(map[*client]struct{}),
		handlers:   make(map[string]func()),
	}
}

// SetActionHandler registers the callback for one inbound action type.
func (h *Hub) SetActionHandler(action string, handler func()) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.handlers[action] = handler
}

// Run owns the client set. It runs for the life of the process.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug().Str("client", c.id).Msg("Shell connected")

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			if ok {
				h.logger.Debug().Str("client", c.id).Msg("Shell disconnected")
			}

		case data := <-h.broadcast:
			h.fanOut(data)

		case action := <-h.actions:
			h.dispatch(action)
		}
	}
}

// fanOut delivers one frame to every client. A client that cannot keep up
// is dropped on the spot rather than stalling the rest.
func (h *Hub) fanOut(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn().Str("client", c.id).Msg("Shell not draining events, dropped")
		}
	}
}

func (h *Hub) dispatch(action string) {
	h.handlersMu.RLock()
	handler := h.handlers[action]
	h.handlersMu.RUnlock()

	if handler == nil {
		h.logger.Debug().Str("action", action).Msg("No handler for shell action")
		return
	}
	h.logger.Info().Str("action", action).Msg("Shell action")
	go handler()
}

// Broadcast sends one typed event to all connected shells. It never blocks:
// with the hub loop busy the event is dropped, and with zero subscribers it
// simply goes nowhere.
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
	}
	return nil
}

// ClientCount returns the number of connected shells.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades one shell connection and starts its pumps.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- cl

	go h.writePump(cl)
	go h.readPump(cl)
	return nil
}

// readPump parses inbound frames into actions. Malformed input is dropped;
// the shell is not trusted to always send well-formed JSON.
func (h *Hub) readPump(cl *client) {
	defer func() {
		h.unregister <- cl
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxActionSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			continue
		}
		select {
		case h.actions <- msg.Type:
		default:
		}
	}
}

// writePump delivers outbound frames and keeps the connection alive with
// pings.
func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case data, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
