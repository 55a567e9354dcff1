package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
)

const (
	writeWait   = 5 * time.Second
	clientQueue = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message types on /api/events.
const (
	msgCommand = "command"
	msgStatus  = "status"
)

// eventMessage is one websocket frame on /api/events.
type eventMessage struct {
	Type   string         `json:"type"`
	Event  *gesture.Event `json:"event,omitempty"`
	Status *statusMessage `json:"status,omitempty"`
}

type statusMessage struct {
	Message string `json:"message"`
	Fault   bool   `json:"fault"`
}

// EventsHandler pushes every delivered command and every pipeline health
// change to websocket clients. It is registered as a sink and a status
// listener on the App.
type EventsHandler struct {
	logger  log.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewEventsHandler creates an EventsHandler with no clients.
func NewEventsHandler(logger log.Logger) *EventsHandler {
	return &EventsHandler{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade error: %v", err)
		return
	}

	out := make(chan []byte, clientQueue)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = out
	h.mu.Unlock()

	go h.write(conn, out)

	// Reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
}

// Deliver queues ev for every client. Slow clients drop events rather
// than holding up the pipeline.
func (h *EventsHandler) Deliver(ev gesture.Event) {
	h.broadcast(eventMessage{Type: msgCommand, Event: &ev})
}

// StatusChanged sends a camera or tracker health change. An empty msg
// announces recovery.
func (h *EventsHandler) StatusChanged(msg string) {
	h.broadcast(eventMessage{Type: msgStatus, Status: &statusMessage{Message: msg, Fault: msg != ""}})
}

func (h *EventsHandler) broadcast(m eventMessage) {
	msg, err := json.Marshal(m)
	if err != nil {
		h.logger.Errorf("encode %s message: %v", m.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, out := range h.clients {
		select {
		case out <- msg:
		default:
			h.logger.Debugf("dropping %s message for slow client %s", m.Type, conn.RemoteAddr())
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new ones.
func (h *EventsHandler) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.remove(conn)
	}
}

func (h *EventsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	out, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok {
		close(out)
	}
}

// write is the only goroutine writing to conn.
func (h *EventsHandler) write(conn *websocket.Conn, out <-chan []byte) {
	defer conn.Close()
	for msg := range out {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debugf("websocket write: %v", err)
			h.remove(conn)
			// Drain until remove closes out.
			for range out {
			}
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
