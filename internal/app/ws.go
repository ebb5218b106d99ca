package app

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/compass_nav/internal/nav"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocket message types
type wsMessage struct {
	Action  string   `json:"action"` // manual, rotation
	Heading *float64 `json:"heading,omitempty"`
	Angle   *float64 `json:"angle,omitempty"`
}

type wsResponse struct {
	Type     string        `json:"type"` // snapshot, error
	Snapshot *nav.Snapshot `json:"snapshot,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// Slow clients lose updates beyond this many queued messages.
const wsSendBuffer = 8

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan wsResponse
}

// hub tracks the connected websocket clients.
type hub struct {
	mu      sync.Mutex
	clients map[string]*wsClient
}

func newHub() *hub {
	return &hub{clients: make(map[string]*wsClient)}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.send)
	}
}

// sendTo queues a message for one client. It reports false when the
// client is gone or its queue is full.
func (h *hub) sendTo(id string, msg wsResponse) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (h *hub) broadcast(snap nav.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- wsResponse{Type: "snapshot", Snapshot: &snap}:
		default:
			log.WithField("client", id).Warn("navigator: websocket client too slow, dropping update")
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.conn.Close()
		delete(h.clients, id)
		close(c.send)
	}
}

// serveWS streams snapshots to the client and accepts manual heading and
// screen rotation changes from it.
func (s *navService) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("navigator: websocket upgrade error: %v", err)
		return
	}

	c := &wsClient{id: uuid.NewString(), conn: conn, send: make(chan wsResponse, wsSendBuffer)}
	s.hub.add(c)
	logger := log.WithField("client", c.id)
	logger.Info("navigator: websocket client connected")

	// one writer per connection
	go func() {
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debugf("navigator: websocket write error: %v", err)
				conn.Close()
				return
			}
		}
	}()
	defer func() {
		s.hub.remove(c.id)
		conn.Close()
		logger.Info("navigator: websocket client disconnected")
	}()

	snap := s.Snapshot()
	s.hub.sendTo(c.id, wsResponse{Type: "snapshot", Snapshot: &snap})

	// Main message loop
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Debugf("navigator: websocket read error: %v", err)
			return
		}

		switch msg.Action {
		case "manual":
			v, err := headingRequest{Heading: msg.Heading}.value()
			if err != nil {
				s.hub.sendTo(c.id, wsResponse{Type: "error", Message: err.Error()})
				continue
			}
			s.setManual(v)

		case "rotation":
			if msg.Angle == nil {
				s.hub.sendTo(c.id, wsResponse{Type: "error", Message: "angle is required"})
				continue
			}
			s.setRotation(*msg.Angle)

		default:
			s.hub.sendTo(c.id, wsResponse{Type: "error", Message: "unknown action " + msg.Action})
		}
	}
}
