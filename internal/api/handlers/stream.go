package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is one frame sent to subscribers
type StreamMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// CycleStream pushes every cycle report to websocket subscribers
// ⭐ SSOT: 실시간 사이클 알림은 여기서만
type CycleStream struct {
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.RWMutex
	logger  *logger.Logger
}

// NewCycleStream creates an empty stream
func NewCycleStream(log *logger.Logger) *CycleStream {
	return &CycleStream{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  log,
	}
}

// ServeWS upgrades the request and keeps the client until it disconnects
// GET /ws/cycles
func (s *CycleStream) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	conn.SetReadDeadline(time.Time{})

	s.mu.Lock()
	s.clients[conn] = &sync.Mutex{}
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.WithField("clients", count).Debug("WebSocket client connected")

	// Subscribers only listen; reading detects the close
	go func() {
		defer s.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ObserveCycle broadcasts the report
func (s *CycleStream) ObserveCycle(report *contracts.CycleReport) {
	data, err := json.Marshal(StreamMessage{Type: "cycle", Payload: report})
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal cycle message")
		return
	}

	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	locks := make([]*sync.Mutex, 0, len(s.clients))
	for conn, lock := range s.clients {
		conns = append(conns, conn)
		locks = append(locks, lock)
	}
	s.mu.RUnlock()

	for i, conn := range conns {
		locks[i].Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, data)
		locks[i].Unlock()

		if err != nil {
			s.logger.WithError(err).Warn("Failed to send cycle to client")
			s.remove(conn)
		}
	}
}

// Clients returns the number of connected subscribers
func (s *CycleStream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *CycleStream) remove(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()

	if ok {
		conn.Close()
	}
}
