package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/lcalzada-xor/wraith/internal/core/ports"
)

// DefaultInterval is how often connected clients receive a status frame.
const DefaultInterval = 500 * time.Millisecond

const writeWait = 5 * time.Second

// WSMessage is the envelope of every frame pushed to clients.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WSManager streams engine status to browser clients.
type WSManager struct {
	Controller ports.AttackController
	Interval   time.Duration

	upgrader gws.Upgrader
	clients  map[*gws.Conn]struct{}
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewWSManager accepts connections from the origins listed; none means same-origin only.
func NewWSManager(controller ports.AttackController, allowedOrigins ...string) *WSManager {
	m := &WSManager{
		Controller: controller,
		Interval:   DefaultInterval,
		clients:    make(map[*gws.Conn]struct{}),
		logger:     slog.With("component", "websocket"),
	}
	m.upgrader = gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == "http://"+r.Host {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			m.logger.Warn("Rejected origin", "origin", origin)
			return false
		},
	}
	return m
}

// Start broadcasts until ctx is cancelled, then closes every client.
func (m *WSManager) Start(ctx context.Context) {
	go m.processAndBroadcast(ctx)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("Upgrade error", "error", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	m.mu.Unlock()
	m.logger.Debug("Client connected", "remote", r.RemoteAddr)

	// reads only detect disconnects
	go func() {
		defer m.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (m *WSManager) drop(conn *gws.Conn) {
	m.mu.Lock()
	_, ok := m.clients[conn]
	delete(m.clients, conn)
	m.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// Clients returns the number of connected clients.
func (m *WSManager) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *WSManager) processAndBroadcast(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			if m.Clients() > 0 {
				m.broadcastStatus(ctx)
			}
		}
	}
}

func (m *WSManager) broadcastStatus(ctx context.Context) {
	st, err := m.Controller.Status(ctx)
	if err != nil {
		m.logger.Debug("Status unavailable", "error", err)
		return
	}
	m.Broadcast(WSMessage{Type: "status", Payload: st})
}

// Broadcast sends msg to every client, dropping those that fail.
func (m *WSManager) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("JSON marshal error", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(gws.TextMessage, data); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

func (m *WSManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.WriteControl(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseGoingAway, ""), time.Now().Add(writeWait))
		conn.Close()
		delete(m.clients, conn)
	}
}
