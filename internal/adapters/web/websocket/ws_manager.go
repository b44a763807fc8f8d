package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// Message types pushed to clients.
const (
	TypeThreat     = "threat.detected"
	TypeQuarantine = "file.quarantined"
	TypeEvent      = "security.event"
	TypeProgress   = "scan.progress"
	TypeStatus     = "monitor.status"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSManager streams security notifications to websocket clients. It is
// registered as a SecurityObserver on the security service.
type WSManager struct {
	// Status, when set, is swept to clients every StatusInterval.
	Status         func() domain.MonitorStatus
	StatusInterval time.Duration
	// AllowedOrigins extends the same-origin check.
	AllowedOrigins []string

	clients  map[*gws.Conn]struct{}
	mu       sync.Mutex
	upgrader gws.Upgrader
}

func NewWSManager(status func() domain.MonitorStatus) *WSManager {
	m := &WSManager{
		Status:         status,
		StatusInterval: 2 * time.Second,
		clients:        make(map[*gws.Conn]struct{}),
	}
	m.upgrader = gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

func (m *WSManager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Allow same-origin (no Origin header)
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range m.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	log.Printf("WebSocket: Rejected origin: %s", origin)
	return false
}

// Start runs the status sweep until ctx is cancelled.
func (m *WSManager) Start(ctx context.Context) {
	if m.Status == nil || m.StatusInterval <= 0 {
		return
	}
	go m.sweepStatus(ctx)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	m.mu.Unlock()

	log.Printf("WebSocket connected: %s", r.RemoteAddr)

	// Clean up on disconnect
	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			log.Printf("WebSocket disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// ClientCount returns the number of connected clients.
func (m *WSManager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *WSManager) sweepStatus(ctx context.Context) {
	ticker := time.NewTicker(m.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.ClientCount() > 0 {
				m.broadcastMessage(WSMessage{Type: TypeStatus, Payload: m.Status()})
			}
		}
	}
}

func (m *WSManager) OnThreatDetected(ctx context.Context, detection domain.ThreatDetection) {
	m.broadcastMessage(WSMessage{Type: TypeThreat, Payload: detection})
}

func (m *WSManager) OnFileQuarantined(ctx context.Context, item domain.QuarantineItem) {
	m.broadcastMessage(WSMessage{Type: TypeQuarantine, Payload: item})
}

func (m *WSManager) OnSecurityEvent(ctx context.Context, event domain.SecurityEvent) {
	m.broadcastMessage(WSMessage{Type: TypeEvent, Payload: event})
}

// BroadcastProgress sends directory scan progress to all connected clients
func (m *WSManager) BroadcastProgress(p domain.ScanProgress) {
	m.broadcastMessage(WSMessage{Type: TypeProgress, Payload: p})
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(gws.TextMessage, data); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

var _ ports.SecurityObserver = (*WSManager)(nil)
