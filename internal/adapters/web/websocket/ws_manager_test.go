package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, m *WSManager) *gws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	t.Cleanup(srv.Close)

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) (string, json.RawMessage) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Type, msg.Payload
}

func TestWSManager_ObserverNotifications(t *testing.T) {
	m := NewWSManager(nil)
	conn := dial(t, m)
	ctx := context.Background()

	event, err := domain.NewSecurityEvent(domain.EventMonitorStarted, domain.SeverityLow, "Monitor started", "", "")
	require.NoError(t, err)
	m.OnSecurityEvent(ctx, *event)

	typ, payload := readMessage(t, conn)
	assert.Equal(t, TypeEvent, typ)
	var got domain.SecurityEvent
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, domain.EventMonitorStarted, got.Type)

	m.OnFileQuarantined(ctx, domain.QuarantineItem{ID: 7, OriginalPath: "/tmp/x.exe"})
	typ, payload = readMessage(t, conn)
	assert.Equal(t, TypeQuarantine, typ)
	assert.Contains(t, string(payload), `"original_path":"/tmp/x.exe"`)

	m.BroadcastProgress(domain.NewScanProgress(1, 4, "/tmp/a"))
	typ, payload = readMessage(t, conn)
	assert.Equal(t, TypeProgress, typ)
	assert.Contains(t, string(payload), `"percent":25`)
}

func TestWSManager_StatusSweep(t *testing.T) {
	m := NewWSManager(func() domain.MonitorStatus {
		return domain.MonitorStatus{State: domain.MonitorActive, Processed: 3}
	})
	m.StatusInterval = 20 * time.Millisecond
	conn := dial(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	typ, payload := readMessage(t, conn)
	assert.Equal(t, TypeStatus, typ)
	assert.Contains(t, string(payload), `"state":"Active"`)
}

func TestWSManager_DisconnectRemovesClient(t *testing.T) {
	m := NewWSManager(nil)
	conn := dial(t, m)

	conn.Close()
	assert.Eventually(t, func() bool { return m.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWSManager_CheckOrigin(t *testing.T) {
	m := NewWSManager(nil)
	m.AllowedOrigins = []string{"http://dashboard.local"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://fsguard.local:8080", true},
		{"http://dashboard.local", true},
		{"http://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://fsguard.local:8080/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, m.checkOrigin(r), tt.origin)
	}
}
