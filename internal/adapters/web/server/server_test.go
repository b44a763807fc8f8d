package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/adapters/reporting"
	"github.com/lcalzada-xor/fsguard/internal/adapters/web"
	"github.com/lcalzada-xor/fsguard/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/fsguard/internal/adapters/web/server"
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// setupServer helper creates a server instance with a mocked service
func setupServer(t *testing.T) (*server.Server, *web.MockSecurityService) {
	t.Helper()
	svc := new(web.MockSecurityService)
	svc.On("AddObserver", mock.Anything).Return()

	srv := server.NewServer("127.0.0.1:0", svc, reporting.NewPDFExporter())
	t.Cleanup(func() { svc.AssertExpectations(t) })
	return srv, svc
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv, _ := setupServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = do(t, h, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Monitor(t *testing.T) {
	srv, svc := setupServer(t)
	h := srv.Handler()

	active := domain.MonitorStatus{State: domain.MonitorActive, WatchedPaths: []string{"/home/user/Downloads"}}
	svc.On("MonitorStatus").Return(active)
	svc.On("StartMonitoring", mock.Anything).Return(nil).Once()
	svc.On("StopMonitoring", mock.Anything).Return(domain.ErrMonitorBusy).Once()

	rec := do(t, h, http.MethodGet, "/api/monitor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Active", decode(t, rec)["state"])

	rec = do(t, h, http.MethodPost, "/api/monitor/start", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/monitor/stop", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "changing state")

	rec = do(t, h, http.MethodGet, "/api/monitor/start", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ScanFile(t *testing.T) {
	srv, svc := setupServer(t)
	h := srv.Handler()

	rule := domain.SecurityRule{Sid: 1006, Message: "Known ransomware extension", Action: domain.ActionQuarantine}
	detection := domain.NewRuleDetection("/srv/readme.locky", rule, "")

	svc.On("ScanFile", mock.Anything, "/srv/clean.txt").Return(nil, nil)
	svc.On("ScanFile", mock.Anything, "/srv/readme.locky").Return(&detection, nil)
	svc.On("ScanFile", mock.Anything, "/srv/gone").Return(nil, fmt.Errorf("%w: /srv/gone", domain.ErrNotFound))

	rec := do(t, h, http.MethodPost, "/api/scan/file", map[string]string{"path": "/srv/clean.txt"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["clean"])

	rec = do(t, h, http.MethodPost, "/api/scan/file", map[string]string{"path": "/srv/readme.locky"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["clean"])
	assert.Equal(t, "Known ransomware extension", body["detection"].(map[string]interface{})["threat_name"])

	rec = do(t, h, http.MethodPost, "/api/scan/file", map[string]string{"path": "/srv/gone"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/scan/file", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/scan/file", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ScanDirectoryAndReport(t *testing.T) {
	srv, svc := setupServer(t)
	h := srv.Handler()

	result := domain.ScanResult{
		Root:         "/srv",
		Success:      true,
		Message:      "scan completed: no threats in 3 files",
		FilesScanned: 3,
		FilesTotal:   3,
		StartedAt:    time.Now().Add(-time.Second),
		FinishedAt:   time.Now(),
	}
	svc.On("ScanDirectory", mock.Anything, "/srv", mock.Anything).Return(result)
	svc.On("ListQuarantine").Return([]domain.QuarantineItem{})

	rec := do(t, h, http.MethodPost, "/api/scan/directory", map[string]string{"path": "/srv"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["files_scanned"])

	rec = do(t, h, http.MethodPost, "/api/scan/report", map[string]string{"path": "/srv", "title": "Nightly"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fsguard-scan-")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestServer_Quarantine(t *testing.T) {
	srv, svc := setupServer(t)
	h := srv.Handler()

	item := domain.QuarantineItem{ID: 4, OriginalPath: "/srv/x.exe", ThreatName: "Manual quarantine", CanRestore: true}
	svc.On("ListQuarantine").Return([]domain.QuarantineItem{item})
	svc.On("QuarantineFile", mock.Anything, "/srv/x.exe").Return(item, nil)
	svc.On("RestoreFromQuarantine", mock.Anything, int64(4)).Return(nil)
	svc.On("RestoreFromQuarantine", mock.Anything, int64(5)).Return(fmt.Errorf("%w: quarantine item 5 cannot be restored", domain.ErrAccess))
	svc.On("DeleteFromQuarantine", mock.Anything, int64(9)).Return(fmt.Errorf("%w: quarantine item 9", domain.ErrNotFound))

	rec := do(t, h, http.MethodGet, "/api/quarantine", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = do(t, h, http.MethodPost, "/api/quarantine", map[string]string{"path": "/srv/x.exe"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/quarantine/4/restore", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "restored", decode(t, rec)["status"])

	rec = do(t, h, http.MethodPost, "/api/quarantine/5/restore", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/quarantine/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/quarantine/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Rules(t *testing.T) {
	srv, svc := setupServer(t)
	h := srv.Handler()

	fileRule := domain.SecurityRule{Sid: 1006, Revision: 1, Category: domain.CategoryFile, Action: domain.ActionQuarantine, Message: "Known ransomware extension", ContentPattern: "*.locky", Enabled: true}
	procRule := domain.SecurityRule{Sid: 1010, Revision: 1, Category: domain.CategoryProcess, Action: domain.ActionAlert, Message: "Process rule", Enabled: true}
	text := `alert file any any -> any any (msg:"Test"; content:"*.test"; sid:8888; rev:1;)`
	parsed := domain.SecurityRule{Sid: 8888, Revision: 1, Category: domain.CategoryFile, Action: domain.ActionAlert, Message: "Test", ContentPattern: "*.test", Enabled: true, Text: text}

	svc.On("GetAllRules").Return([]domain.SecurityRule{fileRule, procRule})
	svc.On("GetRuleBySid", 1006).Return(fileRule, nil)
	svc.On("GetRuleBySid", 42).Return(domain.SecurityRule{}, fmt.Errorf("%w: sid 42", domain.ErrNotFound))
	svc.On("AddRuleText", mock.Anything, text).Return(parsed, nil)
	svc.On("AddRuleText", mock.Anything, "garbage").Return(domain.SecurityRule{}, &domain.ParseError{Text: "garbage", Reason: "missing options"})
	svc.On("AddRule", mock.Anything, mock.MatchedBy(func(r domain.SecurityRule) bool { return r.Sid == 1006 })).
		Return(domain.SecurityRule{}, fmt.Errorf("%w: sid 1006", domain.ErrDuplicateSid))
	svc.On("UpdateRule", mock.Anything, mock.MatchedBy(func(r domain.SecurityRule) bool { return r.Sid == 1006 && !r.Enabled })).
		Return(domain.SecurityRule{Sid: 1006, Revision: 2}, nil)
	svc.On("DeleteRule", mock.Anything, 1010).Return(nil)
	svc.On("ToggleRule", mock.Anything, 1006, false).Return(nil)

	rec := do(t, h, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["count"])

	rec = do(t, h, http.MethodGet, "/api/rules?category=process", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = do(t, h, http.MethodGet, "/api/rules/1006", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/rules/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/rules", map[string]string{"text": text})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(8888), decode(t, rec)["sid"])

	rec = do(t, h, http.MethodPost, "/api/rules", map[string]string{"text": "garbage"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/rules", fileRule)
	assert.Equal(t, http.StatusConflict, rec.Code)

	update := fileRule
	update.Sid = 0
	update.Enabled = false
	rec = do(t, h, http.MethodPut, "/api/rules/1006", update)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["revision"])

	rec = do(t, h, http.MethodDelete, "/api/rules/1010", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/rules/1006/toggle", map[string]bool{"enabled": false})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/rules/1006/toggle", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Signatures(t *testing.T) {
	srv, svc := setupServer(t)
	h := srv.Handler()

	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.On("GetSignatureCount", mock.Anything).Return(12, nil)
	svc.On("GetLastUpdate", mock.Anything).Return(last, nil)
	svc.On("UpdateSignatureDatabase", mock.Anything).Return(true, nil)

	rec := do(t, h, http.MethodGet, "/api/signatures", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(12), body["count"])
	assert.Equal(t, "2026-03-01T12:00:00Z", body["last_update"])

	rec = do(t, h, http.MethodPost, "/api/signatures/update", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["updated"])
}

func TestServer_SignatureStorageFailure(t *testing.T) {
	srv, svc := setupServer(t)
	svc.On("GetSignatureCount", mock.Anything).Return(0, fmt.Errorf("%w: database locked", domain.ErrStorage))

	rec := do(t, srv.Handler(), http.MethodGet, "/api/signatures", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_Events(t *testing.T) {
	srv, svc := setupServer(t)
	h := srv.Handler()

	e, err := domain.NewSecurityEvent(domain.EventMonitorStarted, domain.SeverityLow, "Monitor started", "", "")
	require.NoError(t, err)
	svc.On("RecentEvents", mock.Anything, 100).Return([]domain.SecurityEvent{*e}, nil)
	svc.On("RecentEvents", mock.Anything, 5).Return([]domain.SecurityEvent{}, nil)
	svc.On("RecentEvents", mock.Anything, 1000).Return(nil, errors.New("disk I/O error"))

	rec := do(t, h, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["events"], 1)

	rec = do(t, h, http.MethodGet, "/api/events?limit=5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/events?limit=50000", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/events?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RateLimitsMutations(t *testing.T) {
	srv, svc := setupServer(t)
	srv.MutationLimiter = middleware.NewRateLimiter(1, time.Minute)
	h := srv.Handler()

	svc.On("UpdateSignatureDatabase", mock.Anything).Return(false, nil).Once()
	svc.On("GetSignatureCount", mock.Anything).Return(0, nil)
	svc.On("GetLastUpdate", mock.Anything).Return(time.Time{}, nil)

	rec := do(t, h, http.MethodPost, "/api/signatures/update", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/signatures/update", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are not limited.
	for i := 0; i < 3; i++ {
		rec = do(t, h, http.MethodGet, "/api/signatures", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	srv, _ := setupServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
