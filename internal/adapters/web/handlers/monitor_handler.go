package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// MonitorHandler controls the real-time monitor.
type MonitorHandler struct {
	Service ports.SecurityService
}

// NewMonitorHandler creates a new MonitorHandler
func NewMonitorHandler(service ports.SecurityService) *MonitorHandler {
	return &MonitorHandler{Service: service}
}

// HandleStatus returns the monitor status
func (h *MonitorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.MonitorStatus())
}

// HandleStart starts monitoring. Starting an active monitor is a no-op.
func (h *MonitorHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.StartMonitoring(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.MonitorStatus())
}

// HandleStop stops monitoring.
func (h *MonitorHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.StopMonitoring(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.MonitorStatus())
}
