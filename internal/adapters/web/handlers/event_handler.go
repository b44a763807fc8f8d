package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// EventHandler serves the security event journal
type EventHandler struct {
	Service ports.SecurityService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(service ports.SecurityService) *EventHandler {
	return &EventHandler{Service: service}
}

// HandleList returns the newest events first. ?limit= caps the result.
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.Service.RecentEvents(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to fetch security events: %v", err)
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}
