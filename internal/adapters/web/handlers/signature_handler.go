package handlers

import (
	"net/http"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// SignatureHandler reports on and refreshes the signature database.
type SignatureHandler struct {
	Service ports.SecurityService
}

// NewSignatureHandler creates a new SignatureHandler
func NewSignatureHandler(service ports.SecurityService) *SignatureHandler {
	return &SignatureHandler{Service: service}
}

// HandleInfo returns the signature count and the last update time.
func (h *SignatureHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.GetSignatureCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	last, err := h.Service.GetLastUpdate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{"count": count}
	if !last.IsZero() {
		resp["last_update"] = last.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdate pulls the configured feed into the database.
func (h *SignatureHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Service.UpdateSignatureDatabase(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := h.Service.GetSignatureCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated": updated,
		"count":   count,
	})
}
