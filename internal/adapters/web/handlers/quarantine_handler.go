package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// QuarantineHandler exposes the quarantine lifecycle.
type QuarantineHandler struct {
	Service ports.SecurityService
}

// NewQuarantineHandler creates a new QuarantineHandler
func NewQuarantineHandler(service ports.SecurityService) *QuarantineHandler {
	return &QuarantineHandler{Service: service}
}

// HandleList returns the active quarantine items
func (h *QuarantineHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": h.Service.ListQuarantine(),
	})
}

// HandleQuarantine isolates a file on operator request.
func (h *QuarantineHandler) HandleQuarantine(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	item, err := h.Service.QuarantineFile(r.Context(), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleRestore moves an isolated file back to its original path.
func (h *QuarantineHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.RestoreFromQuarantine(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": "restored"})
}

// HandleDelete securely erases an isolated file.
func (h *QuarantineHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteFromQuarantine(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": "deleted"})
}
