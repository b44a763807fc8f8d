package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// RuleHandler manages security rules.
type RuleHandler struct {
	Service ports.SecurityService
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(service ports.SecurityService) *RuleHandler {
	return &RuleHandler{Service: service}
}

// HandleList returns every rule ordered by sid, optionally filtered by category.
func (h *RuleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rules := h.Service.GetAllRules()
	if c := r.URL.Query().Get("category"); c != "" {
		category := domain.ParseRuleCategory(c)
		filtered := rules[:0]
		for _, rule := range rules {
			if rule.Category == category {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}

// HandleGet returns a single rule.
func (h *RuleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sid, ok := intVar(w, r, "sid")
	if !ok {
		return
	}
	rule, err := h.Service.GetRuleBySid(int(sid))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// HandleCreate adds a rule. A body carrying only "text" is parsed as rule
// language; otherwise the structured fields are used.
func (h *RuleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.SecurityRule
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		rule domain.SecurityRule
		err  error
	)
	if req.Sid == 0 && req.Text != "" {
		rule, err = h.Service.AddRuleText(r.Context(), req.Text)
	} else {
		rule, err = h.Service.AddRule(r.Context(), req)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// HandleUpdate replaces a rule's fields. The sid comes from the route.
func (h *RuleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sid, ok := intVar(w, r, "sid")
	if !ok {
		return
	}
	var req domain.SecurityRule
	if !decodeBody(w, r, &req) {
		return
	}
	req.Sid = int(sid)

	rule, err := h.Service.UpdateRule(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// HandleDelete removes a rule.
func (h *RuleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sid, ok := intVar(w, r, "sid")
	if !ok {
		return
	}
	if err := h.Service.DeleteRule(r.Context(), int(sid)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggle enables or disables a rule.
func (h *RuleHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	sid, ok := intVar(w, r, "sid")
	if !ok {
		return
	}
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		http.Error(w, "enabled is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.ToggleRule(r.Context(), int(sid), *req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sid": sid, "enabled": *req.Enabled})
}
