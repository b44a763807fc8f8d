package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/fsguard/internal/adapters/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)

	api := r.PathPrefix("/api").Subrouter()

	// Mutating endpoints are rate limited
	rateLimit := middleware.RateLimit(s.MutationLimiter)
	limited := func(path string, h http.HandlerFunc) *mux.Route {
		return api.Handle(path, rateLimit(h))
	}

	// Monitor
	api.HandleFunc("/monitor", s.MonitorHandler.HandleStatus).Methods(http.MethodGet)
	limited("/monitor/start", s.MonitorHandler.HandleStart).Methods(http.MethodPost)
	limited("/monitor/stop", s.MonitorHandler.HandleStop).Methods(http.MethodPost)

	// On-demand scans
	limited("/scan/file", s.ScanHandler.HandleScanFile).Methods(http.MethodPost)
	limited("/scan/directory", s.ScanHandler.HandleScanDirectory).Methods(http.MethodPost)
	limited("/scan/report", s.ScanHandler.HandleScanReport).Methods(http.MethodPost)

	// Quarantine
	api.HandleFunc("/quarantine", s.QuarantineHandler.HandleList).Methods(http.MethodGet)
	limited("/quarantine", s.QuarantineHandler.HandleQuarantine).Methods(http.MethodPost)
	limited("/quarantine/{id:[0-9]+}/restore", s.QuarantineHandler.HandleRestore).Methods(http.MethodPost)
	limited("/quarantine/{id:[0-9]+}", s.QuarantineHandler.HandleDelete).Methods(http.MethodDelete)

	// Rules
	api.HandleFunc("/rules", s.RuleHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/rules/{sid:[0-9]+}", s.RuleHandler.HandleGet).Methods(http.MethodGet)
	limited("/rules", s.RuleHandler.HandleCreate).Methods(http.MethodPost)
	limited("/rules/{sid:[0-9]+}", s.RuleHandler.HandleUpdate).Methods(http.MethodPut)
	limited("/rules/{sid:[0-9]+}", s.RuleHandler.HandleDelete).Methods(http.MethodDelete)
	limited("/rules/{sid:[0-9]+}/toggle", s.RuleHandler.HandleToggle).Methods(http.MethodPost)

	// Signatures
	api.HandleFunc("/signatures", s.SignatureHandler.HandleInfo).Methods(http.MethodGet)
	limited("/signatures/update", s.SignatureHandler.HandleUpdate).Methods(http.MethodPost)

	// Security events
	api.HandleFunc("/events", s.EventHandler.HandleList).Methods(http.MethodGet)

	return r
}
