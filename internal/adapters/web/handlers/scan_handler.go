package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/fsguard/internal/adapters/reporting"
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// ScanHandler runs on-demand scans.
type ScanHandler struct {
	Service     ports.SecurityService
	PDFExporter *reporting.PDFExporter
	// OnProgress, when set, receives directory scan progress (the websocket stream).
	OnProgress func(domain.ScanProgress)
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(service ports.SecurityService, exporter *reporting.PDFExporter) *ScanHandler {
	return &ScanHandler{
		Service:     service,
		PDFExporter: exporter,
	}
}

// HandleScanFile scans a single file. A clean file yields "clean": true.
func (h *ScanHandler) HandleScanFile(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	detection, err := h.Service.ScanFile(r.Context(), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"path":      req.Path,
		"clean":     detection == nil,
		"detection": detection,
	})
}

// HandleScanDirectory scans a tree and returns the full ScanResult.
func (h *ScanHandler) HandleScanDirectory(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	result := h.Service.ScanDirectory(r.Context(), req.Path, h.OnProgress)
	writeJSON(w, http.StatusOK, result)
}

// HandleScanReport scans a tree and returns a PDF report.
func (h *ScanHandler) HandleScanReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path  string `json:"path"`
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	if h.PDFExporter == nil {
		http.Error(w, "PDF export not available", http.StatusNotImplemented)
		return
	}

	result := h.Service.ScanDirectory(r.Context(), req.Path, h.OnProgress)
	report := &domain.ReportData{
		ID:          uuid.New().String(),
		Title:       req.Title,
		GeneratedAt: time.Now(),
		GeneratedBy: hostname(),
		Scan:        result,
		Quarantine:  h.Service.ListQuarantine(),
	}

	pdf, err := h.PDFExporter.ExportScanReport(report)
	if err != nil {
		log.Printf("Report generation failed: %v", err)
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("fsguard-scan-%s.pdf", report.GeneratedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "fsguard"
	}
	return h
}
