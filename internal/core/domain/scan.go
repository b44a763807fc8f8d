package domain

import (
	"fmt"
	"time"
)

// ScanProgress is reported while a directory scan runs.
type ScanProgress struct {
	Processed   int    `json:"processed"`
	Total       int    `json:"total"`
	Percent     int    `json:"percent"`
	CurrentFile string `json:"current_file"`
}

// NewScanProgress computes the percent-complete value for processed/total.
func NewScanProgress(processed, total int, current string) ScanProgress {
	pct := 100
	if total > 0 {
		pct = processed * 100 / total
	}
	return ScanProgress{Processed: processed, Total: total, Percent: pct, CurrentFile: current}
}

// ScanResult is the outcome of an on-demand directory scan.
// Partial failures are accumulated in Errors instead of aborting the scan.
type ScanResult struct {
	Root         string            `json:"root"`
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	Detections   []ThreatDetection `json:"detections"`
	Errors       []string          `json:"errors,omitempty"`
	FilesScanned int               `json:"files_scanned"`
	FilesTotal   int               `json:"files_total"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
}

// AddError records a per-item failure.
func (r *ScanResult) AddError(path string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", path, err))
}

// Duration returns the scan wall time.
func (r *ScanResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summarize fills Success and Message from the accumulated state.
func (r *ScanResult) Summarize(cancelled bool) {
	r.Success = !cancelled
	switch {
	case cancelled:
		r.Message = fmt.Sprintf("scan cancelled after %d of %d files", r.FilesScanned, r.FilesTotal)
	case len(r.Detections) > 0:
		r.Message = fmt.Sprintf("scan completed: %d threat(s) in %d files", len(r.Detections), r.FilesScanned)
	default:
		r.Message = fmt.Sprintf("scan completed: no threats in %d files", r.FilesScanned)
	}
	if len(r.Errors) > 0 {
		r.Message += fmt.Sprintf(" (%d error(s))", len(r.Errors))
	}
}
