package domain

import "time"

// ReportData aggregates all data needed for a scan report.
type ReportData struct {
	ID          string
	Title       string
	GeneratedAt time.Time
	GeneratedBy string // host or operator
	Scan        ScanResult
	Quarantine  []QuarantineItem
}

// ReportStats holds summary statistics.
type ReportStats struct {
	FilesScanned int
	Threats      int
	Errors       int
	Quarantined  int
	BySeverity   map[Severity]int
	BySource     map[string]int
	Highest      Severity
}

// Stats summarises the scan detections.
func (r *ReportData) Stats() ReportStats {
	s := ReportStats{
		FilesScanned: r.Scan.FilesScanned,
		Threats:      len(r.Scan.Detections),
		Errors:       len(r.Scan.Errors),
		Quarantined:  len(r.Quarantine),
		BySeverity:   make(map[Severity]int),
		BySource:     make(map[string]int),
	}
	for i := range r.Scan.Detections {
		d := &r.Scan.Detections[i]
		s.BySeverity[d.Severity]++
		s.BySource[d.Source()]++
		if s.Highest == "" || d.Severity.Rank() > s.Highest.Rank() {
			s.Highest = d.Severity
		}
	}
	return s
}
