package reporting

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// PDFExporter exports scan reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportScanReport renders a scan result and the quarantine log.
func (e *PDFExporter) ExportScanReport(report *domain.ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	stats := report.Stats()

	e.addHeader(pdf, tr, report)
	e.addVerdict(pdf, report, stats)
	e.addStatistics(pdf, stats)
	e.addDetections(pdf, tr, report)
	e.addQuarantine(pdf, tr, report)
	e.addErrors(pdf, tr, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, tr func(string) string, report *domain.ReportData) {
	title := report.Title
	if title == "" {
		title = "File Security Scan Report"
	}
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, tr("Scanned root: "+report.Scan.Root), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if !report.Scan.StartedAt.IsZero() {
		pdf.CellFormat(0, 6, fmt.Sprintf("Scan duration: %s", report.Scan.Duration().Round(time.Millisecond)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

// addVerdict draws the coloured summary box.
func (e *PDFExporter) addVerdict(pdf *gofpdf.Fpdf, report *domain.ReportData, stats domain.ReportStats) {
	r, g, b := e.getSeverityColor(stats.Highest)
	pdf.SetFillColor(r, g, b)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 24, "F")

	verdict := "No threats found"
	if stats.Threats > 0 {
		verdict = fmt.Sprintf("%d threat(s) - highest severity %s", stats.Threats, stats.Highest)
	}
	if !report.Scan.Success {
		verdict += " (incomplete)"
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(25, y+7)
	pdf.CellFormat(160, 10, verdict, "", 0, "L", false, 0, "")
	pdf.SetY(y + 30)
}

// getSeverityColor returns RGB color based on severity
func (e *PDFExporter) getSeverityColor(severity domain.Severity) (r, g, b int) {
	switch severity {
	case domain.SeverityCritical:
		return 220, 53, 69 // Red
	case domain.SeverityHigh:
		return 255, 149, 0 // Orange
	case domain.SeverityMedium:
		return 230, 180, 0 // Yellow
	default:
		return 52, 199, 89 // Green
	}
}

func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, stats domain.ReportStats) {
	e.sectionTitle(pdf, "Overview")

	rows := []struct {
		label string
		value int
		sev   domain.Severity
	}{
		{"Files scanned", stats.FilesScanned, ""},
		{"Threats", stats.Threats, ""},
		{"Critical", stats.BySeverity[domain.SeverityCritical], domain.SeverityCritical},
		{"High", stats.BySeverity[domain.SeverityHigh], domain.SeverityHigh},
		{"Medium", stats.BySeverity[domain.SeverityMedium], domain.SeverityMedium},
		{"Low", stats.BySeverity[domain.SeverityLow], domain.SeverityLow},
		{"Signature matches", stats.BySource["signature"], ""},
		{"Rule matches", stats.BySource["rule"], ""},
		{"Quarantined files", stats.Quarantined, ""},
		{"Errors", stats.Errors, ""},
	}

	// Display in 2 columns
	for i, row := range rows {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, row.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		if row.sev != "" {
			r, g, b := e.getSeverityColor(row.sev)
			pdf.SetTextColor(r, g, b)
		} else {
			pdf.SetTextColor(0, 102, 204)
		}
		pdf.CellFormat(35, 7, fmt.Sprintf("%d", row.value), "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addDetections(pdf *gofpdf.Fpdf, tr func(string) string, report *domain.ReportData) {
	e.sectionTitle(pdf, "Detections")

	if len(report.Scan.Detections) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No threats identified", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	// Table header
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(55, 8, "File", "1", 0, "L", true, 0, "")
	pdf.CellFormat(55, 8, "Threat", "1", 0, "L", true, 0, "")
	pdf.CellFormat(22, 8, "Severity", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 8, "Source", "1", 0, "C", true, 0, "")
	pdf.CellFormat(16, 8, "Sid", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, d := range report.Scan.Detections {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		r, g, b := e.getSeverityColor(d.Severity)

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(55, 7, tr(truncate(filepath.Base(d.FilePath), 32)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, tr(truncate(d.ThreatName, 32)), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(22, 7, string(d.Severity), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(22, 7, d.Source(), "1", 0, "C", false, 0, "")
		sid := "-"
		if d.RuleSid() != 0 {
			sid = fmt.Sprintf("%d", d.RuleSid())
		}
		pdf.CellFormat(16, 7, sid, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addQuarantine(pdf *gofpdf.Fpdf, tr func(string) string, report *domain.ReportData) {
	if len(report.Quarantine) == 0 {
		return
	}
	e.sectionTitle(pdf, "Quarantine")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, item := range report.Quarantine {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		restore := "restorable"
		if !item.CanRestore {
			restore = "locked"
		}
		line := fmt.Sprintf("#%d  %s  %s  (%s, %s)", item.ID,
			item.QuarantineDate.Format("2006-01-02 15:04"),
			truncate(item.OriginalPath, 60), item.ThreatName, restore)
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addErrors(pdf *gofpdf.Fpdf, tr func(string) string, report *domain.ReportData) {
	if len(report.Scan.Errors) == 0 {
		return
	}
	e.sectionTitle(pdf, "Errors")

	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(150, 50, 50)
	for i, msg := range report.Scan.Errors {
		if i >= 20 {
			pdf.CellFormat(0, 5, fmt.Sprintf("... and %d more", len(report.Scan.Errors)-i), "", 1, "L", false, 0, "")
			break
		}
		pdf.MultiCell(0, 5, tr(truncate(msg, 140)), "", "L", false)
	}
}

// addFooter adds the report footer
func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.ReportData) {
	pdf.SetY(-20)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by %s | Report ID: %s", report.GeneratedBy, id), "", 1, "C", false, 0, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
