package security

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"github.com/lcalzada-xor/fsguard/internal/core/services/audit"
	"github.com/lcalzada-xor/fsguard/internal/core/services/monitor"
	"github.com/lcalzada-xor/fsguard/internal/core/services/quarantine"
	"github.com/lcalzada-xor/fsguard/internal/core/services/rules"
	"github.com/lcalzada-xor/fsguard/internal/core/services/signature"
	"github.com/lcalzada-xor/fsguard/internal/telemetry"
)

// Components are the collaborators assembled by the application layer.
type Components struct {
	Rules      *rules.Store
	Evaluator  ports.RuleEvaluator
	Signatures *signature.Service
	Quarantine *quarantine.Manager
	Monitor    *monitor.Monitor
	Journal    *audit.Journal
	Subject    *Subject
	Hasher     ports.FileHasher
	// Closers are released by Close after the monitor stops.
	Closers []io.Closer
}

// Service is the single entry point to the file-security core.
type Service struct {
	c Components
}

// NewService creates the façade.
func NewService(c Components) *Service {
	if c.Subject == nil {
		c.Subject = NewSubject(c.Journal)
	}
	return &Service{c: c}
}

// StartMonitoring starts the real-time monitor.
func (s *Service) StartMonitoring(ctx context.Context) error {
	return s.c.Monitor.Start(ctx)
}

// StopMonitoring stops the real-time monitor.
func (s *Service) StopMonitoring(ctx context.Context) error {
	return s.c.Monitor.Stop(ctx)
}

// MonitorStatus returns the monitor's current status.
func (s *Service) MonitorStatus() domain.MonitorStatus {
	return s.c.Monitor.Status()
}

// ScanFile checks one file without acting on it. Signatures are consulted
// first, then file rules; the first hit wins. It returns nil for a clean file.
func (s *Service) ScanFile(ctx context.Context, path string) (*domain.ThreatDetection, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAccess, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrAccess, path)
	}

	hashes, err := s.c.Hasher.HashAll(ctx, path)
	if err != nil {
		return nil, err
	}

	if s.c.Signatures != nil {
		sig, matched, err := s.c.Signatures.CheckHashes(ctx, hashes)
		if err != nil {
			return nil, err
		}
		if sig != nil {
			d := domain.NewSignatureDetection(path, *sig, matched, domain.ActionAlert)
			return &d, nil
		}
	}

	if s.c.Evaluator != nil {
		if triggered := s.c.Evaluator.Evaluate(ctx, path, domain.CategoryFile); len(triggered) > 0 {
			d := domain.NewRuleDetection(path, triggered[0], hashes.SHA256)
			return &d, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	return nil, nil
}

// ScanDirectory scans every regular file under root. Per-file failures are
// collected in the result; cancellation ends the scan early with Success=false.
func (s *Service) ScanDirectory(ctx context.Context, root string, onProgress func(domain.ScanProgress)) domain.ScanResult {
	ctx, span := telemetry.Tracer().Start(ctx, "security.scan_directory")
	span.SetAttributes(attribute.String("scan.root", root))
	defer span.End()

	result := domain.ScanResult{Root: root, StartedAt: time.Now().UTC()}

	if _, err := os.Stat(root); err != nil {
		result.AddError(root, err)
		result.FinishedAt = time.Now().UTC()
		result.Message = fmt.Sprintf("cannot scan %s: %v", root, err)
		return result
	}

	files := collectFiles(root, &result)
	result.FilesTotal = len(files)

	cancelled := false
	for i, path := range files {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		d, err := s.ScanFile(ctx, path)
		result.FilesScanned++
		telemetry.FilesScanned.Inc()
		switch {
		case errors.Is(err, domain.ErrCancelled):
			cancelled = true
		case err != nil:
			result.AddError(path, err)
		case d != nil:
			result.Detections = append(result.Detections, *d)
			telemetry.Detections.WithLabelValues(d.Source(), string(d.Severity)).Inc()
			s.c.Subject.NotifyThreatDetected(ctx, *d)
		}

		if onProgress != nil {
			onProgress(domain.NewScanProgress(i+1, len(files), path))
		}
		if cancelled {
			break
		}
	}

	result.FinishedAt = time.Now().UTC()
	result.Summarize(cancelled)
	span.SetAttributes(
		attribute.Int("scan.files", result.FilesScanned),
		attribute.Int("scan.detections", len(result.Detections)),
	)

	severity := domain.SeverityLow
	if len(result.Detections) > 0 {
		severity = domain.SeverityMedium
	}
	audit.Emit(ctx, s.c.Subject, domain.EventScanCompleted, severity, result.Message,
		fmt.Sprintf("files=%d threats=%d errors=%d duration=%s",
			result.FilesScanned, len(result.Detections), len(result.Errors), result.Duration()),
		root)
	return result
}

// collectFiles walks root, recording unreadable entries as errors.
func collectFiles(root string, result *domain.ScanResult) []string {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.AddError(path, err)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		result.AddError(root, err)
	}
	return files
}

// QuarantineFile isolates a file on operator request.
func (s *Service) QuarantineFile(ctx context.Context, path string) (domain.QuarantineItem, error) {
	d := domain.ThreatDetection{
		FilePath:    path,
		ThreatName:  "Manual quarantine",
		Category:    domain.ThreatSuspicious,
		Severity:    domain.SeverityMedium,
		Action:      domain.ActionQuarantine,
		ActionTaken: domain.ResultQuarantined,
		DetectedAt:  time.Now().UTC(),
	}
	item, err := s.c.Quarantine.Quarantine(ctx, path, d)
	if err != nil {
		return domain.QuarantineItem{}, err
	}
	s.c.Subject.NotifyFileQuarantined(ctx, item)
	return item, nil
}

// RestoreFromQuarantine moves an isolated file back to its original path.
func (s *Service) RestoreFromQuarantine(ctx context.Context, id int64) error {
	return s.c.Quarantine.Restore(ctx, id)
}

// DeleteFromQuarantine securely erases an isolated file.
func (s *Service) DeleteFromQuarantine(ctx context.Context, id int64) error {
	return s.c.Quarantine.PermanentlyDelete(ctx, id)
}

// ListQuarantine returns the active quarantine items.
func (s *Service) ListQuarantine() []domain.QuarantineItem {
	return s.c.Quarantine.List()
}

func (s *Service) AddRule(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error) {
	return s.c.Rules.Add(ctx, rule)
}

func (s *Service) AddRuleText(ctx context.Context, text string) (domain.SecurityRule, error) {
	return s.c.Rules.AddText(ctx, text)
}

func (s *Service) UpdateRule(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error) {
	return s.c.Rules.Update(ctx, rule)
}

func (s *Service) DeleteRule(ctx context.Context, sid int) error {
	return s.c.Rules.Delete(ctx, sid)
}

func (s *Service) ToggleRule(ctx context.Context, sid int, enabled bool) error {
	return s.c.Rules.Toggle(ctx, sid, enabled)
}

func (s *Service) GetAllRules() []domain.SecurityRule {
	return s.c.Rules.GetAll()
}

// GetRuleBySid returns the rule or ErrNotFound.
func (s *Service) GetRuleBySid(sid int) (domain.SecurityRule, error) {
	rule, ok := s.c.Rules.GetBySid(sid)
	if !ok {
		return domain.SecurityRule{}, fmt.Errorf("%w: sid %d", domain.ErrNotFound, sid)
	}
	return rule, nil
}

func (s *Service) GetSignatureCount(ctx context.Context) (int, error) {
	return s.c.Signatures.GetSignatureCount(ctx)
}

func (s *Service) GetLastUpdate(ctx context.Context) (time.Time, error) {
	return s.c.Signatures.GetLastUpdate(ctx)
}

// UpdateSignatureDatabase pulls the configured feed into the signature store.
func (s *Service) UpdateSignatureDatabase(ctx context.Context) (bool, error) {
	return s.c.Signatures.UpdateFromFeed(ctx)
}

// AddObserver registers an observer for detections, quarantines and events.
func (s *Service) AddObserver(observer ports.SecurityObserver) {
	s.c.Subject.AddObserver(observer)
}

// RecentEvents returns the newest security events first.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]domain.SecurityEvent, error) {
	if s.c.Journal == nil {
		return nil, nil
	}
	return s.c.Journal.RecentEvents(ctx, limit)
}

// Close stops monitoring and releases storage handles.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if s.c.Monitor != nil {
		if err := s.c.Monitor.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range s.c.Closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		slog.Warn("Security service closed with errors", "errors", len(errs))
	}
	return errors.Join(errs...)
}

var _ ports.SecurityService = (*Service)(nil)
