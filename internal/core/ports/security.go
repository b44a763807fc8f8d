package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// SecurityObserver receives notifications emitted by the security core.
type SecurityObserver interface {
	OnThreatDetected(ctx context.Context, detection domain.ThreatDetection)
	OnFileQuarantined(ctx context.Context, item domain.QuarantineItem)
	OnSecurityEvent(ctx context.Context, event domain.SecurityEvent)
}

// Notifier fans core output out to the audit journal and observers.
type Notifier interface {
	EventSink
	NotifyThreatDetected(ctx context.Context, detection domain.ThreatDetection)
	NotifyFileQuarantined(ctx context.Context, item domain.QuarantineItem)
}

// SecurityService is the façade consumed by the outer adapters (HTTP API, CLI).
type SecurityService interface {
	StartMonitoring(ctx context.Context) error
	StopMonitoring(ctx context.Context) error
	MonitorStatus() domain.MonitorStatus

	ScanFile(ctx context.Context, path string) (*domain.ThreatDetection, error)
	ScanDirectory(ctx context.Context, root string, onProgress func(domain.ScanProgress)) domain.ScanResult

	QuarantineFile(ctx context.Context, path string) (domain.QuarantineItem, error)
	RestoreFromQuarantine(ctx context.Context, id int64) error
	DeleteFromQuarantine(ctx context.Context, id int64) error
	ListQuarantine() []domain.QuarantineItem

	AddRule(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error)
	AddRuleText(ctx context.Context, text string) (domain.SecurityRule, error)
	UpdateRule(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error)
	DeleteRule(ctx context.Context, sid int) error
	ToggleRule(ctx context.Context, sid int, enabled bool) error
	GetAllRules() []domain.SecurityRule
	GetRuleBySid(sid int) (domain.SecurityRule, error)

	GetSignatureCount(ctx context.Context) (int, error)
	GetLastUpdate(ctx context.Context) (time.Time, error)
	UpdateSignatureDatabase(ctx context.Context) (bool, error)

	AddObserver(observer SecurityObserver)
	RecentEvents(ctx context.Context, limit int) ([]domain.SecurityEvent, error)
}
