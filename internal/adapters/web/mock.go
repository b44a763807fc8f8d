package web

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockSecurityService is a mock of ports.SecurityService
type MockSecurityService struct {
	mock.Mock
}

func (m *MockSecurityService) StartMonitoring(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSecurityService) StopMonitoring(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSecurityService) MonitorStatus() domain.MonitorStatus {
	args := m.Called()
	return args.Get(0).(domain.MonitorStatus)
}

func (m *MockSecurityService) ScanFile(ctx context.Context, path string) (*domain.ThreatDetection, error) {
	args := m.Called(ctx, path)
	d, _ := args.Get(0).(*domain.ThreatDetection)
	return d, args.Error(1)
}

func (m *MockSecurityService) ScanDirectory(ctx context.Context, root string, onProgress func(domain.ScanProgress)) domain.ScanResult {
	args := m.Called(ctx, root, onProgress)
	return args.Get(0).(domain.ScanResult)
}

func (m *MockSecurityService) QuarantineFile(ctx context.Context, path string) (domain.QuarantineItem, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(domain.QuarantineItem), args.Error(1)
}

func (m *MockSecurityService) RestoreFromQuarantine(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSecurityService) DeleteFromQuarantine(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSecurityService) ListQuarantine() []domain.QuarantineItem {
	args := m.Called()
	return args.Get(0).([]domain.QuarantineItem)
}

func (m *MockSecurityService) AddRule(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error) {
	args := m.Called(ctx, rule)
	return args.Get(0).(domain.SecurityRule), args.Error(1)
}

func (m *MockSecurityService) AddRuleText(ctx context.Context, text string) (domain.SecurityRule, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(domain.SecurityRule), args.Error(1)
}

func (m *MockSecurityService) UpdateRule(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error) {
	args := m.Called(ctx, rule)
	return args.Get(0).(domain.SecurityRule), args.Error(1)
}

func (m *MockSecurityService) DeleteRule(ctx context.Context, sid int) error {
	args := m.Called(ctx, sid)
	return args.Error(0)
}

func (m *MockSecurityService) ToggleRule(ctx context.Context, sid int, enabled bool) error {
	args := m.Called(ctx, sid, enabled)
	return args.Error(0)
}

func (m *MockSecurityService) GetAllRules() []domain.SecurityRule {
	args := m.Called()
	return args.Get(0).([]domain.SecurityRule)
}

func (m *MockSecurityService) GetRuleBySid(sid int) (domain.SecurityRule, error) {
	args := m.Called(sid)
	return args.Get(0).(domain.SecurityRule), args.Error(1)
}

func (m *MockSecurityService) GetSignatureCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSecurityService) GetLastUpdate(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockSecurityService) UpdateSignatureDatabase(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecurityService) AddObserver(observer ports.SecurityObserver) {
	m.Called(observer)
}

func (m *MockSecurityService) RecentEvents(ctx context.Context, limit int) ([]domain.SecurityEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]domain.SecurityEvent)
	return events, args.Error(1)
}

var _ ports.SecurityService = (*MockSecurityService)(nil)
