package quarantine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"github.com/lcalzada-xor/fsguard/internal/core/services/audit"
	"github.com/lcalzada-xor/fsguard/internal/telemetry"
)

const blobSuffix = ".qtn"

// FileOps is the file collaborator the manager needs.
type FileOps interface {
	ports.FileRemover
	ports.FileTransfer
}

// RestorePolicy decides whether an item created for a detection may be restored.
type RestorePolicy func(detection domain.ThreatDetection) bool

// DefaultRestorePolicy forbids restoring critical-severity threats.
func DefaultRestorePolicy(d domain.ThreatDetection) bool {
	return d.Severity != domain.SeverityCritical
}

// Manager isolates files in a private directory and reverses isolation.
type Manager struct {
	dir    string
	files  FileOps
	repo   ports.QuarantineRepository
	events ports.EventSink
	policy RestorePolicy
	now    func() time.Time

	items  map[int64]domain.QuarantineItem
	nextID int64
	mu     sync.Mutex
}

// NewManager creates a manager storing blobs under dir. repo and events may be nil.
func NewManager(dir string, files FileOps, repo ports.QuarantineRepository, events ports.EventSink) *Manager {
	return &Manager{
		dir:    dir,
		files:  files,
		repo:   repo,
		events: events,
		policy: DefaultRestorePolicy,
		now:    time.Now,
		items:  make(map[int64]domain.QuarantineItem),
	}
}

// SetRestorePolicy replaces the restorability policy.
func (m *Manager) SetRestorePolicy(p RestorePolicy) {
	if p != nil {
		m.policy = p
	}
}

// Dir returns the isolation directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Load restores the active list from the repository.
func (m *Manager) Load(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	stored, err := m.repo.ListQuarantineItems(ctx)
	if err != nil {
		return fmt.Errorf("%w: load quarantine log: %v", domain.ErrStorage, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(stored))
	for _, item := range stored {
		if seen[item.QuarantinePath] {
			slog.Warn("Duplicate quarantine entry ignored", "id", item.ID, "blob", item.QuarantinePath)
			continue
		}
		seen[item.QuarantinePath] = true
		m.items[item.ID] = item
		if item.ID > m.nextID {
			m.nextID = item.ID
		}
	}
	slog.Info("Quarantine log loaded", "items", len(m.items))
	return nil
}

// Quarantine copies the file into isolation and removes the original. The
// item is recorded only after both steps succeed.
func (m *Manager) Quarantine(ctx context.Context, path string, detection domain.ThreatDetection) (item domain.QuarantineItem, err error) {
	defer func() { telemetry.QuarantineOps.WithLabelValues("quarantine", telemetry.Result(err)).Inc() }()

	// symlinks are refused: the link, not its target, would be removed
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.QuarantineItem{}, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return domain.QuarantineItem{}, fmt.Errorf("%w: %v", domain.ErrAccess, err)
	}
	if !info.Mode().IsRegular() {
		return domain.QuarantineItem{}, fmt.Errorf("%w: %s is not a regular file", domain.ErrAccess, path)
	}

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return domain.QuarantineItem{}, fmt.Errorf("%w: create quarantine dir: %v", domain.ErrAccess, err)
	}

	blob := filepath.Join(m.dir, uuid.New().String()+blobSuffix)
	size, sum, err := m.files.CopyFile(path, blob)
	if err != nil {
		return domain.QuarantineItem{}, fmt.Errorf("isolate %s: %w", path, err)
	}

	if err := m.files.SafeDelete(path); err != nil {
		if rmErr := os.Remove(blob); rmErr != nil {
			slog.Warn("Orphaned quarantine blob", "blob", blob, "error", rmErr)
		}
		if errors.Is(err, domain.ErrAccess) {
			return domain.QuarantineItem{}, err
		}
		return domain.QuarantineItem{}, fmt.Errorf("%w: remove original: %v", domain.ErrAccess, err)
	}

	abs, _ := filepath.Abs(path)
	hash := detection.FileHash
	if hash == "" {
		hash = sum
	}
	threatName := detection.ThreatName
	if threatName == "" {
		threatName = "Unknown"
	}

	m.mu.Lock()
	m.nextID++
	item = domain.QuarantineItem{
		ID:             m.nextID,
		OriginalPath:   abs,
		QuarantinePath: blob,
		ThreatName:     threatName,
		ThreatType:     string(detection.Category),
		FileHash:       hash,
		FileSize:       size,
		FileMode:       uint32(info.Mode().Perm()),
		RuleTriggered:  detection.RuleSid(),
		QuarantineDate: m.now().UTC(),
		CanRestore:     m.policy(detection),
	}
	m.items[item.ID] = item
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.SaveQuarantineItem(ctx, item); err != nil {
			slog.Warn("Quarantine entry not persisted", "id", item.ID, "error", err)
		}
	}

	audit.Emit(ctx, m.events, domain.EventFileQuarantined, detection.Severity,
		fmt.Sprintf("File quarantined: %s", threatName),
		fmt.Sprintf("id=%d blob=%s size=%d", item.ID, filepath.Base(blob), size), abs)

	return item, nil
}

// Restore moves the blob back to its original path and drops the record.
func (m *Manager) Restore(ctx context.Context, id int64) (err error) {
	defer func() { telemetry.QuarantineOps.WithLabelValues("restore", telemetry.Result(err)).Inc() }()

	item, err := m.get(id)
	if err != nil {
		return err
	}
	if !item.CanRestore {
		return fmt.Errorf("%w: quarantine item %d cannot be restored", domain.ErrAccess, id)
	}
	if _, err := os.Stat(item.QuarantinePath); err != nil {
		return fmt.Errorf("%w: quarantined file for item %d is missing", domain.ErrAccess, id)
	}

	if err := os.MkdirAll(filepath.Dir(item.OriginalPath), 0o755); err != nil {
		return fmt.Errorf("%w: recreate %s: %v", domain.ErrAccess, filepath.Dir(item.OriginalPath), err)
	}
	if err := m.files.MoveFile(item.QuarantinePath, item.OriginalPath); err != nil {
		if errors.Is(err, domain.ErrAccess) {
			return err
		}
		return fmt.Errorf("%w: restore item %d: %v", domain.ErrAccess, id, err)
	}
	if item.FileMode != 0 {
		if err := os.Chmod(item.OriginalPath, os.FileMode(item.FileMode)); err != nil {
			slog.Warn("Restored file keeps vault permissions", "path", item.OriginalPath, "error", err)
		}
	}

	m.remove(ctx, id)
	audit.Emit(ctx, m.events, domain.EventFileQuarantined, domain.SeverityLow,
		fmt.Sprintf("File restored from quarantine: %s", item.ThreatName),
		fmt.Sprintf("id=%d", id), item.OriginalPath)
	return nil
}

// PermanentlyDelete securely erases the blob and drops the record,
// regardless of restorability.
func (m *Manager) PermanentlyDelete(ctx context.Context, id int64) (err error) {
	defer func() { telemetry.QuarantineOps.WithLabelValues("delete", telemetry.Result(err)).Inc() }()

	item, err := m.get(id)
	if err != nil {
		return err
	}

	if err := m.files.SecureErase(item.QuarantinePath); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("erase item %d: %w", id, err)
	}

	m.remove(ctx, id)
	audit.Emit(ctx, m.events, domain.EventFileQuarantined, domain.SeverityLow,
		fmt.Sprintf("Quarantined file permanently deleted: %s", item.ThreatName),
		fmt.Sprintf("id=%d", id), item.OriginalPath)
	return nil
}

// List returns a snapshot of active items ordered by id.
func (m *Manager) List() []domain.QuarantineItem {
	m.mu.Lock()
	out := make([]domain.QuarantineItem, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) get(id int64) (domain.QuarantineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return domain.QuarantineItem{}, fmt.Errorf("%w: quarantine item %d", domain.ErrNotFound, id)
	}
	return item, nil
}

func (m *Manager) remove(ctx context.Context, id int64) {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()

	if m.repo == nil {
		return
	}
	if err := m.repo.DeleteQuarantineItem(ctx, id); err != nil {
		slog.Warn("Quarantine removal not persisted", "id", id, "error", err)
	}
}

var _ ports.QuarantineService = (*Manager)(nil)
