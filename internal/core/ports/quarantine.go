package ports

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// QuarantineService isolates files and reverses isolation.
type QuarantineService interface {
	Quarantine(ctx context.Context, path string, detection domain.ThreatDetection) (domain.QuarantineItem, error)
	Restore(ctx context.Context, id int64) error
	PermanentlyDelete(ctx context.Context, id int64) error
	List() []domain.QuarantineItem
}
