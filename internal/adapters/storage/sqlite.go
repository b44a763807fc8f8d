package storage

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter persists rules, the quarantine log and security events using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// RuleModel is the GORM model for security rules.
type RuleModel struct {
	Sid            int `gorm:"primaryKey;autoIncrement:false"`
	Revision       int
	Category       string `gorm:"index"`
	Action         string
	Message        string
	ContentPattern string
	HashSpec       string
	BehaviorTags   string
	Enabled        bool
	Text           string
	Created        time.Time
	LastTriggered  *time.Time
	TriggerCount   int64
}

// QuarantineModel is the GORM model for the quarantine log.
type QuarantineModel struct {
	ID             int64 `gorm:"primaryKey;autoIncrement:false"`
	OriginalPath   string
	QuarantinePath string `gorm:"uniqueIndex"`
	ThreatName     string
	ThreatType     string
	FileHash       string
	FileSize       int64
	FileMode       uint32
	RuleTriggered  int
	QuarantineDate time.Time
	CanRestore     bool
}

// SecurityEventModel is the GORM model for audit events.
type SecurityEventModel struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	Type      string    `gorm:"index"`
	Message   string
	Detail    string
	FilePath  string
	Severity  string
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return newAdapter(db)
}

func newAdapter(db *gorm.DB) (*SQLiteAdapter, error) {
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	// Auto Migrate
	if err := db.AutoMigrate(&RuleModel{}, &QuarantineModel{}, &SecurityEventModel{}); err != nil {
		return nil, err
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_events_severity ON security_event_models(severity)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_quarantine_date ON quarantine_models(quarantine_date)")

	return &SQLiteAdapter{db: db}, nil
}

func (a *SQLiteAdapter) ctxDB(ctx context.Context) *gorm.DB {
	return a.db.WithContext(ctx)
}

// Close releases the underlying connection pool.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var (
	_ ports.RuleRepository       = (*SQLiteAdapter)(nil)
	_ ports.QuarantineRepository = (*SQLiteAdapter)(nil)
	_ ports.EventRepository      = (*SQLiteAdapter)(nil)
)
