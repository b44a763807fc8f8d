package sigdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const lastUpdateKey = "last_signature_update"

// SQLiteRepository implements ports.SignatureRepository using SQLite.
type SQLiteRepository struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteRepository creates a new SQLite-based signature repository.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "enable WAL", Err: err}
	}

	// Initialize schema
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "initialize schema", Err: err}
	}

	return &SQLiteRepository{db: db}, nil
}

// FindByHash returns the signature whose md5, sha1 or sha256 equals hash.
func (r *SQLiteRepository) FindByHash(ctx context.Context, hash string) (*domain.MalwareSignature, error) {
	if r.closed.Load() {
		return nil, ErrRepositoryClosed
	}
	h := domain.NormalizeHash(hash)
	if h == "" {
		return nil, nil
	}

	query := `
		SELECT id, md5, sha1, sha256, family, severity, description, created_at, updated_at
		FROM signatures
		WHERE md5 = ? OR sha1 = ? OR sha256 = ?
		ORDER BY id
		LIMIT 1
	`

	sig, err := scanSignature(r.db.QueryRowContext(ctx, query, h, h, h))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &DatabaseError{Op: "lookup", Err: err}
	}
	return &sig, nil
}

const upsertSQL = `
	INSERT INTO signatures (md5, sha1, sha256, family, severity, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(md5, sha1, sha256) DO UPDATE SET
		family = excluded.family,
		severity = excluded.severity,
		description = excluded.description,
		updated_at = excluded.updated_at
`

// UpsertSignature inserts or updates a signature keyed by its hash triple.
func (r *SQLiteRepository) UpsertSignature(ctx context.Context, sig domain.MalwareSignature) error {
	if r.closed.Load() {
		return ErrRepositoryClosed
	}
	sig.Normalize()
	if !sig.HasHash() {
		return domain.ErrSignatureNoHash
	}

	if _, err := r.db.ExecContext(ctx, upsertSQL, upsertArgs(sig)...); err != nil {
		return &DatabaseError{Op: "upsert", Err: err}
	}
	return nil
}

// UpsertSignatures writes a batch in one transaction. Entries without a hash are skipped.
func (r *SQLiteRepository) UpsertSignatures(ctx context.Context, sigs []domain.MalwareSignature) (int, error) {
	if r.closed.Load() {
		return 0, ErrRepositoryClosed
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &DatabaseError{Op: "begin batch", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return 0, &DatabaseError{Op: "prepare batch", Err: err}
	}
	defer stmt.Close()

	written := 0
	for _, sig := range sigs {
		sig.Normalize()
		if !sig.HasHash() {
			continue
		}
		if _, err := stmt.ExecContext(ctx, upsertArgs(sig)...); err != nil {
			return 0, &DatabaseError{Op: "batch upsert", Err: err}
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, &DatabaseError{Op: "commit batch", Err: err}
	}
	return written, nil
}

// Count returns the total number of signatures.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	if r.closed.Load() {
		return 0, ErrRepositoryClosed
	}
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM signatures").Scan(&count); err != nil {
		return 0, &DatabaseError{Op: "count", Err: err}
	}
	return count, nil
}

// GetLastUpdate returns the time of the last feed update, or zero if none.
func (r *SQLiteRepository) GetLastUpdate(ctx context.Context) (time.Time, error) {
	if r.closed.Load() {
		return time.Time{}, ErrRepositoryClosed
	}
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", lastUpdateKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &DatabaseError{Op: "read metadata", Err: err}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, &DatabaseError{Op: "parse metadata", Err: err}
	}
	return t, nil
}

// SetLastUpdate stores the time of the last feed update.
func (r *SQLiteRepository) SetLastUpdate(ctx context.Context, t time.Time) error {
	if r.closed.Load() {
		return ErrRepositoryClosed
	}
	query := `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.ExecContext(ctx, query, lastUpdateKey, t.UTC().Format(time.RFC3339Nano)); err != nil {
		return &DatabaseError{Op: "write metadata", Err: err}
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}

func upsertArgs(sig domain.MalwareSignature) []interface{} {
	now := time.Now().UTC()
	created := sig.CreatedAt
	if created.IsZero() {
		created = now
	}
	return []interface{}{
		sig.MD5, sig.SHA1, sig.SHA256, sig.Family, string(sig.Severity), sig.Description,
		created.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	}
}

// Helper: Scan single signature from row
func scanSignature(row *sql.Row) (domain.MalwareSignature, error) {
	var sig domain.MalwareSignature
	var severity, createdAt, updatedAt string

	err := row.Scan(
		&sig.ID, &sig.MD5, &sig.SHA1, &sig.SHA256, &sig.Family, &severity,
		&sig.Description, &createdAt, &updatedAt,
	)
	if err != nil {
		return sig, err
	}

	sig.Severity = domain.ParseSeverity(severity)
	sig.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sig.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return sig, nil
}

var _ ports.SignatureRepository = (*SQLiteRepository)(nil)
