package sigdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure cases
var (
	// ErrRepositoryClosed indicates the repository has been closed
	ErrRepositoryClosed = errors.New("signature repository is closed")

	// ErrEmptySeed indicates a seed file contained no signatures
	ErrEmptySeed = errors.New("seed file contains no signatures")
)

// DatabaseError wraps database-specific errors with context
type DatabaseError struct {
	Op  string // Operation that failed (e.g., "lookup", "upsert")
	Err error  // Underlying error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("signature database %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
