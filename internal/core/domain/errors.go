package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the core services. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateSid = errors.New("rule sid already exists")
	ErrAccess       = errors.New("access denied")
	ErrStorage      = errors.New("storage failure")
	ErrCancelled    = errors.New("operation cancelled")
	ErrMonitorBusy  = errors.New("monitor is changing state")

	ErrInvalidRule       = errors.New("invalid rule")
	ErrInvalidSid        = fmt.Errorf("%w: sid must be a positive integer", ErrInvalidRule)
	ErrInvalidCategory   = fmt.Errorf("%w: unknown category", ErrInvalidRule)
	ErrInvalidRuleAction = fmt.Errorf("%w: unknown action", ErrInvalidRule)
	ErrSignatureNoHash   = errors.New("signature has no hash")
)

// ParseError describes why a rule text could not be parsed.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rule parse failed: %s", e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidRule) match parse failures.
func (e *ParseError) Unwrap() error {
	return ErrInvalidRule
}
