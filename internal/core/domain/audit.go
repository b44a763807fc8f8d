package domain

import (
	"errors"
	"time"
)

// EventType represents a type-safe identifier for security audit records.
type EventType string

const (
	EventThreatDetected  EventType = "ThreatDetected"
	EventFileQuarantined EventType = "FileQuarantined"
	EventRuleTriggered   EventType = "RuleTriggered"
	EventScanCompleted   EventType = "ScanCompleted"
	EventDatabaseUpdated EventType = "DatabaseUpdated"
	EventSystemError     EventType = "SystemError"
	EventMonitorStarted  EventType = "MonitorStarted"
	EventMonitorStopped  EventType = "MonitorStopped"
)

var (
	ErrInvalidEventType = errors.New("invalid security event type")
	ErrEmptyMessage     = errors.New("security event message is required")
)

// SecurityEvent is an append-only audit record produced by state-changing operations.
type SecurityEvent struct {
	ID        uint      `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	Severity  Severity  `json:"severity"`
}

// NewSecurityEvent is the designated factory for creating valid SecurityEvent entities.
func NewSecurityEvent(eventType EventType, severity Severity, message, detail, path string) (*SecurityEvent, error) {
	if !isValidEventType(eventType) {
		return nil, ErrInvalidEventType
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if !severity.IsValid() {
		severity = SeverityLow
	}

	return &SecurityEvent{
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Message:   message,
		Detail:    detail,
		FilePath:  path,
		Severity:  severity,
	}, nil
}

func isValidEventType(t EventType) bool {
	switch t {
	case EventThreatDetected, EventFileQuarantined, EventRuleTriggered, EventScanCompleted,
		EventDatabaseUpdated, EventSystemError, EventMonitorStarted, EventMonitorStopped:
		return true
	}
	return false
}

/*
ARCHITECTURAL NOTE:
Monitor lifecycle notices are recorded as MonitorStarted/MonitorStopped,
never as SystemError. SystemError is reserved for failures.
*/
