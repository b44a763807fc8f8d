package domain

import "time"

// QuarantineItem is the immutable record of an isolated file.
type QuarantineItem struct {
	ID             int64     `json:"id"`
	OriginalPath   string    `json:"original_path"`
	QuarantinePath string    `json:"quarantine_path"`
	ThreatName     string    `json:"threat_name"`
	ThreatType     string    `json:"threat_type"`
	FileHash       string    `json:"file_hash"`
	FileSize       int64     `json:"file_size"`
	FileMode       uint32    `json:"file_mode,omitempty"` // permission bits of the original
	RuleTriggered  int       `json:"rule_triggered,omitempty"`
	QuarantineDate time.Time `json:"quarantine_date"`
	CanRestore     bool      `json:"can_restore"`
}
