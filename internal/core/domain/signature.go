package domain

import (
	"strings"
	"time"
)

// Severity represents the criticality of a signature, detection or event.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// ParseSeverity maps a case-insensitive name to a Severity, defaulting to Medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// IsValid reports whether the severity is one of the known levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities, Low=1 .. Critical=4. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// MalwareSignature is a known-malware hash record.
type MalwareSignature struct {
	ID          int64     `json:"id"`
	MD5         string    `json:"md5,omitempty"`
	SHA1        string    `json:"sha1,omitempty"`
	SHA256      string    `json:"sha256,omitempty"`
	Family      string    `json:"family"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeHash lowercases and trims a hex digest.
func NormalizeHash(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Normalize lowercases all hash fields in place.
func (s *MalwareSignature) Normalize() {
	s.MD5 = NormalizeHash(s.MD5)
	s.SHA1 = NormalizeHash(s.SHA1)
	s.SHA256 = NormalizeHash(s.SHA256)
	if !s.Severity.IsValid() {
		s.Severity = ParseSeverity(string(s.Severity))
	}
}

// HasHash reports whether any hash field is populated.
func (s *MalwareSignature) HasHash() bool {
	return s.MD5 != "" || s.SHA1 != "" || s.SHA256 != ""
}

// Matches reports whether hash equals any populated hash field, ignoring case.
func (s *MalwareSignature) Matches(hash string) bool {
	h := NormalizeHash(hash)
	if h == "" {
		return false
	}
	return h == NormalizeHash(s.MD5) || h == NormalizeHash(s.SHA1) || h == NormalizeHash(s.SHA256)
}

// PrimaryHash returns the strongest populated hash.
func (s *MalwareSignature) PrimaryHash() string {
	switch {
	case s.SHA256 != "":
		return s.SHA256
	case s.SHA1 != "":
		return s.SHA1
	default:
		return s.MD5
	}
}

// FileHashes holds the digests of a single file computed in one pass.
type FileHashes struct {
	MD5    string `json:"md5"`
	SHA1   string `json:"sha1"`
	SHA256 string `json:"sha256"`
}

// Candidates returns the populated digests, strongest first.
func (h FileHashes) Candidates() []string {
	var out []string
	for _, v := range []string{h.SHA256, h.SHA1, h.MD5} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
