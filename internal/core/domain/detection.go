package domain

import (
	"time"

	"github.com/google/uuid"
)

// ThreatCategory classifies a detection.
type ThreatCategory string

const (
	ThreatMalware             ThreatCategory = "Malware"
	ThreatSuspicious          ThreatCategory = "Suspicious"
	ThreatPotentiallyUnwanted ThreatCategory = "PotentiallyUnwanted"
)

// ActionResult records what actually happened to the file after a detection.
type ActionResult string

const (
	ResultNone        ActionResult = "None"
	ResultObserved    ActionResult = "Observed"
	ResultQuarantined ActionResult = "Quarantined"
	ResultDeleted     ActionResult = "Deleted"
	ResultFailed      ActionResult = "Failed"
	ResultSkipped     ActionResult = "Skipped"
)

// ThreatDetection is the ephemeral result of evaluating one file.
// At most one of Rule and Signature is set.
type ThreatDetection struct {
	ID          string            `json:"id"`
	FilePath    string            `json:"file_path"`
	ThreatName  string            `json:"threat_name"`
	Category    ThreatCategory    `json:"category"`
	Severity    Severity          `json:"severity"`
	Rule        *SecurityRule     `json:"rule,omitempty"`
	Signature   *MalwareSignature `json:"signature,omitempty"`
	FileHash    string            `json:"file_hash,omitempty"`
	Action      RuleAction        `json:"action"`
	ActionTaken ActionResult      `json:"action_taken"`
	DetectedAt  time.Time         `json:"detected_at"`
}

// NewRuleDetection builds a detection for a triggered rule.
func NewRuleDetection(path string, rule SecurityRule, fileHash string) ThreatDetection {
	r := rule.Clone()
	return ThreatDetection{
		ID:          uuid.New().String(),
		FilePath:    path,
		ThreatName:  rule.Message,
		Category:    ThreatSuspicious,
		Severity:    rule.Severity(),
		Rule:        &r,
		FileHash:    fileHash,
		Action:      rule.Action,
		ActionTaken: ResultNone,
		DetectedAt:  time.Now().UTC(),
	}
}

// NewSignatureDetection builds a detection for a known-malware hash match.
func NewSignatureDetection(path string, sig MalwareSignature, fileHash string, action RuleAction) ThreatDetection {
	s := sig
	return ThreatDetection{
		ID:          uuid.New().String(),
		FilePath:    path,
		ThreatName:  sig.Family,
		Category:    ThreatMalware,
		Severity:    sig.Severity,
		Signature:   &s,
		FileHash:    fileHash,
		Action:      action,
		ActionTaken: ResultNone,
		DetectedAt:  time.Now().UTC(),
	}
}

// RuleSid returns the sid of the matched rule, or 0 for signature detections.
func (d *ThreatDetection) RuleSid() int {
	if d.Rule == nil {
		return 0
	}
	return d.Rule.Sid
}

// Source names what produced the detection: "rule" or "signature".
func (d *ThreatDetection) Source() string {
	if d.Signature != nil {
		return "signature"
	}
	return "rule"
}
