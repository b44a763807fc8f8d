package domain

import (
	"strings"
	"time"
)

// RuleCategory is the class of system object a rule applies to.
type RuleCategory string

const (
	CategoryFile     RuleCategory = "File"
	CategoryProcess  RuleCategory = "Process"
	CategoryRegistry RuleCategory = "Registry"
	CategoryNetwork  RuleCategory = "Network"
)

// RuleAction is the response taken when a rule triggers.
type RuleAction string

const (
	ActionAlert      RuleAction = "Alert"
	ActionLog        RuleAction = "Log"
	ActionQuarantine RuleAction = "Quarantine"
	ActionDelete     RuleAction = "Delete"
	ActionBlock      RuleAction = "Block"
)

// ParseRuleCategory maps a protocol token to a category. Unknown tokens map to File.
func ParseRuleCategory(s string) RuleCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "process":
		return CategoryProcess
	case "registry":
		return CategoryRegistry
	case "network":
		return CategoryNetwork
	default:
		return CategoryFile
	}
}

// ParseRuleAction maps an action keyword to the enum. Unknown keywords map to Alert.
func ParseRuleAction(s string) RuleAction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "log":
		return ActionLog
	case "quarantine":
		return ActionQuarantine
	case "delete":
		return ActionDelete
	case "block":
		return ActionBlock
	default:
		return ActionAlert
	}
}

// IsValid reports whether the category is one of the known values.
func (c RuleCategory) IsValid() bool {
	switch c {
	case CategoryFile, CategoryProcess, CategoryRegistry, CategoryNetwork:
		return true
	}
	return false
}

// IsValid reports whether the action is one of the known values.
func (a RuleAction) IsValid() bool {
	switch a {
	case ActionAlert, ActionLog, ActionQuarantine, ActionDelete, ActionBlock:
		return true
	}
	return false
}

// MutatesFile reports whether executing the action removes the file from its location.
func (a RuleAction) MutatesFile() bool {
	return a == ActionQuarantine || a == ActionDelete
}

// SecurityRule is a declarative condition/action pair evaluated against files.
type SecurityRule struct {
	Sid            int          `json:"sid"`
	Revision       int          `json:"revision"`
	Category       RuleCategory `json:"category"`
	Action         RuleAction   `json:"action"`
	Message        string       `json:"message"`
	ContentPattern string       `json:"content,omitempty"`
	HashSpec       string       `json:"hash,omitempty"`     // algorithm:hexhash
	BehaviorTags   string       `json:"behavior,omitempty"` // comma separated
	Enabled        bool         `json:"enabled"`
	Text           string       `json:"text,omitempty"`
	Created        time.Time    `json:"created"`
	LastTriggered  *time.Time   `json:"last_triggered,omitempty"`
	TriggerCount   int64        `json:"trigger_count"`
}

// Validate performs internal consistency checks on the rule.
func (r *SecurityRule) Validate() error {
	if r.Sid <= 0 {
		return ErrInvalidSid
	}
	if !r.Category.IsValid() {
		return ErrInvalidCategory
	}
	if !r.Action.IsValid() {
		return ErrInvalidRuleAction
	}
	return nil
}

// HasCriteria reports whether at least one matching criterion is populated.
func (r *SecurityRule) HasCriteria() bool {
	return r.ContentPattern != "" || r.HashSpec != "" || r.BehaviorTags != ""
}

// Tags splits BehaviorTags into trimmed, non-empty tokens.
func (r *SecurityRule) Tags() []string {
	if r.BehaviorTags == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(r.BehaviorTags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// HashAlgorithm returns the algorithm and lowercase digest of the hash spec.
// ok is false when the spec is absent or malformed.
func (r *SecurityRule) HashAlgorithm() (algorithm, digest string, ok bool) {
	algo, hex, found := strings.Cut(r.HashSpec, ":")
	if !found {
		return "", "", false
	}
	algo = strings.ToLower(strings.TrimSpace(algo))
	hex = strings.ToLower(strings.TrimSpace(hex))
	if algo == "" || hex == "" {
		return "", "", false
	}
	return algo, hex, true
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (r SecurityRule) Clone() SecurityRule {
	if r.LastTriggered != nil {
		t := *r.LastTriggered
		r.LastTriggered = &t
	}
	return r
}

// Severity derives a detection severity from the rule's action.
func (r *SecurityRule) Severity() Severity {
	switch r.Action {
	case ActionQuarantine, ActionDelete, ActionBlock:
		return SeverityHigh
	case ActionAlert:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RuleTriggerStat is the trigger bookkeeping of one rule at a point in time.
type RuleTriggerStat struct {
	Sid           int
	TriggerCount  int64
	LastTriggered time.Time
}
