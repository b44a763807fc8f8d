package storage

import (
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

func ruleToModel(r domain.SecurityRule) RuleModel {
	return RuleModel{
		Sid:            r.Sid,
		Revision:       r.Revision,
		Category:       string(r.Category),
		Action:         string(r.Action),
		Message:        r.Message,
		ContentPattern: r.ContentPattern,
		HashSpec:       r.HashSpec,
		BehaviorTags:   r.BehaviorTags,
		Enabled:        r.Enabled,
		Text:           r.Text,
		Created:        r.Created,
		LastTriggered:  r.LastTriggered,
		TriggerCount:   r.TriggerCount,
	}
}

func ruleToDomain(m RuleModel) domain.SecurityRule {
	return domain.SecurityRule{
		Sid:            m.Sid,
		Revision:       m.Revision,
		Category:       domain.RuleCategory(m.Category),
		Action:         domain.RuleAction(m.Action),
		Message:        m.Message,
		ContentPattern: m.ContentPattern,
		HashSpec:       m.HashSpec,
		BehaviorTags:   m.BehaviorTags,
		Enabled:        m.Enabled,
		Text:           m.Text,
		Created:        m.Created,
		LastTriggered:  m.LastTriggered,
		TriggerCount:   m.TriggerCount,
	}
}

func quarantineToModel(q domain.QuarantineItem) QuarantineModel {
	return QuarantineModel{
		ID:             q.ID,
		OriginalPath:   q.OriginalPath,
		QuarantinePath: q.QuarantinePath,
		ThreatName:     q.ThreatName,
		ThreatType:     q.ThreatType,
		FileHash:       q.FileHash,
		FileSize:       q.FileSize,
		FileMode:       q.FileMode,
		RuleTriggered:  q.RuleTriggered,
		QuarantineDate: q.QuarantineDate,
		CanRestore:     q.CanRestore,
	}
}

func quarantineToDomain(m QuarantineModel) domain.QuarantineItem {
	return domain.QuarantineItem{
		ID:             m.ID,
		OriginalPath:   m.OriginalPath,
		QuarantinePath: m.QuarantinePath,
		ThreatName:     m.ThreatName,
		ThreatType:     m.ThreatType,
		FileHash:       m.FileHash,
		FileSize:       m.FileSize,
		FileMode:       m.FileMode,
		RuleTriggered:  m.RuleTriggered,
		QuarantineDate: m.QuarantineDate,
		CanRestore:     m.CanRestore,
	}
}

func eventToModel(e domain.SecurityEvent) SecurityEventModel {
	return SecurityEventModel{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Type:      string(e.Type),
		Message:   e.Message,
		Detail:    e.Detail,
		FilePath:  e.FilePath,
		Severity:  string(e.Severity),
	}
}

func eventToDomain(m SecurityEventModel) domain.SecurityEvent {
	return domain.SecurityEvent{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Type:      domain.EventType(m.Type),
		Message:   m.Message,
		Detail:    m.Detail,
		FilePath:  m.FilePath,
		Severity:  domain.Severity(m.Severity),
	}
}
