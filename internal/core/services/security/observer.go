package security

import (
	"context"
	"sync"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// Subject records events in the journal and fans notifications out to observers.
type Subject struct {
	journal   ports.EventSink
	observers []ports.SecurityObserver
	mu        sync.RWMutex
}

// NewSubject creates a subject writing to journal. journal may be nil.
func NewSubject(journal ports.EventSink) *Subject {
	return &Subject{
		journal:   journal,
		observers: make([]ports.SecurityObserver, 0),
	}
}

// AddObserver registers a new observer.
func (s *Subject) AddObserver(observer ports.SecurityObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Record journals the event and notifies observers.
func (s *Subject) Record(ctx context.Context, event domain.SecurityEvent) {
	if s.journal != nil {
		s.journal.Record(ctx, event)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obs := range s.observers {
		go obs.OnSecurityEvent(ctx, event)
	}
}

// NotifyThreatDetected notifies all observers of a detection.
func (s *Subject) NotifyThreatDetected(ctx context.Context, detection domain.ThreatDetection) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obs := range s.observers {
		go obs.OnThreatDetected(ctx, detection)
	}
}

// NotifyFileQuarantined notifies all observers of a quarantined file.
func (s *Subject) NotifyFileQuarantined(ctx context.Context, item domain.QuarantineItem) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obs := range s.observers {
		go obs.OnFileQuarantined(ctx, item)
	}
}

var _ ports.Notifier = (*Subject)(nil)
