package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"github.com/lcalzada-xor/fsguard/internal/core/services/audit"
	"github.com/lcalzada-xor/fsguard/internal/telemetry"
)

// Deps are the collaborators of the monitor. Probe and Remover may be nil.
type Deps struct {
	Rules      ports.RuleLoader
	Evaluator  ports.RuleEvaluator
	Signatures ports.SignatureChecker
	Hasher     ports.FileHasher
	Probe      ports.FileProbe
	Remover    ports.FileRemover
	Quarantine ports.QuarantineService
	Notifier   ports.Notifier
	Watchers   ports.WatcherFactory
}

// actionFunc executes a detection's response and reports what happened.
type actionFunc func(ctx context.Context, d *domain.ThreatDetection) domain.ActionResult

// Monitor watches directories, queues filtered change events and evaluates
// them on a single consumer goroutine.
type Monitor struct {
	cfg     Config
	deps    Deps
	filter  *eventFilter
	actions map[domain.RuleAction]actionFunc

	mu        sync.Mutex
	state     domain.MonitorState
	watcher   ports.Watcher
	watched   []string
	queue     chan domain.FileEvent
	cancel    context.CancelFunc
	done      chan struct{}
	draining  chan struct{} // consumer of a timed-out stop, still running
	startedAt *time.Time

	processed  atomic.Int64
	detections atomic.Int64
}

// New creates a stopped monitor.
func New(cfg Config, deps Deps) *Monitor {
	cfg = cfg.normalized()
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	m := &Monitor{
		cfg:    cfg,
		deps:   deps,
		filter: newEventFilter(cfg),
		state:  domain.MonitorStopped,
	}
	m.actions = map[domain.RuleAction]actionFunc{
		domain.ActionQuarantine: m.quarantineAction,
		domain.ActionDelete:     m.deleteAction,
		domain.ActionBlock:      observeAction,
		domain.ActionAlert:      observeAction,
		domain.ActionLog:        observeAction,
	}
	return m
}

// Start loads rules, registers watchers and launches the consumer loop.
// Starting an active monitor is a no-op. Start returns ErrMonitorBusy while
// the consumer of a previous, timed-out stop has not exited.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case domain.MonitorActive:
		m.mu.Unlock()
		slog.Warn("Monitor already active, ignoring start")
		return nil
	case domain.MonitorStarting, domain.MonitorStopping:
		m.mu.Unlock()
		return domain.ErrMonitorBusy
	}
	if m.draining != nil {
		select {
		case <-m.draining:
			m.draining = nil
		default:
			m.mu.Unlock()
			return domain.ErrMonitorBusy
		}
	}
	m.state = domain.MonitorStarting
	m.mu.Unlock()

	fail := func(err error) error {
		m.setState(domain.MonitorStopped)
		return err
	}

	if m.deps.Rules != nil {
		if err := m.deps.Rules.Load(ctx); err != nil {
			return fail(fmt.Errorf("load rules: %w", err))
		}
	}
	if m.deps.Watchers == nil {
		return fail(errors.New("no watcher factory configured"))
	}

	queue := make(chan domain.FileEvent, m.cfg.QueueSize)
	w, err := m.deps.Watchers(func(ev domain.FileEvent) { m.enqueue(queue, ev) })
	if err != nil {
		return fail(fmt.Errorf("create watcher: %w", err))
	}

	var watched []string
	for _, p := range m.cfg.WatchPaths {
		if err := w.Add(p); err != nil {
			slog.Warn("Cannot watch path", "path", p, "error", err)
			audit.Emit(ctx, m.deps.Notifier, domain.EventSystemError, domain.SeverityLow,
				"Cannot watch path", err.Error(), p)
			continue
		}
		watched = append(watched, p)
	}
	if len(watched) == 0 {
		slog.Warn("Monitor active with no watched paths")
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	now := time.Now().UTC()

	m.mu.Lock()
	m.watcher = w
	m.watched = watched
	m.queue = queue
	m.cancel = cancel
	m.done = done
	m.startedAt = &now
	m.state = domain.MonitorActive
	m.mu.Unlock()

	go m.run(loopCtx, queue, done)

	slog.Info("Real-time monitor started", "paths", watched)
	audit.Emit(ctx, m.deps.Notifier, domain.EventMonitorStarted, domain.SeverityLow,
		"Real-time monitoring started", fmt.Sprintf("watching %d path(s)", len(watched)), "")
	return nil
}

// Stop closes watchers, cancels the consumer loop and waits for it to exit,
// bounded by the configured stop timeout.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case domain.MonitorStopped:
		m.mu.Unlock()
		return nil
	case domain.MonitorStarting, domain.MonitorStopping:
		m.mu.Unlock()
		return domain.ErrMonitorBusy
	}
	m.state = domain.MonitorStopping
	w, cancel, done := m.watcher, m.cancel, m.done
	m.mu.Unlock()

	if err := w.Close(); err != nil {
		slog.Warn("Watcher close failed", "error", err)
	}
	cancel()

	exited := false
	timer := time.NewTimer(m.cfg.StopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		exited = true
	case <-timer.C:
		slog.Warn("Monitor consumer did not stop in time", "timeout", m.cfg.StopTimeout)
	case <-ctx.Done():
		slog.Warn("Monitor stop abandoned", "error", ctx.Err())
	}

	m.mu.Lock()
	m.state = domain.MonitorStopped
	m.watcher = nil
	m.watched = nil
	m.queue = nil
	m.cancel = nil
	m.done = nil
	if !exited {
		m.draining = done
	}
	m.startedAt = nil
	m.mu.Unlock()
	telemetry.QueueDepth.Set(0)

	slog.Info("Real-time monitor stopped")
	audit.Emit(ctx, m.deps.Notifier, domain.EventMonitorStopped, domain.SeverityLow,
		"Real-time monitoring stopped",
		fmt.Sprintf("processed=%d detections=%d", m.processed.Load(), m.detections.Load()), "")
	return nil
}

// State returns the lifecycle state.
func (m *Monitor) State() domain.MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a point-in-time view of the monitor.
func (m *Monitor) Status() domain.MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := domain.MonitorStatus{
		State:        m.state,
		WatchedPaths: append([]string(nil), m.watched...),
		Processed:    m.processed.Load(),
		Detections:   m.detections.Load(),
	}
	if m.queue != nil {
		st.QueueDepth = len(m.queue)
	}
	if m.startedAt != nil {
		t := *m.startedAt
		st.StartedAt = &t
	}
	return st
}

func (m *Monitor) setState(s domain.MonitorState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// enqueue runs on the watcher goroutine: filter, then a non-blocking send.
func (m *Monitor) enqueue(queue chan<- domain.FileEvent, ev domain.FileEvent) {
	telemetry.FSEventsReceived.WithLabelValues(string(ev.Op)).Inc()

	if reason, skip := m.filter.Skip(ev); skip {
		telemetry.FSEventsFiltered.WithLabelValues(reason).Inc()
		return
	}

	select {
	case queue <- ev:
		telemetry.QueueDepth.Set(float64(len(queue)))
	default:
		telemetry.FSEventsDropped.Inc()
		slog.Debug("Monitor queue full, event dropped", "path", ev.Path)
	}
}

// run is the single consumer. Cancellation is checked before every dequeue.
func (m *Monitor) run(ctx context.Context, queue <-chan domain.FileEvent, done chan<- struct{}) {
	defer close(done)
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			telemetry.QueueDepth.Set(float64(len(queue)))
			m.process(ctx, ev)
		}
	}
}

func (m *Monitor) process(ctx context.Context, ev domain.FileEvent) {
	ctx, span := telemetry.Tracer().Start(ctx, "monitor.process")
	span.SetAttributes(attribute.String("file.path", ev.Path), attribute.String("fs.op", string(ev.Op)))
	defer span.End()

	outcome := m.handle(ctx, ev)
	m.processed.Add(1)
	telemetry.FSEventsProcessed.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("outcome", outcome))
}

// handle evaluates one event and returns a short outcome label.
func (m *Monitor) handle(ctx context.Context, ev domain.FileEvent) string {
	if !sleepCtx(ctx, m.cfg.SettleDelay) {
		return "cancelled"
	}

	info, err := os.Lstat(ev.Path)
	if err != nil {
		return "vanished"
	}
	if !info.Mode().IsRegular() {
		return "irregular"
	}
	if m.deps.Probe != nil && m.deps.Probe.InUse(ev.Path) {
		slog.Debug("File in use, skipping", "path", ev.Path)
		return "in_use"
	}

	found := m.Inspect(ctx, ev.Path)
	if len(found) == 0 {
		return "clean"
	}

	removed := false
	for i := range found {
		m.respond(ctx, &found[i], &removed)
	}
	return "detected"
}

// Inspect runs the signature lookup and rule evaluation for one file.
// Signature detections come first.
func (m *Monitor) Inspect(ctx context.Context, path string) []domain.ThreatDetection {
	var (
		found  []domain.ThreatDetection
		digest string
	)

	if m.deps.Hasher != nil {
		hashes, err := m.deps.Hasher.HashAll(ctx, path)
		if err != nil {
			slog.Debug("Hashing failed", "path", path, "error", err)
		} else {
			digest = hashes.SHA256
			if sig, matched := m.lookup(ctx, hashes); sig != nil {
				found = append(found, domain.NewSignatureDetection(path, *sig, matched, m.cfg.SignatureAction))
			}
		}
	}

	if m.deps.Evaluator != nil {
		for _, rule := range m.deps.Evaluator.Evaluate(ctx, path, domain.CategoryFile) {
			found = append(found, domain.NewRuleDetection(path, rule, digest))
		}
	}
	return found
}

func (m *Monitor) lookup(ctx context.Context, hashes domain.FileHashes) (*domain.MalwareSignature, string) {
	if m.deps.Signatures == nil {
		return nil, ""
	}
	for _, h := range hashes.Candidates() {
		sig, err := m.deps.Signatures.CheckHash(ctx, h)
		if err != nil {
			slog.Warn("Signature lookup failed", "error", err)
			return nil, ""
		}
		if sig != nil {
			return sig, h
		}
	}
	return nil, ""
}

// respond executes the detection's action through the action table, then
// notifies observers and records a security event.
func (m *Monitor) respond(ctx context.Context, d *domain.ThreatDetection, removed *bool) {
	act, ok := m.actions[d.Action]
	if !ok {
		act = observeAction
	}

	if d.Action.MutatesFile() && *removed {
		d.ActionTaken = domain.ResultSkipped
	} else {
		d.ActionTaken = act(ctx, d)
		if d.ActionTaken == domain.ResultQuarantined || d.ActionTaken == domain.ResultDeleted {
			*removed = true
		}
	}

	m.detections.Add(1)
	telemetry.Detections.WithLabelValues(d.Source(), string(d.Severity)).Inc()
	slog.Info("Threat detected", "path", d.FilePath, "threat", d.ThreatName, "source", d.Source(),
		"action", d.Action, "result", d.ActionTaken)

	m.deps.Notifier.NotifyThreatDetected(ctx, *d)

	eventType := domain.EventThreatDetected
	if d.Rule != nil {
		eventType = domain.EventRuleTriggered
	}
	audit.Emit(ctx, m.deps.Notifier, eventType, d.Severity,
		fmt.Sprintf("%s: %s", d.ThreatName, d.FilePath),
		fmt.Sprintf("source=%s action=%s result=%s sid=%d", d.Source(), d.Action, d.ActionTaken, d.RuleSid()),
		d.FilePath)
}

func observeAction(context.Context, *domain.ThreatDetection) domain.ActionResult {
	return domain.ResultObserved
}

func (m *Monitor) quarantineAction(ctx context.Context, d *domain.ThreatDetection) domain.ActionResult {
	if m.deps.Quarantine == nil {
		return domain.ResultObserved
	}
	item, err := m.deps.Quarantine.Quarantine(ctx, d.FilePath, *d)
	if err != nil {
		m.actionFailed(ctx, "quarantine", d, err)
		return domain.ResultFailed
	}
	m.deps.Notifier.NotifyFileQuarantined(ctx, item)
	return domain.ResultQuarantined
}

func (m *Monitor) deleteAction(ctx context.Context, d *domain.ThreatDetection) domain.ActionResult {
	if m.deps.Remover == nil {
		return domain.ResultObserved
	}
	if err := m.deps.Remover.SafeDelete(d.FilePath); err != nil {
		m.actionFailed(ctx, "delete", d, err)
		return domain.ResultFailed
	}
	return domain.ResultDeleted
}

func (m *Monitor) actionFailed(ctx context.Context, action string, d *domain.ThreatDetection, err error) {
	slog.Warn("Threat action failed", "action", action, "path", d.FilePath, "error", err)
	audit.Emit(ctx, m.deps.Notifier, domain.EventSystemError, domain.SeverityMedium,
		fmt.Sprintf("Failed to %s threat", action), err.Error(), d.FilePath)
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, action+" failed")
}

// sleepCtx waits for d or until ctx is done. It reports whether the wait completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type nopNotifier struct{}

func (nopNotifier) Record(context.Context, domain.SecurityEvent)                 {}
func (nopNotifier) NotifyThreatDetected(context.Context, domain.ThreatDetection) {}
func (nopNotifier) NotifyFileQuarantined(context.Context, domain.QuarantineItem) {}
