package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// TriggerStatsSaver is the slice of the rule repository the writer needs.
type TriggerStatsSaver interface {
	SaveTriggerStats(ctx context.Context, stats []domain.RuleTriggerStat) error
}

// TriggerWriter handles background batch writing of rule trigger statistics.
type TriggerWriter struct {
	storage   TriggerStatsSaver
	statsChan chan domain.RuleTriggerStat
	batchSize int
	interval  time.Duration
	enabled   bool
	done      chan struct{}
	mu        sync.RWMutex
}

// NewTriggerWriter creates a new writer.
func NewTriggerWriter(storage TriggerStatsSaver, bufferSize int) *TriggerWriter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &TriggerWriter{
		storage:   storage,
		statsChan: make(chan domain.RuleTriggerStat, bufferSize),
		batchSize: 50,
		interval:  5 * time.Second,
		enabled:   true,
		done:      make(chan struct{}),
	}
}

// Record queues a stat for persistence. It never blocks the evaluator.
func (p *TriggerWriter) Record(stat domain.RuleTriggerStat) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return
	}
	select {
	case p.statsChan <- stat:
	default:
		// the next trigger of the same rule carries a newer counter
	}
}

// SetEnabled toggles persistence.
func (p *TriggerWriter) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// Start begins the write loop. Pending stats are flushed when ctx ends.
func (p *TriggerWriter) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	buffer := make(map[int]domain.RuleTriggerStat)

	go func() {
		defer close(p.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.drain(buffer)
				p.flushBuffer(buffer)
				return
			case stat := <-p.statsChan:
				merge(buffer, stat)
				if len(buffer) >= p.batchSize {
					p.flushBuffer(buffer)
					buffer = make(map[int]domain.RuleTriggerStat)
				}
			case <-ticker.C:
				if len(buffer) > 0 {
					p.flushBuffer(buffer)
					buffer = make(map[int]domain.RuleTriggerStat)
				}
			}
		}
	}()
}

// Wait blocks until the loop started by Start has exited.
func (p *TriggerWriter) Wait() {
	<-p.done
}

func (p *TriggerWriter) drain(buffer map[int]domain.RuleTriggerStat) {
	for {
		select {
		case stat := <-p.statsChan:
			merge(buffer, stat)
		default:
			return
		}
	}
}

// merge keeps the newest counter per sid.
func merge(buffer map[int]domain.RuleTriggerStat, stat domain.RuleTriggerStat) {
	if cur, ok := buffer[stat.Sid]; ok && cur.TriggerCount > stat.TriggerCount {
		return
	}
	buffer[stat.Sid] = stat
}

func (p *TriggerWriter) flushBuffer(buffer map[int]domain.RuleTriggerStat) {
	if len(buffer) == 0 || p.storage == nil {
		return
	}
	stats := make([]domain.RuleTriggerStat, 0, len(buffer))
	for _, s := range buffer {
		stats = append(stats, s)
	}

	// the loop context may already be cancelled on shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.storage.SaveTriggerStats(ctx, stats); err != nil {
		slog.Error("Failed to batch save trigger stats", "count", len(stats), "error", err)
	}
}

var (
	_ ports.TriggerRecorder = (*TriggerWriter)(nil)
	_ TriggerStatsSaver     = ports.RuleRepository(nil)
)
