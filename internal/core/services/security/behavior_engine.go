package security

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

const defaultHeadSize = 64 * 1024

// FileSample is the lazily-read view of a file handed to detectors.
type FileSample struct {
	Path string
	Name string
	Info os.FileInfo

	headSize int
	once     sync.Once
	head     []byte
}

// NewFileSample stats path. Content is only read when a detector asks for it.
func NewFileSample(path string, headSize int) (*FileSample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if headSize <= 0 {
		headSize = defaultHeadSize
	}
	return &FileSample{Path: path, Name: filepath.Base(path), Info: info, headSize: headSize}, nil
}

// Head returns up to the first headSize bytes of the file, or nil when unreadable.
func (s *FileSample) Head() []byte {
	s.once.Do(func() {
		if s.Info == nil || !s.Info.Mode().IsRegular() {
			return
		}
		f, err := os.Open(s.Path)
		if err != nil {
			return
		}
		defer f.Close()
		buf := make([]byte, s.headSize)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return
		}
		s.head = buf[:n]
	})
	return s.head
}

// BehaviorEngine answers behaviour-tag queries with pluggable detectors.
type BehaviorEngine struct {
	detectors map[string]Detector
	headSize  int
	mu        sync.RWMutex
}

// NewBehaviorEngine creates an engine with the default detectors.
func NewBehaviorEngine() *BehaviorEngine {
	engine := &BehaviorEngine{
		detectors: make(map[string]Detector),
		headSize:  defaultHeadSize,
	}

	// Register default detectors
	for _, d := range []Detector{
		&DoubleExtensionDetector{},
		&HiddenDetector{},
		&ExecutableDetector{},
		&ScriptDetector{},
		&EntropyDetector{Threshold: 7.2, MinBytes: 256},
		&EmptyDetector{},
	} {
		engine.AddDetector(d)
	}
	return engine
}

// AddDetector registers a detector, replacing any with the same name.
func (e *BehaviorEngine) AddDetector(detector Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detectors[strings.ToLower(detector.Name())] = detector
}

// Tags returns the known behaviour tags, sorted.
func (e *BehaviorEngine) Tags() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tags := make([]string, 0, len(e.detectors))
	for t := range e.detectors {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// HasBehavior reports whether the file exhibits tag. Unknown tags and
// unreadable files never match.
func (e *BehaviorEngine) HasBehavior(ctx context.Context, path, tag string) bool {
	if ctx.Err() != nil {
		return false
	}
	e.mu.RLock()
	d, ok := e.detectors[strings.ToLower(strings.TrimSpace(tag))]
	e.mu.RUnlock()
	if !ok {
		return false
	}

	sample, err := NewFileSample(path, e.headSize)
	if err != nil {
		return false
	}
	return d.Analyze(sample)
}

// Analyze returns every tag the file exhibits.
func (e *BehaviorEngine) Analyze(ctx context.Context, path string) []string {
	sample, err := NewFileSample(path, e.headSize)
	if err != nil || ctx.Err() != nil {
		return nil
	}
	var found []string
	for _, tag := range e.Tags() {
		e.mu.RLock()
		d := e.detectors[tag]
		e.mu.RUnlock()
		if d.Analyze(sample) {
			found = append(found, tag)
		}
	}
	return found
}

var _ ports.BehaviorAnalyzer = (*BehaviorEngine)(nil)
