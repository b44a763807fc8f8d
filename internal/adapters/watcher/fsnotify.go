package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// renameWindow bounds how long a Rename waits for the matching Create.
const renameWindow = 250 * time.Millisecond

// FSWatcher watches directory trees recursively and translates fsnotify
// operations into domain.FileEvent values.
type FSWatcher struct {
	w       *fsnotify.Watcher
	handler func(domain.FileEvent)
	done    chan struct{}
	once    sync.Once

	// pending rename source, only touched by the loop goroutine
	pendingFrom string
	pendingAt   time.Time
}

// New creates a watcher. handler runs on the watcher goroutine and must not block.
func New(handler func(domain.FileEvent)) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	fw := &FSWatcher{
		w:       w,
		handler: handler,
		done:    make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

// Factory adapts New to ports.WatcherFactory.
func Factory(handler func(domain.FileEvent)) (ports.Watcher, error) {
	return New(handler)
}

// Add registers root and every readable directory below it.
func (fw *FSWatcher) Add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	if err := fw.w.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	fw.addTree(root)
	return nil
}

// addTree registers subdirectories, skipping those that cannot be read.
func (fw *FSWatcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if err := fw.w.Add(path); err != nil {
			slog.Debug("Skipping unwatchable directory", "path", path, "error", err)
			return filepath.SkipDir
		}
		return nil
	})
}

// Close stops delivery and releases OS handles. It is safe to call twice.
func (fw *FSWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		err = fw.w.Close()
		<-fw.done
	})
	return err
}

// WatchList returns the directories currently registered.
func (fw *FSWatcher) WatchList() []string {
	return fw.w.WatchList()
}

func (fw *FSWatcher) loop() {
	defer close(fw.done)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			fw.handle(ev)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				slog.Warn("Watcher event overflow, notifications were lost")
				continue
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func (fw *FSWatcher) handle(ev fsnotify.Event) {
	now := time.Now()

	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := fw.w.Add(ev.Name); err == nil {
				fw.addTree(ev.Name)
			}
			fw.pendingFrom = ""
			return
		}
		if fw.pendingFrom != "" && now.Sub(fw.pendingAt) <= renameWindow {
			from := fw.pendingFrom
			fw.pendingFrom = ""
			fw.handler(domain.FileEvent{Op: domain.FileRenamed, Path: ev.Name, OldPath: from, At: now})
			return
		}
		fw.pendingFrom = ""
		fw.handler(domain.FileEvent{Op: domain.FileCreated, Path: ev.Name, At: now})

	case ev.Has(fsnotify.Write):
		fw.handler(domain.FileEvent{Op: domain.FileChanged, Path: ev.Name, At: now})

	case ev.Has(fsnotify.Rename):
		// The new name arrives as a Create; an unpaired rename left the tree.
		fw.pendingFrom = ev.Name
		fw.pendingAt = now
	}
}

var _ ports.WatcherFactory = Factory
