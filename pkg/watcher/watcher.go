// Package watcher reruns extraction when the snapshot or config file changes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/ltm-terrify/pkg/logging"
)

// ChangeType represents the kind of file that changed
type ChangeType int

const (
	ChangeTypeConfig ChangeType = iota
	ChangeTypeSnapshot
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeConfig:
		return "config"
	case ChangeTypeSnapshot:
		return "snapshot"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of changes to files of one type
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

const batchWindow = 100 * time.Millisecond

// FileWatcher watches individual files for changes. Parent directories are
// watched instead of the files themselves, since editors and Save replace
// files by rename and fsnotify loses a watch on the replaced inode.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // absolute path -> type
	events  chan ChangeEvent
	mu      sync.Mutex
	closed  bool
}

// NewFileWatcher creates a watcher with no files registered
func NewFileWatcher() (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		files:   make(map[string]ChangeType),
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Add registers a file. The file itself need not exist yet, its directory does.
func (fw *FileWatcher) Add(path string, t ChangeType) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.files[abs] = t
	dir := filepath.Dir(abs)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	logging.Debug("watching file", "path", abs, "type", t.String())
	return nil
}

// Remove unregisters a file. The directory watch is dropped once no other
// registered file lives in it.
func (fw *FileWatcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, ok := fw.files[abs]; !ok {
		return nil
	}
	delete(fw.files, abs)

	dir := filepath.Dir(abs)
	for other := range fw.files {
		if filepath.Dir(other) == dir {
			return nil
		}
	}
	if err := fw.watcher.Remove(dir); err != nil {
		return fmt.Errorf("failed to unwatch directory %s: %w", dir, err)
	}

	logging.Debug("stopped watching file", "path", abs)
	return nil
}

// Start begins processing events until ctx is done
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.processEvents(ctx)
}

func (fw *FileWatcher) lookup(name string) (ChangeType, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return 0, false
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	t, ok := fw.files[abs]
	return t, ok
}

// processEvents filters events down to registered files and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeSnapshot} {
			if paths := pending[t]; len(paths) > 0 {
				fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}
			}
		}
		pending = make(map[ChangeType][]string)
	}

	defer func() {
		flushTimer.Stop()
		fw.Stop()
		close(fw.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			t, watched := fw.lookup(event.Name)
			if !watched {
				continue
			}

			logging.Trace("file event", "path", event.Name, "op", event.Op.String())
			pending[t] = appendUnique(pending[t], event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

func appendUnique(paths []string, p string) []string {
	for _, existing := range paths {
		if existing == p {
			return paths
		}
	}
	return append(paths, p)
}

// Events returns the channel of change events. It is closed when the
// watcher stops.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the underlying watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return nil
	}
	fw.closed = true
	return fw.watcher.Close()
}
