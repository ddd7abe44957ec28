package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-runs the pipeline for documentation files as they change.
// Rapid saves are debounced so an editor writing a file several times in
// a row triggers one run.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	pipeline *Pipeline
	root     string
	sink     Sink
	logger   *zap.Logger

	pending     map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a Watcher over the docs root.
func NewWatcher(p *Pipeline, root string, sink Sink, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:     fw,
		pipeline:    p,
		root:        root,
		sink:        sink,
		logger:      logger,
		pending:     make(map[string]time.Time),
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start registers the root and its subdirectories and begins watching.
// Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.pipeline.excluded(d.Name()) && path != w.root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("watch add failed", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		// The event loop never started, so a later Stop must not wait
		// for it.
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		if cerr := w.watcher.Close(); cerr != nil {
			w.logger.Warn("watcher close failed", zap.Error(cerr))
		}
		return err
	}
	w.logger.Info("watching docs", zap.String("root", w.root))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("watcher close failed", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	// New subdirectories need registering for recursive coverage.
	if event.Op&fsnotify.Create != 0 {
		if isDir(event.Name) {
			if !w.pipeline.excluded(filepath.Base(event.Name)) {
				if err := w.watcher.Add(event.Name); err != nil {
					w.logger.Warn("watch add failed", zap.String("path", event.Name), zap.Error(err))
				}
			}
			return
		}
	}
	if !w.pipeline.included(event.Name) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush runs the pipeline for files whose last event is older than the
// debounce window.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	var ready []string
	w.mu.Lock()
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.logger.Debug("file changed", zap.String("path", path))
		if _, err := w.pipeline.Run(ctx, []string{path}, w.sink); err != nil {
			w.logger.Warn("pipeline run failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
