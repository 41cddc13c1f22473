// Package watcher detects the orchestrator's STOP sentinel file.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultInterval is the poll period for the sentinel file.
const DefaultInterval = time.Second

// Config controls the watcher.
type Config struct {
	// Path is the sentinel file to look for.
	Path string
	// Interval is the poll period. Filesystem events, when available, only
	// shorten the reaction time; polling always runs.
	Interval time.Duration
	Logger   *zap.Logger
}

// Watcher polls for a sentinel file in the background and fires a callback
// once when it appears. It never mutates job state itself.
type Watcher struct {
	cfg       Config
	logger    *zap.Logger
	onStop    func()
	triggered atomic.Bool

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Start launches the watcher goroutine. onStop is called at most once, from
// the watcher goroutine, when the sentinel is observed.
func Start(ctx context.Context, cfg Config, onStop func()) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		cfg:    cfg,
		logger: logger,
		onStop: onStop,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// Stop terminates the watcher and waits for its goroutine to exit. It is
// safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

// Triggered reports whether the sentinel was observed.
func (w *Watcher) Triggered() bool {
	return w.triggered.Load()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	events, errs, closeNotify := w.subscribe()
	defer closeNotify()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if w.present() {
			w.fire()
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
		case ev, ok := <-events:
			if !ok {
				events = nil
			} else if filepath.Clean(ev.Name) != filepath.Clean(w.cfg.Path) {
				continue
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Debug("sentinel notify error", zap.Error(err))
		}
	}
}

func (w *Watcher) fire() {
	w.triggered.Store(true)
	w.logger.Info("stop sentinel detected", zap.String("path", w.cfg.Path))
	if w.onStop != nil {
		w.onStop()
	}
}

func (w *Watcher) present() bool {
	_, err := os.Stat(w.cfg.Path)
	if err == nil {
		return true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		w.logger.Debug("sentinel stat failed", zap.Error(err))
	}
	return false
}

// subscribe sets up filesystem notifications on the sentinel's directory.
// Failures degrade to plain polling.
func (w *Watcher) subscribe() (<-chan fsnotify.Event, <-chan error, func()) {
	nw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Debug("fsnotify unavailable; polling only", zap.Error(err))
		return nil, nil, func() {}
	}
	if err := nw.Add(filepath.Dir(w.cfg.Path)); err != nil {
		w.logger.Debug("fsnotify watch failed; polling only", zap.Error(err))
		_ = nw.Close()
		return nil, nil, func() {}
	}
	return nw.Events, nw.Errors, func() { _ = nw.Close() }
}
