package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/timitprog-hue/buildplan/internal/document"
	"github.com/timitprog-hue/buildplan/internal/logging"
	"github.com/timitprog-hue/buildplan/internal/models"
)

// DefaultDebounceMillis coalesces editor save sequences into one reload
const DefaultDebounceMillis = 500

// ReloadCallback is called with each successfully loaded document.
// If the callback returns an error during a reload, it is logged and the
// watcher keeps watching.
type ReloadCallback func(doc models.Document) error

// DocumentWatcherConfig holds configuration for the DocumentWatcher.
type DocumentWatcherConfig struct {
	// FilePath is the build document to watch
	FilePath string

	// Format overrides extension-based format detection
	Format document.Format

	// DebounceMillis is the debounce period in milliseconds.
	// Default: 500ms
	DebounceMillis int
}

// DocumentWatcher watches a build document and invokes a callback each time
// it changes. Bursts of file events within the debounce period produce a
// single reload.
//
// Documents that fail to load during a reload are logged and skipped; the
// previous callback result stays in effect.
type DocumentWatcher struct {
	config   DocumentWatcherConfig
	callback ReloadCallback
	logger   *logging.Logger
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan error // receives the watch setup result exactly once
	mu       sync.Mutex

	// addWatch registers the file with fsnotify
	addWatch     func(watcher *fsnotify.Watcher, path string) error
	startTimeout time.Duration

	debounceTimer *time.Timer
}

// NewDocumentWatcher creates a watcher for the given document.
//
// Returns an error if FilePath is empty, the callback is nil or the
// format cannot be determined.
func NewDocumentWatcher(config DocumentWatcherConfig, callback ReloadCallback) (*DocumentWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}

	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}

	if config.Format == document.FormatAuto {
		format, err := document.DetectFormat(config.FilePath)
		if err != nil {
			return nil, err
		}
		config.Format = format
	}

	if config.DebounceMillis <= 0 {
		config.DebounceMillis = DefaultDebounceMillis
	}

	return &DocumentWatcher{
		config:   config,
		callback: callback,
		logger:   logging.GetLogger("config.watcher").WithField("path", config.FilePath),
		stopped:  make(chan struct{}),
		ready:    make(chan error, 1),
		addWatch: func(watcher *fsnotify.Watcher, path string) error {
			return watcher.Add(path)
		},
		startTimeout: 5 * time.Second,
	}, nil
}

// Start loads the document, calls the callback, and then watches the file
// in the background until Stop is called or ctx is cancelled.
//
// Returns an error if the initial load or the initial callback fails, or
// if the file cannot be watched.
func (w *DocumentWatcher) Start(ctx context.Context) error {
	doc, err := document.Load(w.config.FilePath, w.config.Format)
	if err != nil {
		return fmt.Errorf("failed to load initial document: %w", err)
	}

	if err := w.callback(doc); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	w.logger.Info("loaded initial document")

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	// File changes made after Start returns must not be missed
	select {
	case err := <-w.ready:
		if err != nil {
			cancel()
			return fmt.Errorf("failed to watch document: %w", err)
		}
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case <-time.After(w.startTimeout):
		cancel()
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}

	return nil
}

func (w *DocumentWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.ready <- fmt.Errorf("failed to create file watcher: %w", err)
		return
	}
	defer watcher.Close()

	if err := w.addWatch(watcher, w.config.FilePath); err != nil {
		w.ready <- err
		return
	}

	w.logger.DebugWithFields("watching for changes",
		logging.Field("debounce_ms", w.config.DebounceMillis),
		logging.Field("format", w.config.Format),
	)

	w.ready <- nil

	for {
		select {
		case <-ctx.Done():
			w.stopDebounce()
			w.logger.Debug("context cancelled, stopping")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				w.logger.Debug("watcher events channel closed")
				return
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			// Atomic saves replace the inode; the watch must be re-added
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.FilePath); err != nil {
					w.logger.WarnWithFields("failed to re-add watch",
						logging.Field("op", event.Op.String()),
						logging.Field("error", err),
					)
				}
			}
			w.handleFileChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				w.logger.Debug("watcher errors channel closed")
				return
			}
			w.logger.ErrorWithErr("watcher error", err)
		}
	}
}

// handleFileChange restarts the debounce timer
func (w *DocumentWatcher) handleFileChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		func() {
			if ctx.Err() != nil {
				return
			}
			w.reload()
		},
	)
}

func (w *DocumentWatcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

// reload loads the document and hands it to the callback. Failures are
// logged and the watcher keeps running.
func (w *DocumentWatcher) reload() {
	w.logger.Debug("reloading document")

	doc, err := document.Load(w.config.FilePath, w.config.Format)
	if err != nil {
		w.logger.ErrorWithErr("failed to load document, keeping previous result", err)
		return
	}

	if err := w.callback(doc); err != nil {
		w.logger.ErrorWithErr("reload callback failed, continuing to watch", err)
		return
	}

	w.logger.Info("document reloaded")
}

// Stop stops the watcher and waits up to 5 seconds for the watch loop to exit
func (w *DocumentWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}

	select {
	case <-w.stopped:
		w.logger.Debug("stopped")
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
