package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timitprog-hue/buildplan/internal/document"
	"github.com/timitprog-hue/buildplan/internal/models"
)

// createTempDocument creates a temporary YAML build document
func createTempDocument(t *testing.T, content string) string {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "build.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0600); err != nil {
		t.Fatalf("failed to create temp document: %v", err)
	}
	return tmpFile
}

func documentWithID(id string) string {
	return "applicationId: " + id + "\ncompileSdkVersion: 34\n"
}

// replaceAtomically writes content to a temp file and renames it over path,
// the way editors and plan.WriteFile save files
func replaceAtomically(t *testing.T, path, content string) {
	t.Helper()
	tmp, err := os.CreateTemp(filepath.Dir(path), ".build.*.tmp")
	require.NoError(t, err)
	_, err = tmp.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())
	require.NoError(t, os.Rename(tmp.Name(), path))
}

// recorder collects callback invocations
type recorder struct {
	calls atomic.Int32
	mu    sync.Mutex
	last  models.Document
	err   error
}

func (r *recorder) callback(doc models.Document) error {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = doc
	return r.err
}

func (r *recorder) lastID() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	return r.last[models.KeyApplicationID]
}

func startWatcher(t *testing.T, path string, rec *recorder) *DocumentWatcher {
	t.Helper()

	watcher, err := NewDocumentWatcher(DocumentWatcherConfig{
		FilePath:       path,
		DebounceMillis: 100,
	}, rec.callback)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, watcher.Start(ctx))
	t.Cleanup(func() { _ = watcher.Stop() })

	// Give fsnotify time to settle
	time.Sleep(50 * time.Millisecond)
	return watcher
}

// TestWatcherStartLoadsInitialDocument verifies that Start() loads the
// document and calls the callback before returning.
func TestWatcherStartLoadsInitialDocument(t *testing.T) {
	rec := &recorder{}
	startWatcher(t, createTempDocument(t, documentWithID("com.example.first")), rec)

	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, "com.example.first", rec.lastID())
}

func TestWatcherDetectsFileChange(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))
	rec := &recorder{}
	startWatcher(t, path, rec)

	require.NoError(t, os.WriteFile(path, []byte(documentWithID("com.example.second")), 0600))

	assert.Eventually(t, func() bool {
		return rec.calls.Load() == 2 && rec.lastID() == "com.example.second"
	}, 2*time.Second, 20*time.Millisecond)
}

// TestWatcherDebouncing verifies that rapid writes within the debounce
// period produce a single reload.
func TestWatcherDebouncing(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))
	rec := &recorder{}
	startWatcher(t, path, rec)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(documentWithID("com.example.burst")), 0600))
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(2), rec.calls.Load())
	assert.Equal(t, "com.example.burst", rec.lastID())
}

// A document that fails to parse is skipped and watching continues
func TestWatcherSkipsUnparseableDocument(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))
	rec := &recorder{}
	startWatcher(t, path, rec)

	require.NoError(t, os.WriteFile(path, []byte("applicationId: [unclosed\n"), 0600))
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), rec.calls.Load())

	require.NoError(t, os.WriteFile(path, []byte(documentWithID("com.example.fixed")), 0600))
	assert.Eventually(t, func() bool {
		return rec.lastID() == "com.example.fixed"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherCallbackErrorKeepsWatching(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))
	rec := &recorder{}
	startWatcher(t, path, rec)

	rec.mu.Lock()
	rec.err = errors.New("resolution failed")
	rec.mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte(documentWithID("com.example.second")), 0600))
	assert.Eventually(t, func() bool { return rec.calls.Load() == 2 }, 2*time.Second, 20*time.Millisecond)

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte(documentWithID("com.example.third")), 0600))
	assert.Eventually(t, func() bool { return rec.lastID() == "com.example.third" }, 2*time.Second, 20*time.Millisecond)
}

// TestWatcherDetectsAtomicWrite verifies that the watch survives the file
// being replaced by rename.
func TestWatcherDetectsAtomicWrite(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))
	rec := &recorder{}
	startWatcher(t, path, rec)

	replaceAtomically(t, path, documentWithID("com.example.renamed"))
	assert.Eventually(t, func() bool {
		return rec.lastID() == "com.example.renamed"
	}, 3*time.Second, 20*time.Millisecond)

	replaceAtomically(t, path, documentWithID("com.example.again"))
	assert.Eventually(t, func() bool {
		return rec.lastID() == "com.example.again"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherStartFailsOnInitialLoad(t *testing.T) {
	path := createTempDocument(t, "applicationId: [unclosed\n")

	watcher, err := NewDocumentWatcher(DocumentWatcherConfig{FilePath: path}, (&recorder{}).callback)
	require.NoError(t, err)

	err = watcher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load initial document")
}

func TestWatcherStartFailsOnInitialCallback(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))
	rec := &recorder{err: errors.New("nope")}

	watcher, err := NewDocumentWatcher(DocumentWatcherConfig{FilePath: path}, rec.callback)
	require.NoError(t, err)

	err = watcher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial callback failed")
}

// A file that cannot be watched fails Start instead of silently never reloading
func TestWatcherStartFailsWhenWatchCannotBeAdded(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))

	watcher, err := NewDocumentWatcher(DocumentWatcherConfig{FilePath: path}, (&recorder{}).callback)
	require.NoError(t, err)
	watcher.addWatch = func(*fsnotify.Watcher, string) error {
		return errors.New("too many open files")
	}

	err = watcher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch document")
	assert.Contains(t, err.Error(), "too many open files")

	select {
	case <-watcher.stopped:
	case <-time.After(time.Second):
		t.Fatal("watch loop still running after failed start")
	}
}

// A start that times out must not leave the watch loop running
func TestWatcherStartTimeoutStopsWatchLoop(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))

	watcher, err := NewDocumentWatcher(DocumentWatcherConfig{FilePath: path}, (&recorder{}).callback)
	require.NoError(t, err)

	release := make(chan struct{})
	watcher.startTimeout = 50 * time.Millisecond
	watcher.addWatch = func(w *fsnotify.Watcher, p string) error {
		<-release
		return w.Add(p)
	}

	err = watcher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for file watcher")

	close(release)
	select {
	case <-watcher.stopped:
	case <-time.After(time.Second):
		t.Fatal("watch loop still running after start timed out")
	}
}

func TestWatcherStopGraceful(t *testing.T) {
	path := createTempDocument(t, documentWithID("com.example.first"))

	watcher, err := NewDocumentWatcher(DocumentWatcherConfig{FilePath: path}, (&recorder{}).callback)
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))

	start := time.Now()
	require.NoError(t, watcher.Stop())
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewDocumentWatcherValidation(t *testing.T) {
	cb := (&recorder{}).callback

	_, err := NewDocumentWatcher(DocumentWatcherConfig{}, cb)
	assert.ErrorContains(t, err, "FilePath cannot be empty")

	_, err = NewDocumentWatcher(DocumentWatcherConfig{FilePath: "build.yaml"}, nil)
	assert.ErrorContains(t, err, "callback cannot be nil")

	_, err = NewDocumentWatcher(DocumentWatcherConfig{FilePath: "build.toml"}, cb)
	assert.Error(t, err)
}

func TestWatcherDefaults(t *testing.T) {
	watcher, err := NewDocumentWatcher(DocumentWatcherConfig{FilePath: "app/build.gradle.kts"}, (&recorder{}).callback)
	require.NoError(t, err)

	assert.Equal(t, DefaultDebounceMillis, watcher.config.DebounceMillis)
	assert.Equal(t, document.FormatGradle, watcher.config.Format)
}
