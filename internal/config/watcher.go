package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcpbase/pkg/logging"
)

// DriftWatcher monitors the loaded config file for on-disk changes. The
// identity a server runs with is fixed at startup, so the watcher never
// reloads anything; it tells operators that the running process and the
// file have drifted apart and a restart is needed to reconcile them.
type DriftWatcher struct {
	mu sync.Mutex

	configDir string

	// onDrift is called after each debounced change, in addition to the
	// warning log. May be nil.
	onDrift func()

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// driftDebounceInterval coalesces the bursts of events editors and config
// management tools produce for a single logical change.
const driftDebounceInterval = 500 * time.Millisecond

// NewDriftWatcher creates a watcher for config.yaml inside configDir.
func NewDriftWatcher(configDir string, onDrift func()) *DriftWatcher {
	return &DriftWatcher{
		configDir: configDir,
		onDrift:   onDrift,
	}
}

// Start begins watching. Failure to set up the watcher is logged and
// swallowed: drift detection is advisory and must never stop a server from
// running.
func (w *DriftWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("ConfigWatcher", "Drift detection unavailable: %v", err)
		return
	}

	// Watch the directory rather than the file: editors replace files via
	// rename, which would silently detach a file-level watch.
	if err := watcher.Add(w.configDir); err != nil {
		logging.Warn("ConfigWatcher", "Failed to watch %s: %v", w.configDir, err)
		watcher.Close()
		return
	}

	w.fsWatcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(watcher.Events, watcher.Errors)

	logging.Debug("ConfigWatcher", "Watching %s for configuration drift", w.configDir)
}

func (w *DriftWatcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "fsnotify error")
		}
	}
}

func (w *DriftWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != configFileName {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.noteDriftDebounced()
}

func (w *DriftWatcher) noteDriftDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(driftDebounceInterval, func() {
		w.mu.Lock()
		running := w.running
		callback := w.onDrift
		w.mu.Unlock()

		if !running {
			return
		}

		logging.Warn("ConfigWatcher",
			"%s changed on disk; the running identity is unaffected, restart to apply", configFileName)
		if callback != nil {
			callback()
		}
	})
}

// Stop ends drift watching.
func (w *DriftWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("ConfigWatcher", "Error closing watcher: %v", err)
		}
		w.fsWatcher = nil
	}
}

// IsRunning returns whether the watcher is active.
func (w *DriftWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
