package statestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harun/acpkeep/pkg/statefile"
	"github.com/rs/zerolog/log"
)

// ChangeCallback is called with the freshly decoded file after it changes.
type ChangeCallback func(path string, res statefile.Result)

// WatcherConfig holds configuration for the watcher
type WatcherConfig struct {
	Path               string
	StabilityThreshold time.Duration
	OnChange           ChangeCallback
}

// Watcher reports changes to a state file made by any process. It reads the
// file itself and never touches a Store's cache.
type Watcher struct {
	watcher            *fsnotify.Watcher
	path               string
	dir                string
	watched            string // owned by Start, then by eventLoop
	stabilityThreshold time.Duration
	onChange           ChangeCallback
	done               chan struct{}
	debounceMu         sync.Mutex
	debounceTimer      *time.Timer
	stopOnce           sync.Once
}

// NewWatcher creates a new state file watcher
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("watch path cannot be empty")
	}
	if config.OnChange == nil {
		return nil, fmt.Errorf("change callback cannot be nil")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if config.StabilityThreshold == 0 {
		config.StabilityThreshold = 100 * time.Millisecond
	}

	path := filepath.Clean(config.Path)
	return &Watcher{
		watcher:            watcher,
		path:               path,
		dir:                filepath.Dir(path),
		stabilityThreshold: config.StabilityThreshold,
		onChange:           config.OnChange,
		done:               make(chan struct{}),
	}, nil
}

// Start watches the directory holding the state file. Saves replace the
// file by rename, so the file itself cannot be watched directly. While that
// directory does not exist the deepest existing ancestor is watched instead
// and the watch moves down as directories appear. Nothing is created.
func (w *Watcher) Start() error {
	if err := w.watchNearest(false); err != nil {
		return err
	}

	go w.eventLoop()

	log.Info().
		Str("path", w.path).
		Str("watching", w.watched).
		Msg("State file watcher started")

	return nil
}

// watchNearest moves the watch to the deepest existing directory on the way
// to the state file. It repeats until the target stops changing, since
// directories created before a watch is added produce no event. lost means
// the watched directory itself was removed and its watch is already gone.
func (w *Watcher) watchNearest(lost bool) error {
	started := w.watched != ""
	if lost {
		w.watched = ""
	}
	for {
		dir := nearestExistingDir(w.dir)
		if dir == w.watched {
			break
		}

		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch state directory: %w", err)
		}
		if w.watched != "" {
			// The old directory may already be gone.
			_ = w.watcher.Remove(w.watched)
		}
		w.watched = dir
	}

	// The file may have been written before the watch reached its directory.
	if started && w.watched == w.dir {
		if _, err := os.Stat(w.path); err == nil {
			w.debounce()
		}
	}
	return nil
}

func nearestExistingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// onStatePath reports whether name is the state directory or one of its
// ancestors.
func (w *Watcher) onStatePath(name string) bool {
	rel, err := filepath.Rel(name, w.dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	log.Info().Msg("State file watcher stopped")
	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if name != w.path {
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 && w.onStatePath(name) {
					lost := name == w.watched && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
					if err := w.watchNearest(lost); err != nil {
						log.Error().Err(err).Str("dir", name).Msg("Failed to follow state directory")
					}
				}
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.debounce()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

// debounce collapses bursts of events into one callback.
func (w *Watcher) debounce() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.stabilityThreshold, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange(w.path, ReadFile(w.path))
	})
}
