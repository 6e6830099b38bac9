// Package webhook implements the inbound filesystem-watcher collaborator
// stub and the outbound arr/Jellyfin-style webhook delivery spec §1/§6
// mention as external systems, grounded in CineVault's internal/watcher and
// internal/notifications packages.
package webhook

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubmitFunc enqueues path for processing once its write has settled. The
// scheduler's job submission (store.Jobs.Submit with Source=watcher) is
// handed in here rather than imported directly, keeping this package
// decoupled from internal/store.
type SubmitFunc func(libraryID uuid.UUID, path string)

// Watcher debounces filesystem events from one or more library roots and
// calls SubmitFunc once a file has stopped changing, matching CineVault's
// watcher.Watcher (1s settle timer, directories added recursively as they
// appear).
type Watcher struct {
	fw     *fsnotify.Watcher
	submit SubmitFunc
	log    zerolog.Logger

	mu       sync.Mutex
	watched  map[string]uuid.UUID
	debounce map[string]*time.Timer
	stop     chan struct{}

	settle time.Duration
}

// New creates a Watcher. settle is the debounce window before submit is
// called; CineVault hardcodes 1s, here it's a parameter so tests can shrink
// it.
func New(submit SubmitFunc, log zerolog.Logger, settle time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = time.Second
	}
	return &Watcher{
		fw:       fw,
		submit:   submit,
		log:      log.With().Str("component", "webhook_watcher").Logger(),
		watched:  make(map[string]uuid.UUID),
		debounce: make(map[string]*time.Timer),
		stop:     make(chan struct{}),
		settle:   settle,
	}, nil
}

// Watch adds root (recursively, directories only — fsnotify watches
// directories and reports events for files within them) under libraryID.
func (w *Watcher) Watch(root string, libraryID uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addRecursive(root, libraryID)
}

// Start begins the event loop in its own goroutine.
func (w *Watcher) Start() {
	go w.eventLoop()
	w.log.Info().Msg("filesystem watcher started")
}

func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.fw.Close()
}

func (w *Watcher) addRecursive(root string, libID uuid.UUID) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.fw.Add(path); err != nil {
				return nil
			}
			w.watched[path] = libID
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part") {
		return
	}

	isCreate := event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
	isWrite := event.Has(fsnotify.Write)
	if !isCreate && !isWrite {
		return
	}

	if isCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			libID := w.resolveLibrary(event.Name)
			if libID != uuid.Nil {
				w.mu.Lock()
				_ = w.addRecursive(event.Name, libID)
				w.mu.Unlock()
			}
			return
		}
	}

	if !isMediaExtension(strings.ToLower(filepath.Ext(event.Name))) {
		return
	}
	libID := w.resolveLibrary(event.Name)
	if libID == uuid.Nil {
		return
	}

	w.mu.Lock()
	if t, ok := w.debounce[event.Name]; ok {
		t.Stop()
	}
	name := event.Name
	w.debounce[name] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.debounce, name)
		w.mu.Unlock()
		w.submit(libID, name)
	})
	w.mu.Unlock()
}

func (w *Watcher) resolveLibrary(path string) uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir := filepath.Dir(path)
	for dir != "/" && dir != "." {
		if libID, ok := w.watched[dir]; ok {
			return libID
		}
		dir = filepath.Dir(dir)
	}
	return uuid.Nil
}

var mediaExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".m4v": true,
	".ts": true, ".m2ts": true, ".webm": true,
}

func isMediaExtension(ext string) bool { return mediaExtensions[ext] }
