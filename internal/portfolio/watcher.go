package portfolio

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher holds the current catalog and reloads it when its file changes.
// A reload that fails keeps the previous catalog.
type Watcher struct {
	file         string
	log          logrus.FieldLogger
	watcher      *fsnotify.Watcher
	refreshDelay time.Duration

	mu      sync.RWMutex
	catalog *Catalog

	refreshMu    sync.Mutex
	refreshTimer *time.Timer
	done         chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
	closeErr     error
}

// NewWatcher loads path and starts watching it for changes.
func NewWatcher(path string, debounce time.Duration, log logrus.FieldLogger) (*Watcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	file, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	catalog, err := Load(file)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		file:         filepath.Clean(file),
		log:          log,
		watcher:      fw,
		refreshDelay: debounce,
		catalog:      catalog,
		done:         make(chan struct{}),
	}

	// Editors replace files by rename, so watch the directory rather than the file.
	if err := fw.Add(filepath.Dir(w.file)); err != nil {
		fw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Catalog returns the most recently loaded catalog.
func (w *Watcher) Catalog() *Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.catalog
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)

		w.refreshMu.Lock()
		if w.refreshTimer != nil {
			w.refreshTimer.Stop()
			w.refreshTimer = nil
		}
		w.refreshMu.Unlock()

		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("content watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	select {
	case <-w.done:
		return
	default:
	}

	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	if w.refreshTimer != nil {
		w.refreshTimer.Stop()
	}
	w.refreshTimer = time.AfterFunc(w.refreshDelay, w.reload)
}

func (w *Watcher) reload() {
	catalog, err := Load(w.file)
	if err != nil {
		w.log.WithError(err).WithField("file", w.file).Warn("content reload failed, keeping previous content")
		return
	}

	w.mu.Lock()
	w.catalog = catalog
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{
		"projects": len(catalog.projects),
		"skills":   len(catalog.skills),
	}).Info("content reloaded")
}
