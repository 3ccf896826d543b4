package store

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-rimepatch/phrases"
)

// PhrasesDocument is the name reported for changes to the phrase table.
const PhrasesDocument = "custom_phrase"

// DocumentName maps a file in the configuration directory to the document it
// belongs to. Backups, temporary files and unrelated files report false.
func DocumentName(file string) (string, bool) {
	base := filepath.Base(file)
	if strings.HasSuffix(base, backupSuffix) || strings.Contains(base, tempInfix) {
		return "", false
	}
	if base == phrases.FileName {
		return PhrasesDocument, true
	}
	for _, suffix := range []string{".custom.yaml", ".schema.yaml", ".yaml"} {
		if name, ok := strings.CutSuffix(base, suffix); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

// Watcher reports external edits to configuration files. The callback gets
// the document name, see DocumentName.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func(name string)
	skip     func(path string) bool
	logger   zerolog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	mu       sync.Mutex
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithSkip drops events for files where skip returns true, such as
// FileStore.Written for the store's own saves.
func WithSkip(skip func(path string) bool) WatcherOption {
	return func(w *Watcher) {
		w.skip = skip
	}
}

// NewWatcher watches dir, which must exist.
func NewWatcher(dir string, onChange func(name string), logger zerolog.Logger, opts ...WatcherOption) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	logger.Debug().Str("dir", dir).Msg("config watcher initialized")
	watcher := &Watcher{
		watcher:  w,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(watcher)
		}
	}
	return watcher, nil
}

// Start begins delivering change notifications.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name, ok := DocumentName(ev.Name)
			if !ok {
				continue
			}
			if w.skip != nil && w.skip(ev.Name) {
				w.logger.Debug().Str("file", ev.Name).Msg("own write ignored")
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("document", name).Msg("config file changed")
			if w.onChange != nil {
				w.onChange(name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

// Stop ends the watch and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}
