package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/pkg/store"
)

// registry owns one Session per document name. Sessions are created and
// loaded on first use and live until the server shuts down. Each session
// keeps a debounced preview, served by GET /config/{name}/preview?latest=1.
type registry struct {
	mu     sync.Mutex
	store  store.Store
	opts   []rimepatch.Option
	logger zerolog.Logger
	open   map[string]*rimepatch.Session
}

func newRegistry(st store.Store, opts []rimepatch.Option, logger zerolog.Logger) *registry {
	return &registry{store: st, opts: opts, logger: logger, open: make(map[string]*rimepatch.Session)}
}

func (r *registry) get(ctx context.Context, name string) (*rimepatch.Session, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.open[name]; ok {
		return session, nil
	}
	logger := r.logger.With().Str("document", name).Logger()
	publish := func(text string) {
		logger.Debug().Int("bytes", len(text)).Msg("preview updated")
	}
	opts := append([]rimepatch.Option{rimepatch.WithPreviewPublisher(publish)}, r.opts...)
	session := rimepatch.NewSession(name, r.store, opts...)
	if err := session.Load(ctx); err != nil {
		session.Close()
		return nil, err
	}
	r.open[name] = session
	return session, nil
}

func (r *registry) markStale(name string) {
	r.mu.Lock()
	session, ok := r.open[name]
	r.mu.Unlock()
	if ok {
		session.MarkStale()
	}
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, session := range r.open {
		session.Close()
		delete(r.open, name)
	}
}
