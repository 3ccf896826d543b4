package rimepatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-rimepatch/dirty"
	"github.com/goliatone/go-rimepatch/document"
	"github.com/goliatone/go-rimepatch/layering"
	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
	"github.com/goliatone/go-rimepatch/preview"
	"github.com/goliatone/go-rimepatch/tree"
)

var (
	// ErrNotLoaded is returned by edits made before Load succeeded.
	ErrNotLoaded = errors.New("rimepatch: session not loaded")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("rimepatch: session closed")
	// ErrEmptyPath rejects edits addressed to the empty path.
	ErrEmptyPath = errors.New("rimepatch: empty path")
)

// SaveFailedMessage is reported by SaveAndDeploy when the write fails.
const SaveFailedMessage = "save failed, deploy skipped"

// ChecksFailedMessage prefixes the SaveAndDeploy message when preflight
// checks fail. The failure summary follows on the next lines.
const ChecksFailedMessage = "preflight checks failed"

// Session holds the editing state of one open document: the base loaded from
// the store, the working patch and the snapshot of the last saved patch.
// Construct one per document; a Session is safe for concurrent use.
type Session struct {
	name  string
	store store.Store
	cfg   sessionConfig

	logger    zerolog.Logger
	emitter   *activity.Emitter
	scheduler *preview.Scheduler

	mu      sync.RWMutex
	loaded  bool
	closed  bool
	stale   bool
	base    *tree.Mapping
	patch   *tree.Mapping
	tracker *dirty.Tracker
	meta    store.Meta
}

// NewSession returns an unloaded session for the named document.
func NewSession(name string, st store.Store, opts ...Option) *Session {
	cfg := applyOptions(opts)
	s := &Session{
		name:    name,
		store:   st,
		cfg:     cfg,
		logger:  cfg.logger.With().Str("document", name).Logger(),
		base:    tree.NewMapping(),
		patch:   tree.NewMapping(),
		tracker: dirty.NewTracker(nil),
	}
	s.emitter = activity.NewEmitter(cfg.activityHooks, activity.Config{
		Channel: cfg.activityChannel,
		Logger:  s.logger,
	})
	if cfg.publisher != nil {
		previewOpts := append([]preview.Option{preview.WithLogger(s.logger)}, cfg.previewOpts...)
		s.scheduler = preview.NewScheduler(cfg.publisher, previewOpts...)
	}
	return s
}

// Name returns the document name.
func (s *Session) Name() string { return s.name }

// Load reads the base and saved patch from the store, replacing any state
// including unsaved edits.
func (s *Session) Load(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("rimepatch: session %q has no store", s.name)
	}
	doc, err := s.store.ReadDocument(ctx, s.name)
	if err != nil {
		s.logger.Error().Err(err).Msg("load failed")
		return fmt.Errorf("rimepatch: load %s: %w", s.name, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.base = tree.CloneMapping(doc.Base)
	s.patch = tree.CloneMapping(doc.Patch)
	s.tracker = dirty.NewTracker(doc.Patch)
	s.meta = doc.Meta
	s.loaded = true
	s.stale = false
	patch := tree.CloneMapping(s.patch)
	s.mu.Unlock()

	s.logger.Debug().Int("overrides", patch.Len()).Str("etag", doc.Meta.ETag).Msg("document loaded")
	s.notifyPreview(patch)
	return nil
}

// Refresh discards the base and every unsaved edit and reads both again.
func (s *Session) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Loaded reports whether Load has succeeded.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Base returns a copy of the base document.
func (s *Session) Base() *tree.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.CloneMapping(s.base)
}

// Patch returns a copy of the working patch.
func (s *Session) Patch() *tree.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.CloneMapping(s.patch)
}

// Saved returns a copy of the last saved patch.
func (s *Session) Saved() *tree.Mapping {
	s.mu.RLock()
	tracker := s.tracker
	s.mu.RUnlock()
	return tracker.Saved()
}

// Meta returns the storage metadata of the last load or save.
func (s *Session) Meta() store.Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Effective returns the base with the working patch applied.
func (s *Session) Effective() *tree.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return layering.Merge(s.base, s.patch)
}

// Get resolves path in the effective document.
func (s *Session) Get(path string) (tree.Value, bool) {
	return tree.Get(s.Effective(), path)
}

// Set stores value as the override for path.
func (s *Session) Set(ctx context.Context, path string, value tree.Value) error {
	if path == "" {
		return ErrEmptyPath
	}
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	previous, hadPrevious := tree.Get(layering.Merge(s.base, s.patch), path)
	s.patch = SetOverride(s.patch, path, value)
	patch := tree.CloneMapping(s.patch)
	s.mu.Unlock()

	var oldValue any
	if hadPrevious {
		oldValue = tree.ToAny(previous)
	}
	s.logger.Debug().Str("path", path).Msg("override set")
	s.emit(ctx, activity.BuildOverrideSetEvent(s.eventInput(path, oldValue, tree.ToAny(value))))
	s.notifyPreview(patch)
	return nil
}

// Remove deletes the override for path, reporting whether one existed.
func (s *Session) Remove(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	previous, ok := s.patch.Get(path)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.patch = RemoveOverride(s.patch, path)
	patch := tree.CloneMapping(s.patch)
	s.mu.Unlock()

	s.logger.Debug().Str("path", path).Msg("override removed")
	s.emit(ctx, activity.BuildOverrideRemovedEvent(s.eventInput(path, tree.ToAny(previous), nil)))
	s.notifyPreview(patch)
	return true, nil
}

// Replace swaps the whole working patch for a copy of patch.
func (s *Session) Replace(ctx context.Context, patch *tree.Mapping) error {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.patch = tree.CloneMapping(patch)
	snapshot := tree.CloneMapping(s.patch)
	s.mu.Unlock()

	s.logger.Debug().Int("overrides", snapshot.Len()).Msg("patch replaced")
	s.emit(ctx, activity.BuildPatchReplacedEvent(s.eventInput("", nil, nil)))
	s.notifyPreview(snapshot)
	return nil
}

// Discard resets the working patch to the last saved patch.
func (s *Session) Discard(ctx context.Context) error {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	wasDirty := s.tracker.IsDirty(s.patch)
	s.patch = s.tracker.Saved()
	snapshot := tree.CloneMapping(s.patch)
	s.mu.Unlock()

	if wasDirty {
		s.logger.Info().Msg("unsaved edits discarded")
		s.emit(ctx, activity.BuildPatchDiscardedEvent(s.eventInput("", nil, nil)))
	}
	s.notifyPreview(snapshot)
	return nil
}

// IsDirty reports whether the working patch differs from the saved one.
func (s *Session) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.IsDirty(s.patch)
}

// Stale reports whether the files behind the session changed since it was
// loaded or saved.
func (s *Session) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// MarkStale flags an external change, typically from a store.Watcher.
func (s *Session) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
	s.logger.Info().Msg("document changed outside the editor")
}

// Save writes the working patch. Stores implementing
// store.ConditionalWriter refuse the write when the patch file changed since
// it was read; the session is then marked stale and the error wraps
// store.ErrETagMismatch. The saved snapshot only advances on success.
func (s *Session) Save(ctx context.Context) (store.Meta, error) {
	s.mu.RLock()
	if err := s.editableLocked(); err != nil {
		s.mu.RUnlock()
		return store.Meta{}, err
	}
	snapshot := tree.CloneMapping(s.patch)
	etag := s.meta.ETag
	s.mu.RUnlock()

	meta, err := s.write(ctx, snapshot, etag)
	if err != nil {
		if errors.Is(err, store.ErrETagMismatch) {
			s.MarkStale()
		}
		s.logger.Error().Err(err).Msg("save failed")
		return store.Meta{}, fmt.Errorf("rimepatch: save %s: %w", s.name, err)
	}

	s.mu.Lock()
	s.tracker.Mark(snapshot)
	s.meta = meta
	s.stale = false
	s.mu.Unlock()

	s.logger.Info().Int("overrides", snapshot.Len()).Str("etag", meta.ETag).Msg("patch saved")
	input := s.eventInput("", nil, nil)
	if meta.ETag != "" {
		input.Metadata = map[string]any{"etag": meta.ETag}
	}
	s.emit(ctx, activity.BuildPatchSavedEvent(input))
	return meta, nil
}

func (s *Session) write(ctx context.Context, patch *tree.Mapping, etag string) (store.Meta, error) {
	if conditional, ok := s.store.(store.ConditionalWriter); ok {
		return conditional.WriteDocumentIf(ctx, s.name, patch, etag)
	}
	if err := s.store.WriteDocument(ctx, s.name, patch); err != nil {
		return store.Meta{}, err
	}
	return store.Meta{}, nil
}

// Deploy asks the input method to reload its configuration.
func (s *Session) Deploy(ctx context.Context) (store.DeployResult, error) {
	if s.isClosed() {
		return store.DeployResult{}, ErrClosed
	}
	result, err := s.cfg.deployer.Deploy(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("deploy failed")
		return result, fmt.Errorf("rimepatch: deploy: %w", err)
	}
	if result.Success {
		s.logger.Info().Str("message", result.Message).Msg("deployed")
	} else {
		s.logger.Error().Str("message", result.Message).Msg("deploy failed")
	}
	s.emit(ctx, activity.BuildConfigDeployedEvent(activity.ConfigEventInput{
		Document: s.name,
		Metadata: map[string]any{"success": result.Success, "message": result.Message},
	}))
	return result, nil
}

// SaveAndDeploy runs preflight checks, saves and deploys. Failed checks stop
// before anything is written. A failed save skips the deploy and reports
// SaveFailedMessage along with the save error.
func (s *Session) SaveAndDeploy(ctx context.Context) (store.DeployResult, error) {
	if s.cfg.checker != nil {
		report, err := s.Check()
		if err != nil {
			return store.DeployResult{Success: false, Message: err.Error()}, err
		}
		if !report.Passed() {
			s.logger.Warn().Str("failures", report.Summary()).Msg("preflight checks failed")
			return store.DeployResult{Success: false, Message: ChecksFailedMessage + ":\n" + report.Summary()}, nil
		}
	}
	if _, err := s.Save(ctx); err != nil {
		return store.DeployResult{Success: false, Message: SaveFailedMessage}, err
	}
	return s.Deploy(ctx)
}

// Check evaluates the configured preflight checks against the effective
// document. Without a checker the report is empty and passes.
func (s *Session) Check() (CheckReport, error) {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return CheckReport{}, ErrNotLoaded
	}
	effective := layering.Merge(s.base, s.patch)
	patch := tree.CloneMapping(s.patch)
	s.mu.RUnlock()
	return s.cfg.checker.Run(s.name, effective, patch), nil
}

// Preview serializes the working patch synchronously.
func (s *Session) Preview() (string, error) {
	return document.Serialize(s.Patch())
}

// LatestPreview returns the last debounced preview. Without a publisher it
// serializes synchronously.
func (s *Session) LatestPreview() (string, error) {
	if s.scheduler == nil {
		return s.Preview()
	}
	return s.scheduler.Latest(), nil
}

// Diff compares the saved patch with the working patch as rendered text.
func (s *Session) Diff() (Diff, error) {
	saved, err := document.Serialize(s.Saved())
	if err != nil {
		return Diff{}, err
	}
	current, err := s.Preview()
	if err != nil {
		return Diff{}, err
	}
	return DiffPreview(s.name+".custom.yaml", saved, current), nil
}

// Trace reports which layer supplies the effective value at path.
func (s *Session) Trace(path string) layering.Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return layering.TraceFor(s.base, s.patch, path)
}

// Query runs a JSONPath selector against the effective document.
func (s *Session) Query(selector string) ([]any, error) {
	return Query(s.Effective(), selector)
}

// Close cancels any pending preview. Later edits fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if s.scheduler != nil {
		s.scheduler.Close()
	}
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) editableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if !s.loaded {
		return ErrNotLoaded
	}
	return nil
}

func (s *Session) notifyPreview(patch *tree.Mapping) {
	if s.scheduler != nil {
		s.scheduler.Notify(patch)
	}
}
