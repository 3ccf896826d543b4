package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goliatone/go-rimepatch/phrases"
	"github.com/goliatone/go-rimepatch/tree"
)

// MemoryStore is an in-memory Store for tests and examples. Every write bumps
// the document's etag.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]memoryRecord
	phrases  phrases.Data
	writeErr error
	writes   int
	now      func() time.Time
}

type memoryRecord struct {
	base    *tree.Mapping
	patch   *tree.Mapping
	version int
	updated time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string]memoryRecord{},
		phrases: phrases.Data{Header: phrases.DefaultHeader},
		now:     time.Now,
	}
}

// SetBase stores a base document.
func (s *MemoryStore) SetBase(name string, base *tree.Mapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[name]
	record.base = tree.CloneMapping(base)
	s.records[name] = record
}

// SetPatch stores a patch as if it had been edited outside the store.
func (s *MemoryStore) SetPatch(name string, patch *tree.Mapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[name]
	record.patch = tree.CloneMapping(patch)
	record.version++
	record.updated = s.now()
	s.records[name] = record
}

// FailWrites makes subsequent writes fail with err. A nil err restores
// normal behaviour.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// Writes returns how many patch writes succeeded.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *MemoryStore) ReadDocument(_ context.Context, name string) (Document, error) {
	if err := ValidateName(name); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	record, ok := s.records[name]
	s.mu.RUnlock()
	if !ok {
		return emptyDocument(name), nil
	}
	return Document{
		Name:  name,
		Base:  tree.CloneMapping(record.base),
		Patch: tree.CloneMapping(record.patch),
		Meta:  record.meta(),
	}, nil
}

func (s *MemoryStore) WriteDocument(ctx context.Context, name string, patch *tree.Mapping) error {
	_, err := s.WriteDocumentIf(ctx, name, patch, "")
	return err
}

func (s *MemoryStore) WriteDocumentIf(_ context.Context, name string, patch *tree.Mapping, etag string) (Meta, error) {
	if err := ValidateName(name); err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return Meta{}, fmt.Errorf("store: write %q: %w", name, s.writeErr)
	}
	record := s.records[name]
	if current := record.meta().ETag; etag != "" && current != "" && etag != current {
		return record.meta(), fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, etag, current)
	}
	record.patch = tree.CloneMapping(patch)
	record.version++
	record.updated = s.now()
	s.records[name] = record
	s.writes++
	return record.meta(), nil
}

func (s *MemoryStore) ReadPhrases(context.Context) (phrases.Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return phrases.Data{Header: s.phrases.Header, Entries: append([]phrases.Entry(nil), s.phrases.Entries...)}, nil
}

func (s *MemoryStore) WritePhrases(_ context.Context, data phrases.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return fmt.Errorf("store: write phrases: %w", s.writeErr)
	}
	s.phrases = phrases.Data{Header: data.Header, Entries: append([]phrases.Entry(nil), data.Entries...)}
	return nil
}

func (r memoryRecord) meta() Meta {
	if r.version == 0 {
		return Meta{}
	}
	return Meta{ETag: "v" + strconv.Itoa(r.version), UpdatedAt: r.updated}
}
