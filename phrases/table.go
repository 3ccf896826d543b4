package phrases

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-rimepatch/dirty"
)

var (
	// ErrEntryNotFound reports an unknown entry ID.
	ErrEntryNotFound = errors.New("phrases: entry not found")
	// ErrEmptyField reports a phrase or code that is blank.
	ErrEmptyField = errors.New("phrases: phrase and code are required")
)

// Update carries the fields to change on an entry. Nil fields are left
// alone; ClearWeight removes the weight.
type Update struct {
	Phrase      *string `json:"phrase,omitempty"`
	Code        *string `json:"code,omitempty"`
	Weight      *int64  `json:"weight,omitempty"`
	ClearWeight bool    `json:"clear_weight,omitempty"`
}

// Table is the editing state of a phrase file alongside its last saved
// version. It is safe for concurrent use.
type Table struct {
	mu           sync.RWMutex
	header       string
	entries      []Entry
	savedHeader  string
	savedEntries []Entry
}

// NewTable returns a table loaded with data.
func NewTable(data Data) *Table {
	t := &Table{}
	t.Load(data)
	return t
}

// Load replaces both the working and saved state.
func (t *Table) Load(data Data) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.header = data.Header
	t.entries = cloneEntries(data.Entries)
	t.savedHeader = data.Header
	t.savedEntries = cloneEntries(data.Entries)
}

// Data returns a copy of the working state.
func (t *Table) Data() Data {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Data{Header: t.header, Entries: cloneEntries(t.entries)}
}

// SetHeader replaces the header.
func (t *Table) SetHeader(header string) {
	t.mu.Lock()
	t.header = header
	t.mu.Unlock()
}

// Add appends a new entry. Phrase and code are trimmed and must not be
// empty.
func (t *Table) Add(phrase, code string, weight *int64) (Entry, error) {
	phrase, code = strings.TrimSpace(phrase), strings.TrimSpace(code)
	if phrase == "" || code == "" {
		return Entry{}, ErrEmptyField
	}
	entry := Entry{ID: newID(), Phrase: phrase, Code: code}
	if weight != nil {
		w := *weight
		entry.Weight = &w
	}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
	return entry, nil
}

// Update applies changes to the entry with id.
func (t *Table) Update(id string, changes Update) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID != id {
			continue
		}
		entry := t.entries[i]
		if changes.Phrase != nil {
			entry.Phrase = *changes.Phrase
		}
		if changes.Code != nil {
			entry.Code = *changes.Code
		}
		switch {
		case changes.ClearWeight:
			entry.Weight = nil
		case changes.Weight != nil:
			w := *changes.Weight
			entry.Weight = &w
		}
		t.entries[i] = entry
		return entry, nil
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

// Remove deletes the entry with id.
func (t *Table) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

// Search returns entries whose phrase or code contains query. An empty
// query returns every entry.
func (t *Table) Search(query string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if query == "" {
		return cloneEntries(t.entries)
	}
	var out []Entry
	for _, entry := range t.entries {
		if strings.Contains(entry.Phrase, query) || strings.Contains(entry.Code, query) {
			out = append(out, entry)
		}
	}
	return cloneEntries(out)
}

// Len returns the number of working entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// IsDirty reports whether the header or any entry differs from the saved
// state. Reordering entries counts as a change.
func (t *Table) IsDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.header != t.savedHeader || !dirty.RecordsEqual(t.entries, t.savedEntries, Same)
}

// MarkSaved records the working state as saved.
func (t *Table) MarkSaved() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.savedHeader = t.header
	t.savedEntries = cloneEntries(t.entries)
}

// Reset discards working changes.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.header = t.savedHeader
	t.entries = cloneEntries(t.savedEntries)
}
