package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-rimepatch/document"
	"github.com/goliatone/go-rimepatch/phrases"
	"github.com/goliatone/go-rimepatch/pkg/rime"
	"github.com/goliatone/go-rimepatch/tree"
)

const (
	backupSuffix = ".bak"
	tempInfix    = ".tmp."
)

// FileStore reads and writes Rime files in a user configuration directory:
// <name>.yaml or <name>.schema.yaml for the base, <name>.custom.yaml for the
// patch, and custom_phrase.txt. Writes go to a temporary file that is renamed
// into place, after copying the previous file to a .bak sibling.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
	// written holds the hash of the last text this store wrote, per file.
	written map[string]string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now, written: make(map[string]string)}
}

// Dir returns the configuration directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the absolute path of a file in the configuration directory.
func (s *FileStore) Path(file string) string {
	return filepath.Join(s.dir, file)
}

func (s *FileStore) ReadDocument(_ context.Context, name string) (Document, error) {
	if err := ValidateName(name); err != nil {
		return Document{}, err
	}
	doc := emptyDocument(name)

	baseText, _, err := s.readFile(rime.BaseFileName(name))
	if err != nil {
		return Document{}, err
	}
	if baseText != "" {
		parse := document.Parse
		if name == rime.SquirrelDocument || name == rime.WeaselDocument {
			parse = document.ParseWithColors
		}
		base, err := parse(baseText)
		if err != nil {
			return Document{}, fmt.Errorf("store: read %s: %w", rime.BaseFileName(name), err)
		}
		doc.Base = base
	}

	patchText, info, err := s.readFile(rime.CustomFileName(name))
	if err != nil {
		return Document{}, err
	}
	if info != nil {
		patch, err := document.ParsePatch(patchText)
		if err != nil {
			return Document{}, fmt.Errorf("store: read %s: %w", rime.CustomFileName(name), err)
		}
		doc.Patch = patch
		doc.Meta = Meta{ETag: etagOf(patchText), UpdatedAt: info.ModTime()}
	} else {
		doc.Meta = Meta{ETag: AbsentETag}
	}
	return doc, nil
}

func (s *FileStore) WriteDocument(ctx context.Context, name string, patch *tree.Mapping) error {
	_, err := s.WriteDocumentIf(ctx, name, patch, "")
	return err
}

func (s *FileStore) WriteDocumentIf(_ context.Context, name string, patch *tree.Mapping, etag string) (Meta, error) {
	if err := ValidateName(name); err != nil {
		return Meta{}, err
	}
	text, err := document.Serialize(patch)
	if err != nil {
		return Meta{}, fmt.Errorf("store: serialize %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := rime.CustomFileName(name)
	if etag != "" {
		current, info, err := s.readFile(file)
		if err != nil {
			return Meta{}, err
		}
		currentMeta := Meta{ETag: AbsentETag}
		if info != nil {
			currentMeta = Meta{ETag: etagOf(current), UpdatedAt: info.ModTime()}
		}
		if currentMeta.ETag != etag {
			return currentMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, etag, currentMeta.ETag)
		}
	}
	if err := s.writeAtomic(file, text); err != nil {
		return Meta{}, err
	}
	return Meta{ETag: etagOf(text), UpdatedAt: s.now()}, nil
}

func (s *FileStore) ReadPhrases(context.Context) (phrases.Data, error) {
	text, info, err := s.readFile(phrases.FileName)
	if err != nil {
		return phrases.Data{}, err
	}
	if info == nil {
		return phrases.Data{Header: phrases.DefaultHeader}, nil
	}
	return phrases.Parse(text), nil
}

func (s *FileStore) WritePhrases(_ context.Context, data phrases.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(phrases.FileName, phrases.Serialize(data))
}

// ListSchemas parses every *.schema.yaml in the directory. Files that cannot
// be read or carry no schema id are skipped. Results are sorted by id.
func (s *FileStore) ListSchemas(context.Context) ([]rime.SchemaMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []rime.SchemaMetadata{}, nil
		}
		return nil, fmt.Errorf("store: list schemas: %w", err)
	}
	out := []rime.SchemaMetadata{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".schema.yaml") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		doc, err := document.Parse(string(raw))
		if err != nil {
			continue
		}
		if meta, ok := rime.ParseSchemaMetadata(doc); ok {
			out = append(out, meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaID < out[j].SchemaID })
	return out, nil
}

// Installation reads installation.yaml. It reports false when the file is
// missing.
func (s *FileStore) Installation(context.Context) (rime.InstallationInfo, bool, error) {
	text, info, err := s.readFile("installation.yaml")
	if err != nil || info == nil {
		return rime.InstallationInfo{}, false, err
	}
	doc, err := document.Parse(text)
	if err != nil {
		return rime.InstallationInfo{}, false, fmt.Errorf("store: read installation.yaml: %w", err)
	}
	installation, err := rime.DecodeInstallation(doc)
	if err != nil {
		return rime.InstallationInfo{}, false, err
	}
	return installation, true, nil
}

// readFile returns the file's text and info, or a nil info when the file
// does not exist.
func (s *FileStore) readFile(file string) (string, os.FileInfo, error) {
	path := s.Path(file)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("store: stat %s: %w", file, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("store: read %s: %w", file, err)
	}
	return string(raw), info, nil
}

func (s *FileStore) writeAtomic(file, text string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}
	path := s.Path(file)
	if previous, err := os.ReadFile(path); err == nil {
		// best effort, a failed backup does not block the write
		_ = os.WriteFile(path+backupSuffix, previous, 0o644)
	}

	tmpPath := path + tempInfix + strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := os.WriteFile(tmpPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: rename temp file: %w", err)
	}
	s.written[file] = etagOf(text)
	return nil
}

// Written reports whether path, a file in the configuration directory, still
// holds exactly what this store last wrote to it. Watchers use it to skip the
// events of the store's own writes.
func (s *FileStore) Written(path string) bool {
	file := filepath.Base(path)
	s.mu.Lock()
	tag, ok := s.written[file]
	s.mu.Unlock()
	if !ok {
		return false
	}
	raw, err := os.ReadFile(s.Path(file))
	if err != nil {
		return false
	}
	return etagOf(string(raw)) == tag
}

func etagOf(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}
