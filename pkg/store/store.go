// Package store defines where documents, patches and phrase tables are read
// from and written to, and how Rime is told to reload them.
//
// Store implementations only move bytes and trees; merging, dirty tracking
// and previews stay in the engine packages. A Document carries the parsed
// base and patch for one document name (default, squirrel, or a schema id)
// plus storage-owned metadata for optimistic concurrency.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-rimepatch/phrases"
	"github.com/goliatone/go-rimepatch/pkg/rime"
	"github.com/goliatone/go-rimepatch/tree"
)

var ErrNotFound = errors.New("store: document not found")

var ErrETagMismatch = errors.New("store: etag mismatch")

var ErrInvalidName = errors.New("store: invalid document name")

// Meta is storage-owned metadata used for change detection.
type Meta struct {
	ETag      string    `json:"etag,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Document is one base document and its patch.
type Document struct {
	Name  string
	Base  *tree.Mapping
	Patch *tree.Mapping
	Meta  Meta
}

// Store reads documents and writes patches. A document whose files do not
// exist reads as empty base and patch rather than failing.
type Store interface {
	ReadDocument(ctx context.Context, name string) (Document, error)
	WriteDocument(ctx context.Context, name string, patch *tree.Mapping) error
}

// AbsentETag is the etag of a patch file that does not exist. Writing with it
// fails when the file has been created since it was read.
const AbsentETag = "absent"

// ConditionalWriter is implemented by stores that can refuse a write when the
// patch changed on disk since it was read. An empty etag writes
// unconditionally.
type ConditionalWriter interface {
	WriteDocumentIf(ctx context.Context, name string, patch *tree.Mapping, etag string) (Meta, error)
}

// PhraseStore reads and writes the custom phrase table.
type PhraseStore interface {
	ReadPhrases(ctx context.Context) (phrases.Data, error)
	WritePhrases(ctx context.Context, data phrases.Data) error
}

// SchemaLister discovers installed schemas.
type SchemaLister interface {
	ListSchemas(ctx context.Context) ([]rime.SchemaMetadata, error)
}

// DeployResult reports the outcome of a reload request.
type DeployResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Deployer asks the input method to reload its configuration. A reload that
// ran but failed is reported through DeployResult, not the error, which is
// reserved for cancellation and misconfiguration.
type Deployer interface {
	Deploy(ctx context.Context) (DeployResult, error)
}

// NoopDeployer reports success without doing anything.
type NoopDeployer struct{}

func (NoopDeployer) Deploy(context.Context) (DeployResult, error) {
	return DeployResult{Success: true, Message: "deploy skipped"}, nil
}

// ValidateName rejects names that could escape the configuration directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	for _, r := range name {
		switch r {
		case '/', '\\', 0:
			return ErrInvalidName
		}
	}
	return nil
}

func emptyDocument(name string) Document {
	return Document{Name: name, Base: tree.NewMapping(), Patch: tree.NewMapping()}
}
