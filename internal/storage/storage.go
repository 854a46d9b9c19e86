// Package storage persists document and chunk metadata.
package storage

import (
	"context"
	"fmt"
)

// Backend kinds accepted by NewMetadataBackend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// MetadataBackend loads and saves the full metadata snapshot.
type MetadataBackend interface {
	// Load returns the stored metadata, or empty metadata if nothing is stored yet.
	Load(ctx context.Context) (*Metadata, error)
	// Save replaces the stored metadata with m.
	Save(ctx context.Context, m *Metadata) error
	// Location returns the file backing this store.
	Location() string
	Close() error
}

// NewMetadataBackend opens a backend of the given kind at path.
func NewMetadataBackend(kind, path string) (MetadataBackend, error) {
	switch kind {
	case BackendJSON, "":
		return NewJSONFileBackend(path), nil
	case BackendSQLite:
		return NewSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unknown metadata backend: %s (supported: json, sqlite)", kind)
	}
}
