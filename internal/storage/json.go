package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/docrag/pkg/utils"
)

// JSONFileBackend stores metadata as a single JSON document.
type JSONFileBackend struct {
	path string
}

// NewJSONFileBackend returns a backend writing to path.
func NewJSONFileBackend(path string) *JSONFileBackend {
	return &JSONFileBackend{path: path}
}

// Load reads metadata from disk. A missing file yields empty metadata.
func (b *JSONFileBackend) Load(ctx context.Context) (*Metadata, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMetadata(), nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	m := NewMetadata()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", b.path, err)
	}
	m.normalize()
	return m, nil
}

// Save writes m to a temp file in the same directory and renames it over the target.
func (b *JSONFileBackend) Save(ctx context.Context, m *Metadata) error {
	return utils.WriteFileAtomic(b.path, 0644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	})
}

// Location returns the JSON file path.
func (b *JSONFileBackend) Location() string {
	return b.path
}

// Close is a no-op.
func (b *JSONFileBackend) Close() error {
	return nil
}
