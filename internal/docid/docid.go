// Package docid generates and validates document ids.
package docid

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"github.com/hyperjump/docrag/internal/models"
)

// MaxLength is the longest accepted caller-supplied id.
const MaxLength = 128

// New returns a random 8-character url-safe id built from 6 bytes of uuid randomness.
func New() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:6])
}

// NewUnique calls gen until exists reports the id as unused. A nil gen uses New.
func NewUnique(gen func() string, exists func(string) bool) string {
	if gen == nil {
		gen = New
	}
	for {
		id := gen()
		if !exists(id) {
			return id
		}
	}
}

// Validate checks a caller-supplied id. Ids appear in URL paths, so only
// letters, digits, '-', '_' and '.' are accepted.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("doc_id is empty: %w", models.ErrInvalidInput)
	}
	if len(id) > MaxLength {
		return fmt.Errorf("doc_id longer than %d characters: %w", MaxLength, models.ErrInvalidInput)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("doc_id %q is reserved: %w", id, models.ErrInvalidInput)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("doc_id contains invalid character %q: %w", r, models.ErrInvalidInput)
		}
	}
	return nil
}
