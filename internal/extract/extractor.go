// Package extract provides text extraction from uploaded documents.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/docrag/internal/models"
)

// Extractor extracts plain text from document files.
type Extractor struct {
	allowed map[string]bool
}

// DefaultExtensions are the formats accepted when no list is configured.
var DefaultExtensions = []string{".pdf", ".txt", ".md"}

// NewExtractor returns an Extractor accepting the given extensions.
// With no extensions, DefaultExtensions are used.
func NewExtractor(extensions ...string) *Extractor {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[normalizeExt(ext)] = true
	}
	return &Extractor{allowed: allowed}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Supports reports whether files with ext can be extracted.
func (e *Extractor) Supports(ext string) bool {
	ext = normalizeExt(ext)
	if !e.allowed[ext] {
		return false
	}
	switch ext {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !e.Supports(ext) {
		return "", fmt.Errorf("unsupported file type %q: %w", ext, models.ErrInvalidInput)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = normalizeExt(ext)
	if !e.Supports(ext) {
		return "", fmt.Errorf("unsupported file type %q: %w", ext, models.ErrInvalidInput)
	}
	switch ext {
	case ".pdf":
		text, err := extractPDF(content)
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		return text, nil
	default:
		return extractPlain(content)
	}
}
