package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/docrag/internal/extract"
	"github.com/hyperjump/docrag/internal/models"
)

// IngestFile extracts the text of the file at path and adds it as a document
// named after the file's base name. docID may be empty.
func (e *Engine) IngestFile(ctx context.Context, ex *extract.Extractor, path, docID string) (*models.AddResult, error) {
	e.logger.Debug("ingesting file", zap.String("path", path))
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s: %w", path, models.ErrInvalidInput)
	}
	text, err := ex.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	return e.AddDocument(ctx, &models.DocumentInput{
		ID:       docID,
		Filename: filepath.Base(path),
		Content:  text,
	})
}

// IngestDirectory walks dir recursively and ingests each regular file the
// extractor supports. Files are added with generated ids. It stops at the
// first error and returns the results collected so far.
func (e *Engine) IngestDirectory(ctx context.Context, ex *extract.Extractor, dir string) ([]*models.AddResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}
	var results []*models.AddResult
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != absDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !ex.Supports(filepath.Ext(path)) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, err := e.IngestFile(ctx, ex, path, "")
		if res != nil {
			results = append(results, res)
		}
		return err
	})
	return results, err
}
