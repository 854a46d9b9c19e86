package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/docrag/internal/models"
)

// SQLiteBackend stores metadata in a SQLite database.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteBackend{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		chunk_id INTEGER PRIMARY KEY,
		doc_id TEXT NOT NULL,
		text TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Load reads all documents and chunks. Chunk ids of each document are derived
// from the chunks table in id order.
func (s *SQLiteBackend) Load(ctx context.Context) (*Metadata, error) {
	m := NewMetadata()

	rows, err := s.db.QueryContext(ctx, `SELECT doc_id, filename, uploaded_at FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		doc := &models.Document{ChunkIDs: []int{}}
		if err := rows.Scan(&doc.DocID, &doc.Filename, &doc.UploadedAt); err != nil {
			return nil, err
		}
		m.Documents[doc.DocID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chunkRows, err := s.db.QueryContext(ctx, `SELECT chunk_id, doc_id, text FROM chunks ORDER BY chunk_id`)
	if err != nil {
		return nil, err
	}
	defer chunkRows.Close()
	for chunkRows.Next() {
		var c models.Chunk
		if err := chunkRows.Scan(&c.ChunkID, &c.DocID, &c.Text); err != nil {
			return nil, err
		}
		if c.ChunkID != len(m.Chunks) {
			return nil, fmt.Errorf("chunk ids not contiguous: got %d at position %d", c.ChunkID, len(m.Chunks))
		}
		m.Chunks = append(m.Chunks, &c)
		if doc, ok := m.Documents[c.DocID]; ok {
			doc.ChunkIDs = append(doc.ChunkIDs, c.ChunkID)
		}
	}
	return m, chunkRows.Err()
}

// Save replaces all rows with m inside one transaction.
func (s *SQLiteBackend) Save(ctx context.Context, m *Metadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return err
	}

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (doc_id, filename, uploaded_at) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer docStmt.Close()
	for _, doc := range m.Documents {
		if _, err := docStmt.ExecContext(ctx, doc.DocID, doc.Filename, doc.UploadedAt.UTC().Truncate(time.Microsecond)); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.DocID, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (chunk_id, doc_id, text) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()
	for _, c := range m.Chunks {
		if _, err := chunkStmt.ExecContext(ctx, c.ChunkID, c.DocID, c.Text); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ChunkID, err)
		}
	}
	return tx.Commit()
}

// Location returns the database file path.
func (s *SQLiteBackend) Location() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
