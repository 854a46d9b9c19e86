// Package models defines core data structures for documents, chunks, and search results.
package models

import "time"

// Document is an indexed document. ChunkIDs are positions in the vector index
// and change whenever another document is deleted.
type Document struct {
	DocID      string    `json:"doc_id" db:"doc_id"`
	Filename   string    `json:"filename" db:"filename"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
	ChunkIDs   []int     `json:"chunk_ids" db:"-"`
}

// Chunk is a word window of a document. ChunkID equals its position in the vector index.
type Chunk struct {
	DocID   string `json:"doc_id" db:"doc_id"`
	ChunkID int    `json:"chunk_id" db:"chunk_id"`
	Text    string `json:"text" db:"text"`
}

// DocumentInput is the input for adding a document.
type DocumentInput struct {
	ID       string `json:"doc_id,omitempty"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// AddResult is returned after a document has been indexed.
type AddResult struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunks"`
}

// IndexStats summarizes the current index.
type IndexStats struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	VectorSize int `json:"vector_index_size"`
	Dimensions int `json:"dimensions"`
}
