package storage

import (
	"sort"

	"github.com/hyperjump/docrag/internal/models"
)

// Metadata maps documents to their chunks. The chunk at index i of Chunks has
// ChunkID i once Renumber has run.
type Metadata struct {
	Documents map[string]*models.Document `json:"documents"`
	Chunks    []*models.Chunk             `json:"chunks"`
}

// NewMetadata returns empty metadata.
func NewMetadata() *Metadata {
	return &Metadata{
		Documents: make(map[string]*models.Document),
		Chunks:    make([]*models.Chunk, 0),
	}
}

// PutDocument inserts or replaces a document.
func (m *Metadata) PutDocument(doc *models.Document) {
	m.Documents[doc.DocID] = doc
}

// GetDocument returns the document with docID, or nil.
func (m *Metadata) GetDocument(docID string) (*models.Document, bool) {
	doc, ok := m.Documents[docID]
	return doc, ok
}

// RemoveDocument deletes the document entry only; chunks are left in place.
func (m *Metadata) RemoveDocument(docID string) {
	delete(m.Documents, docID)
}

// ListDocuments returns all documents ordered by upload time, then doc_id.
func (m *Metadata) ListDocuments() []*models.Document {
	docs := make([]*models.Document, 0, len(m.Documents))
	for _, d := range m.Documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].DocID < docs[j].DocID
	})
	return docs
}

// ChunkCount returns the number of chunks.
func (m *Metadata) ChunkCount() int {
	return len(m.Chunks)
}

// AppendChunks appends texts as chunks of docID and returns their ids, which
// are contiguous starting at the previous chunk count.
func (m *Metadata) AppendChunks(docID string, texts []string) []int {
	ids := make([]int, 0, len(texts))
	for _, text := range texts {
		id := len(m.Chunks)
		m.Chunks = append(m.Chunks, &models.Chunk{DocID: docID, ChunkID: id, Text: text})
		ids = append(ids, id)
	}
	return ids
}

// RemoveDocumentChunks drops every chunk of docID and returns how many were
// removed. Remaining chunks keep their old ids until Renumber.
func (m *Metadata) RemoveDocumentChunks(docID string) int {
	kept := m.Chunks[:0:0]
	removed := 0
	for _, c := range m.Chunks {
		if c.DocID == docID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	m.Chunks = kept
	return removed
}

// Renumber sets each chunk's id to its position and recomputes every
// document's ChunkIDs.
func (m *Metadata) Renumber() {
	for _, d := range m.Documents {
		d.ChunkIDs = []int{}
	}
	for i, c := range m.Chunks {
		c.ChunkID = i
		if d, ok := m.Documents[c.DocID]; ok {
			d.ChunkIDs = append(d.ChunkIDs, i)
		}
	}
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	out := &Metadata{
		Documents: make(map[string]*models.Document, len(m.Documents)),
		Chunks:    make([]*models.Chunk, len(m.Chunks)),
	}
	for id, d := range m.Documents {
		cp := *d
		cp.ChunkIDs = append([]int{}, d.ChunkIDs...)
		out.Documents[id] = &cp
	}
	for i, c := range m.Chunks {
		cp := *c
		out.Chunks[i] = &cp
	}
	return out
}

func (m *Metadata) normalize() {
	if m.Documents == nil {
		m.Documents = make(map[string]*models.Document)
	}
	if m.Chunks == nil {
		m.Chunks = make([]*models.Chunk, 0)
	}
	for _, d := range m.Documents {
		if d.ChunkIDs == nil {
			d.ChunkIDs = []int{}
		}
	}
}
