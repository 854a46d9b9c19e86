package models

import "errors"

// Sentinel errors returned by the retrieval engine. Callers match them with errors.Is.
var (
	// ErrNotFound indicates an operation on an unknown doc_id.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateID indicates a caller-supplied doc_id is already indexed.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrDimensionMismatch indicates an embedding does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbedding indicates the upstream embedding call failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrCompletion indicates the upstream chat completion call failed.
	ErrCompletion = errors.New("completion failed")

	// ErrPersistence indicates a durable read or write failed.
	// After a failed write the in-memory index is ahead of disk.
	ErrPersistence = errors.New("persistence failed")

	// ErrInvalidInput indicates malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
)
