// Package cli provides output helpers for the docrag command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hyperjump/docrag/internal/models"
	"github.com/hyperjump/docrag/internal/storage"
	"github.com/hyperjump/docrag/pkg/utils"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// previewWords is how much of a chunk the text output shows.
const previewWords = 60

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// Status is the summary printed by the status command.
type Status struct {
	Documents       int                    `json:"documents"`
	Chunks          int                    `json:"chunks"`
	VectorIndexSize int                    `json:"vector_index_size"`
	Dirty           bool                   `json:"dirty"`
	DiskUsageBytes  *int64                 `json:"disk_usage_bytes,omitempty"`
	DiskUsage       *storage.DiskUsage     `json:"disk_usage,omitempty"`
	Config          map[string]interface{} `json:"config,omitempty"`
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	if !response.Found || len(response.Results) == 0 {
		fmt.Fprintln(w, "No relevant documents found.")
		return nil
	}
	fmt.Fprintf(w, "\nFound %d results\n\n", len(response.Results))
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Distance: %.4f | Source: %s\n", i+1, result.Score, result.Source)
		fmt.Fprintf(w, "\n%s\n\n", utils.TruncateWords(result.Text, previewWords))
	}
	return nil
}

// WriteDocuments writes the indexed documents to w.
func WriteDocuments(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, map[string]interface{}{"total": len(docs), "documents": docs})
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents indexed.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOC_ID\tFILENAME\tCHUNKS\tUPLOADED_AT")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.DocID, utils.Truncate(d.Filename, 48), len(d.ChunkIDs), d.UploadedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d document(s)\n", len(docs))
	return nil
}

// WriteAnswer writes an answer and its sources to w.
func WriteAnswer(w io.Writer, ans *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, ans)
	}
	fmt.Fprintln(w, ans.Answer)
	if len(ans.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, s := range ans.Sources {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	return nil
}

// WriteStatus writes index counts and configuration to w.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, s)
	}
	fmt.Fprintf(w, "documents:          %d   # count of indexed documents\n", s.Documents)
	fmt.Fprintf(w, "chunks:             %d   # count of text chunks\n", s.Chunks)
	fmt.Fprintf(w, "vector_index_size:  %d   # count of vectors in the index\n", s.VectorIndexSize)
	if s.Dirty {
		fmt.Fprintln(w, "dirty:              true   # last save failed; disk is behind memory")
	}
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # index + metadata + uploads on disk\n", *s.DiskUsageBytes)
	}
	if u := s.DiskUsage; u != nil {
		fmt.Fprintf(w, "  index:            %d\n", u.IndexBytes)
		fmt.Fprintf(w, "  metadata:         %d\n", u.MetadataBytes)
		fmt.Fprintf(w, "  uploads:          %d\n", u.UploadBytes)
	}
	if len(s.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		for _, key := range []string{
			"embedding_model", "embedding_dimensions", "chunk_size", "chunk_overlap",
			"metadata_backend", "index_path", "metadata_path",
		} {
			if v, ok := s.Config[key]; ok {
				fmt.Fprintf(w, "%-20s%v\n", key+":", v)
			}
		}
	}
	return nil
}
