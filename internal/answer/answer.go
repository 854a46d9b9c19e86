// Package answer answers questions from the indexed documents.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/docrag/internal/completion"
	"github.com/hyperjump/docrag/internal/models"
)

// NoInformation is returned when the index holds nothing to answer from.
const NoInformation = "I couldn't find any relevant information in the company documents to answer this question."

// DefaultTopK is the number of chunks given to the model.
const DefaultTopK = 1

// Searcher is the retrieval side of the tool.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) (*models.SearchResponse, error)
}

// Tool retrieves chunks for a question and asks a Completer to answer from them.
type Tool struct {
	searcher  Searcher
	completer completion.Completer
	topK      int
	logger    *zap.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(t *Tool) {
		if k > 0 {
			t.topK = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tool) { t.logger = l }
}

// NewTool returns a Tool over searcher and completer.
func NewTool(searcher Searcher, completer completion.Completer, opts ...Option) *Tool {
	t := &Tool{
		searcher:  searcher,
		completer: completer,
		topK:      DefaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Answer searches for question and generates an answer grounded on the hits.
// Sources lists each distinct filename once, in retrieval order.
func (t *Tool) Answer(ctx context.Context, question string) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is empty: %w", models.ErrInvalidInput)
	}
	resp, err := t.searcher.Search(ctx, question, t.topK)
	if err != nil {
		return nil, err
	}
	if !resp.Found || len(resp.Results) == 0 {
		return &models.Answer{Answer: NoInformation, Sources: []string{}}, nil
	}

	text, err := t.completer.Complete(ctx, SystemPrompt, UserPrompt(BuildContext(resp.Results), question))
	if err != nil {
		return nil, err
	}
	sources := Sources(resp.Results)
	t.logger.Debug("answered question",
		zap.Int("chunks", len(resp.Results)),
		zap.Strings("sources", sources))
	return &models.Answer{Answer: text, Sources: sources}, nil
}

// BuildContext renders results as "[From source]\ntext" blocks separated by blank lines.
func BuildContext(results []*models.SearchResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[From %s]\n%s", r.Source, r.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// Sources returns the distinct sources of results in first-seen order.
func Sources(results []*models.SearchResult) []string {
	seen := make(map[string]bool, len(results))
	out := make([]string, 0, len(results))
	for _, r := range results {
		if seen[r.Source] {
			continue
		}
		seen[r.Source] = true
		out = append(out, r.Source)
	}
	return out
}
