package indexer

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestChunker_Chunk(t *testing.T) {
	c := mustChunker(t, 3, 1)
	chunks := c.Chunk("one two three four five six seven")
	want := []string{
		"one two three",
		"three four five",
		"five six seven",
		"seven",
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %q, want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	c := mustChunker(t, 5, 1)
	if chunks := c.Chunk("   \n\t  "); chunks != nil {
		t.Errorf("empty text should return nil, got %v", chunks)
	}
}

func TestChunker_DefaultWindows(t *testing.T) {
	c := mustChunker(t, DefaultChunkSize, DefaultChunkOverlap)
	tests := []struct {
		words  int
		chunks int
	}{
		{1, 1},
		{450, 1},
		{451, 2},
		{500, 2},
		{900, 2},
		{901, 3},
		{1000, 3},
		{1351, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d words", tt.words), func(t *testing.T) {
			chunks := c.Chunk(words(tt.words))
			if len(chunks) != tt.chunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.chunks)
			}
			for i, ch := range chunks {
				fields := strings.Fields(ch)
				if len(fields) > DefaultChunkSize {
					t.Errorf("chunk %d has %d words", i, len(fields))
				}
				if first := fmt.Sprintf("w%d", i*450); fields[0] != first {
					t.Errorf("chunk %d starts at %s, want %s", i, fields[0], first)
				}
				if i > 0 {
					prev := strings.Fields(chunks[i-1])
					if len(prev) == DefaultChunkSize {
						shared := strings.Join(prev[450:], " ")
						if !strings.HasPrefix(ch, shared) {
							t.Errorf("chunk %d does not start with the 50-word overlap", i)
						}
					}
				}
			}
		})
	}
}

func TestChunker_ThousandWords(t *testing.T) {
	c := mustChunker(t, DefaultChunkSize, DefaultChunkOverlap)
	chunks := c.Chunk(words(1000))
	sizes := []int{500, 500, 100}
	for i, ch := range chunks {
		if n := len(strings.Fields(ch)); n != sizes[i] {
			t.Errorf("chunk %d has %d words, want %d", i, n, sizes[i])
		}
	}
}

func TestChunker_NormalizesWhitespace(t *testing.T) {
	c := mustChunker(t, 10, 2)
	chunks := c.Chunk("  a\tb\n\nc   d ")
	if len(chunks) != 1 || chunks[0] != "a b c d" {
		t.Errorf("got %q", chunks)
	}
}

func TestNewChunker_Invalid(t *testing.T) {
	for _, tt := range []struct{ size, overlap int }{{0, 0}, {10, 10}, {10, 11}, {10, -1}} {
		if _, err := NewChunker(tt.size, tt.overlap); err == nil {
			t.Errorf("NewChunker(%d, %d) should fail", tt.size, tt.overlap)
		}
	}
}
