package docid

import (
	"errors"
	"testing"

	"github.com/hyperjump/docrag/internal/models"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if len(id) != 8 {
			t.Fatalf("len(%q)=%d, want 8", id, len(id))
		}
		if err := Validate(id); err != nil {
			t.Fatalf("generated id %q fails validation: %v", id, err)
		}
		seen[id] = true
	}
	if len(seen) < 990 {
		t.Errorf("too many collisions: %d unique of 1000", len(seen))
	}
}

func TestNewUnique(t *testing.T) {
	calls := 0
	id := NewUnique(nil, func(string) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Errorf("exists called %d times, want 3", calls)
	}
	if id == "" {
		t.Error("empty id")
	}
}

func TestNewUnique_customGenerator(t *testing.T) {
	ids := []string{"taken", "also-taken", "free"}
	next := 0
	gen := func() string {
		id := ids[next]
		next++
		return id
	}
	used := map[string]bool{"taken": true, "also-taken": true}
	if got := NewUnique(gen, func(id string) bool { return used[id] }); got != "free" {
		t.Errorf("got %q, want free", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"d1", true},
		{"report-2024_v1.2", true},
		{"", false},
		{"a/b", false},
		{"has space", false},
		{"..", false},
		{"ümlaut", false},
		{string(make([]byte, MaxLength+1)), false},
	}
	for _, tt := range tests {
		err := Validate(tt.id)
		if tt.valid && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tt.id, err)
		}
		if !tt.valid && !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidInput", tt.id, err)
		}
	}
}
