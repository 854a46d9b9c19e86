package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func embeddingServer(t *testing.T, dims int, check func(r *http.Request, body embedRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body embedRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if check != nil {
			check(r, body)
		}
		vec := make([]float32, dims)
		vec[0] = 1
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": vec, "index": 0}},
		})
	}))
}

func TestOpenAIEmbedder_OpenAI(t *testing.T) {
	srv := embeddingServer(t, 4, func(r *http.Request, body embedRequest) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization=%q", got)
		}
		if body.Model != "text-embedding-3-small" || len(body.Input) != 1 || body.Input[0] != "hello" {
			t.Errorf("body=%+v", body)
		}
		if body.Dimensions != 0 {
			t.Errorf("dimensions should be omitted, got %d", body.Dimensions)
		}
	})
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Model: "text-embedding-3-small", Dimensions: 4})
	if err != nil {
		t.Fatal(err)
	}
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 4 || vec[0] != 1 {
		t.Errorf("vec=%v", vec)
	}
}

func TestOpenAIEmbedder_Azure(t *testing.T) {
	srv := embeddingServer(t, 3, func(r *http.Request, body embedRequest) {
		if r.URL.Path != "/openai/deployments/emb-large/embeddings" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if v := r.URL.Query().Get("api-version"); v != "2024-02-15-preview" {
			t.Errorf("api-version=%q", v)
		}
		if got := r.Header.Get("api-key"); got != "azure-key" {
			t.Errorf("api-key=%q", got)
		}
		if body.Dimensions != 3 {
			t.Errorf("dimensions=%d, want 3", body.Dimensions)
		}
	})
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{
		BaseURL:           srv.URL + "/",
		APIKey:            "azure-key",
		Model:             "emb-large",
		Dimensions:        3,
		RequestDimensions: true,
		Azure:             true,
		APIVersion:        "2024-02-15-preview",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
}

func TestOpenAIEmbedder_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	e, _ := NewOpenAIEmbedder(OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", Dimensions: 2})
	_, err := e.Embed(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected rate limited error, got %v", err)
	}
}

func TestOpenAIEmbedder_WrongDimensions(t *testing.T) {
	srv := embeddingServer(t, 5, nil)
	defer srv.Close()

	e, _ := NewOpenAIEmbedder(OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", Dimensions: 3})
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Error("expected dimension error")
	}
}

func TestNewOpenAIEmbedder_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  OpenAIConfig
	}{
		{"no key", OpenAIConfig{Model: "m", Dimensions: 3}},
		{"no model", OpenAIConfig{APIKey: "k", Dimensions: 3}},
		{"no dims", OpenAIConfig{APIKey: "k", Model: "m"}},
		{"azure no endpoint", OpenAIConfig{APIKey: "k", Model: "m", Dimensions: 3, Azure: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOpenAIEmbedder(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
