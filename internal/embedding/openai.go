package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenAIBaseURL is used when no endpoint is configured for the OpenAI provider.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is the API base. For OpenAI: "https://api.openai.com/v1".
	// For Azure: the resource endpoint, e.g. "https://<resource>.openai.azure.com".
	BaseURL string
	APIKey  string
	// Model is the model name, or the deployment name on Azure.
	Model string
	// Dimensions is the expected vector length. Responses of another length are rejected.
	Dimensions int
	// RequestDimensions sends Dimensions in the request body, for models that
	// support shortened embeddings.
	RequestDimensions bool
	// Azure selects api-key auth and the deployments URL layout.
	Azure      bool
	APIVersion string
	Timeout    time.Duration
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// OpenAIEmbedder calls the OpenAI or Azure OpenAI embeddings REST API.
// It is safe for concurrent use.
type OpenAIEmbedder struct {
	url        string
	apiKey     string
	model      string
	dimensions int
	sendDims   bool
	azure      bool
	client     *http.Client
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive")
	}
	if cfg.Azure && cfg.BaseURL == "" {
		return nil, fmt.Errorf("azure embedding endpoint is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAIEmbedder{
		url:        embeddingsURL(cfg),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		sendDims:   cfg.RequestDimensions,
		azure:      cfg.Azure,
		client:     client,
	}, nil
}

func embeddingsURL(cfg OpenAIConfig) string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !cfg.Azure {
		if base == "" {
			base = DefaultOpenAIBaseURL
		}
		return base + "/embeddings"
	}
	if !strings.HasSuffix(base, "/openai") {
		base += "/openai"
	}
	return base + "/deployments/" + cfg.Model + "/embeddings?api-version=" + cfg.APIVersion
}

type embedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the embedding of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body := embedRequest{Input: []string{text}, Model: e.model}
	if e.sendDims {
		body.Dimensions = e.dimensions
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.azure {
		req.Header.Set("api-key", e.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var result embedResponse
	decodeErr := json.Unmarshal(data, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if decodeErr == nil && result.Error != nil {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("embeddings http %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(result.Data) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(result.Data))
	}
	emb := result.Data[0].Embedding
	if len(emb) != e.dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(emb), e.dimensions)
	}
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}
