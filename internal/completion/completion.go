// Package completion generates chat completions through an eino ChatModel.
package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hyperjump/docrag/internal/models"
)

// Providers accepted by New.
const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
)

// Completer turns a system and user prompt into a single reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds chat model settings.
type Config struct {
	Provider string
	// BaseURL is the Azure endpoint, or an optional OpenAI-compatible base URL.
	BaseURL string
	APIKey  string
	// Model is the model name, or the deployment name on Azure.
	Model       string
	APIVersion  string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// ChatCompleter adapts an eino chat model to Completer.
type ChatCompleter struct {
	model model.BaseChatModel
	opts  []model.Option
}

// NewChatCompleter wraps m. opts are passed to every Generate call.
func NewChatCompleter(m model.BaseChatModel, opts ...model.Option) *ChatCompleter {
	return &ChatCompleter{model: m, opts: opts}
}

// New constructs the chat model described by cfg.
func New(ctx context.Context, cfg Config) (*ChatCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("completion model is required")
	}
	maxTokens := cfg.MaxTokens
	temperature := cfg.Temperature

	mc := &einoopenai.ChatModelConfig{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}
	switch cfg.Provider {
	case ProviderAzure, "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("azure endpoint is required")
		}
		mc.ByAzure = true
		mc.APIVersion = cfg.APIVersion
		// Deployment names such as "gpt-4.1" must be used as-is.
		mc.AzureModelMapperFunc = func(model string) string { return model }
	case ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unknown completion provider: %s (supported: azure, openai)", cfg.Provider)
	}

	cm, err := einoopenai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return NewChatCompleter(cm), nil
}

// Complete sends the prompts and returns the trimmed reply.
func (c *ChatCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	resp, err := c.model.Generate(ctx, msgs, c.opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCompletion, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", models.ErrCompletion)
	}
	return strings.TrimSpace(resp.Content), nil
}
