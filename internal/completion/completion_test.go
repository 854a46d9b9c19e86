package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hyperjump/docrag/internal/models"
)

// fakeChatModel records the last input and returns a canned reply.
type fakeChatModel struct {
	reply string
	err   error
	got   []*schema.Message
	opts  int
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	f.opts = len(opts)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func TestChatCompleter_Complete(t *testing.T) {
	fake := &fakeChatModel{reply: "  Employees get 20 days.\n"}
	c := NewChatCompleter(fake, model.WithTemperature(0.3))

	got, err := c.Complete(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Employees get 20 days." {
		t.Errorf("got %q", got)
	}
	if len(fake.got) != 2 {
		t.Fatalf("sent %d messages, want 2", len(fake.got))
	}
	if fake.got[0].Role != schema.System || fake.got[0].Content != "system text" {
		t.Errorf("first message %+v", fake.got[0])
	}
	if fake.got[1].Role != schema.User || fake.got[1].Content != "user text" {
		t.Errorf("second message %+v", fake.got[1])
	}
	if fake.opts != 1 {
		t.Errorf("options passed=%d, want 1", fake.opts)
	}
}

func TestChatCompleter_Error(t *testing.T) {
	c := NewChatCompleter(&fakeChatModel{err: errors.New("429 too many requests")})
	_, err := c.Complete(context.Background(), "s", "u")
	if !errors.Is(err, models.ErrCompletion) {
		t.Errorf("expected ErrCompletion, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no key", Config{Provider: ProviderOpenAI, Model: "gpt-4o"}},
		{"no model", Config{Provider: ProviderOpenAI, APIKey: "k"}},
		{"azure without endpoint", Config{Provider: ProviderAzure, APIKey: "k", Model: "gpt-4o"}},
		{"unknown provider", Config{Provider: "bedrock", APIKey: "k", Model: "m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_Azure(t *testing.T) {
	c, err := New(context.Background(), Config{
		Provider:    ProviderAzure,
		BaseURL:     "https://example.openai.azure.com",
		APIKey:      "k",
		Model:       "gpt-4.1",
		APIVersion:  "2024-02-15-preview",
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		t.Fatal(err)
	}
	if c == nil {
		t.Fatal("nil completer")
	}
}
