package outreach

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/lead-cli/pkg/anthropic"
)

// Provider completes a single system + user prompt pair.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Generation settings shared by every provider.
const (
	Temperature = 0.7
	MaxTokens   = 1000
)

// DefaultOpenAIModel is used when no model is configured for OpenAI.
const DefaultOpenAIModel = openai.GPT3Dot5Turbo

// AnthropicProvider drafts through the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
	ttl    string
}

// NewAnthropicProvider wraps client. An empty model uses anthropic.DefaultModel.
// The system prompt is sent with a cache breakpoint of the given ttl.
func NewAnthropicProvider(client anthropic.Client, model, cacheTTL string) *AnthropicProvider {
	if model == "" {
		model = anthropic.DefaultModel
	}
	return &AnthropicProvider{client: client, model: model, ttl: cacheTTL}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	temp := Temperature
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(system, p.ttl),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "outreach: anthropic message")
	}
	if resp == nil {
		return "", eris.New("outreach: anthropic returned no message")
	}
	resp.Usage.LogCost(resp.Model, "outreach")
	return resp.Text(), nil
}

// OpenAIProvider drafts through the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. baseURL overrides the API
// endpoint when set.
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, eris.New("outreach: openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "outreach: openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("outreach: openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
