package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/pkg/anthropic"
	anthropicmocks "github.com/sells-group/lead-cli/pkg/anthropic/mocks"
)

const sampleReply = `COLD_EMAIL_SUBJECT:
Quick idea for Joe's Pizza

COLD_EMAIL_BODY:
Hi Joe,

Loved the reviews on your margherita.

Best,
Sam

VOICEMAIL:
Hi, this is Sam calling for Joe's Pizza.

SMS:
Hi Joe, Sam here. Got 5 min this week?`

func joes() model.Lead {
	return model.Lead{
		Business: model.Business{
			Name:     "Joe's Pizza",
			Category: "Pizza restaurant",
			Address:  model.Address{City: "Austin", Formatted: "1 Main St, Austin, TX 78701"},
		},
		Online:  model.Online{Website: "https://joespizza.com"},
		Signals: model.Signals{Reviews: model.Reviews{Rating: 4.5, ReviewCount: 120}},
	}
}

type fakeProvider struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls.Add(1)
	return f.reply, f.err
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(joes(), Sender{CompanyName: "Acme SEO", ServiceOffering: "local SEO"})

	assert.Contains(t, p, "Generate personalized outreach content for a Pizza restaurant business:")
	assert.Contains(t, p, "Business: Joe's Pizza\n")
	assert.Contains(t, p, "Location: Austin\n")
	assert.Contains(t, p, "Has Website: Yes\n")
	assert.Contains(t, p, "Rating: 4.5/5 (120 reviews)\n")
	assert.Contains(t, p, "Your company: Acme SEO\n")
	assert.Contains(t, p, "Your offering: local SEO\n")
	assert.Contains(t, p, "COLD_EMAIL_SUBJECT:\n[subject line]")
}

func TestBuildPrompt_Defaults(t *testing.T) {
	l := joes()
	l.Business.Address.City = ""
	l.Online.Website = ""
	l.Signals.Reviews = model.Reviews{}

	p := BuildPrompt(l, Sender{})
	assert.Contains(t, p, "Location: 1 Main St, Austin, TX 78701\n")
	assert.Contains(t, p, "Has Website: No\n")
	assert.Contains(t, p, "Rating: Unknown\n")
	assert.Contains(t, p, "Your company: [Your Company]\n")
	assert.Contains(t, p, "Your offering: digital marketing services\n")
}

func TestBuildPrompt_WholeRating(t *testing.T) {
	l := joes()
	l.Signals.Reviews = model.Reviews{Rating: 5, ReviewCount: 3}
	assert.Contains(t, BuildPrompt(l, Sender{}), "Rating: 5/5 (3 reviews)\n")
}

func TestParseResponse(t *testing.T) {
	ai := ParseResponse(sampleReply)

	assert.Equal(t, "Subject: Quick idea for Joe's Pizza\n\nHi Joe,\n\nLoved the reviews on your margherita.\n\nBest,\nSam", ai.ColdEmail)
	assert.Equal(t, "Hi, this is Sam calling for Joe's Pizza.", ai.Voicemail)
	assert.Equal(t, "Hi Joe, Sam here. Got 5 min this week?", ai.SMS)
}

func TestParseResponse_InlineAndMarkdownHeaders(t *testing.T) {
	ai := ParseResponse("**COLD_EMAIL_SUBJECT:** Hello\r\n**COLD_EMAIL_BODY:**\r\nBody text\r\n## SMS: Short one")

	assert.Equal(t, "Subject: Hello\n\nBody text", ai.ColdEmail)
	assert.Empty(t, ai.Voicemail)
	assert.Equal(t, "Short one", ai.SMS)
}

func TestParseResponse_MissingBodyDropsEmail(t *testing.T) {
	ai := ParseResponse("COLD_EMAIL_SUBJECT:\nHello\n\nVOICEMAIL:\nCall me")
	assert.Empty(t, ai.ColdEmail)
	assert.Equal(t, "Call me", ai.Voicemail)
}

func TestParseResponse_Garbage(t *testing.T) {
	assert.Equal(t, model.AI{}, ParseResponse("Sorry, I can't help with that."))
	assert.Equal(t, model.AI{}, ParseResponse(""))
}

func TestDrafter_Draft(t *testing.T) {
	p := &fakeProvider{reply: sampleReply}
	d := NewDrafter(p, true, Sender{})

	ai, err := d.Draft(context.Background(), joes())
	require.NoError(t, err)
	assert.NotEmpty(t, ai.ColdEmail)
	assert.NotEmpty(t, ai.SMS)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestDrafter_DisabledOrNoProvider(t *testing.T) {
	p := &fakeProvider{reply: sampleReply}

	ai, err := NewDrafter(p, false, Sender{}).Draft(context.Background(), joes())
	require.NoError(t, err)
	assert.Equal(t, model.AI{}, ai)
	assert.Equal(t, int32(0), p.calls.Load())

	ai, err = NewDrafter(nil, true, Sender{}).Draft(context.Background(), joes())
	require.NoError(t, err)
	assert.Equal(t, model.AI{}, ai)
}

func TestDrafter_ProviderErrorIsEmpty(t *testing.T) {
	d := NewDrafter(&fakeProvider{err: errors.New("boom")}, true, Sender{})

	ai, err := d.Draft(context.Background(), joes())
	require.NoError(t, err)
	assert.Equal(t, model.AI{}, ai)
}

func TestDrafter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDrafter(&fakeProvider{err: context.Canceled}, true, Sender{})

	_, err := d.Draft(ctx, joes())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDrafter_DraftAll(t *testing.T) {
	p := &fakeProvider{reply: sampleReply}
	d := NewDrafter(p, true, Sender{})

	in := []model.Lead{joes(), joes(), joes()}
	in[1].DedupeID = "second"

	out, err := d.DraftAll(context.Background(), in, 2)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "second", out[1].DedupeID)
	for _, l := range out {
		assert.NotEmpty(t, l.AI.Voicemail)
	}
	assert.Empty(t, in[0].AI.Voicemail)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestDrafter_DraftAllDisabled(t *testing.T) {
	out, err := NewDrafter(nil, true, Sender{}).DraftAll(context.Background(), []model.Lead{joes()}, 4)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.AI{}, out[0].AI)
}

func TestAnthropicProvider_Complete(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == anthropic.DefaultModel &&
			req.MaxTokens == MaxTokens &&
			len(req.System) == 1 && req.System[0].Text == SystemPrompt &&
			req.System[0].CacheControl != nil &&
			len(req.Messages) == 1 && req.Messages[0].Role == "user" && req.Messages[0].Content == "prompt" &&
			req.Temperature != nil && *req.Temperature == Temperature
	})).Return(&anthropic.MessageResponse{
		Model:   anthropic.DefaultModel,
		Content: []anthropic.ContentBlock{{Type: "text", Text: "SMS:\nhi"}},
	}, nil)

	p := NewAnthropicProvider(client, "", "")
	out, err := p.Complete(context.Background(), SystemPrompt, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "SMS:\nhi", out)
	assert.Equal(t, "anthropic", p.Name())
}

func TestAnthropicProvider_Error(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	_, err := NewAnthropicProvider(client, "claude-sonnet-4-5-20250929", "1h").Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: got.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "  " + sampleReply + "\n"},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", "", srv.URL)
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), SystemPrompt, "prompt")
	require.NoError(t, err)
	assert.Equal(t, sampleReply, out)

	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.Equal(t, MaxTokens, got.MaxTokens)
	assert.InDelta(t, Temperature, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "prompt", got.Messages[1].Content)
}

func TestOpenAIProvider_Errors(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "")
	require.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("k", "gpt-4o-mini", srv.URL)
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "s", "p")
	require.Error(t, err)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("k", "", srv.URL)
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(ProviderConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(ProviderConfig{Provider: "Anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = NewProvider(ProviderConfig{Provider: "ollama", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
