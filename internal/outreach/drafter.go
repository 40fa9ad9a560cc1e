// Package outreach drafts cold email, voicemail, and SMS copy for leads with
// an LLM.
package outreach

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/pkg/anthropic"
)

// ProviderConfig selects and configures an LLM provider.
type ProviderConfig struct {
	Provider string // "openai" (default) or "anthropic"
	Model    string
	APIKey   string
	BaseURL  string
	CacheTTL string
}

// NewProvider builds the configured provider. A missing API key yields a
// nil provider and no error; drafting is then skipped.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.APIKey == "" {
		zap.L().Warn("outreach: api key not provided, skipping outreach drafting",
			zap.String("provider", name),
		)
		return nil, nil
	}
	switch name {
	case "", "openai":
		p, err := NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "anthropic", "claude":
		var opts []anthropic.Option
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return NewAnthropicProvider(anthropic.NewClient(cfg.APIKey, opts...), cfg.Model, cfg.CacheTTL), nil
	default:
		return nil, eris.Errorf("outreach: unknown provider %q (supported: openai, anthropic)", cfg.Provider)
	}
}

// Drafter produces outreach copy for leads.
type Drafter struct {
	provider Provider
	enabled  bool
	from     Sender
}

// NewDrafter creates a Drafter. A nil provider or enabled=false makes every
// draft empty.
func NewDrafter(p Provider, enabled bool, from Sender) *Drafter {
	return &Drafter{provider: p, enabled: enabled, from: from}
}

// Enabled reports whether drafts will call a provider.
func (d *Drafter) Enabled() bool {
	return d != nil && d.enabled && d.provider != nil
}

// Draft returns outreach copy for l. Provider failures are logged and give
// an empty result; only context cancellation is returned as an error.
func (d *Drafter) Draft(ctx context.Context, l model.Lead) (model.AI, error) {
	if !d.Enabled() {
		return model.AI{}, nil
	}

	content, err := d.provider.Complete(ctx, SystemPrompt, BuildPrompt(l, d.from))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.AI{}, eris.Wrap(ctxErr, "outreach: draft")
		}
		zap.L().Error("outreach: draft failed",
			zap.String("provider", d.provider.Name()),
			zap.String("business", l.Business.Name),
			zap.Error(err),
		)
		return model.AI{}, nil
	}

	ai := ParseResponse(content)
	zap.L().Info("outreach: drafted",
		zap.String("business", l.Business.Name),
		zap.Bool("cold_email", ai.ColdEmail != ""),
		zap.Bool("voicemail", ai.Voicemail != ""),
		zap.Bool("sms", ai.SMS != ""),
	)
	return ai, nil
}

// DraftAll drafts every lead with at most concurrency requests in flight and
// returns copies with AI set, in input order.
func (d *Drafter) DraftAll(ctx context.Context, leads []model.Lead, concurrency int) ([]model.Lead, error) {
	out := make([]model.Lead, len(leads))
	for i, l := range leads {
		out[i] = l.Clone()
	}
	if !d.Enabled() {
		return out, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i := range out {
		g.Go(func() error {
			ai, err := d.Draft(gCtx, out[i])
			if err != nil {
				return err
			}
			out[i].AI = ai
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
