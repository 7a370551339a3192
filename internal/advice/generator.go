// Package advice turns the daily run payload into a short narrative.
// The generator never fails: a missing key or a provider error degrades
// to canned text so the packet is always complete.
package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/config"
	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"

	SystemPrompt = "You are a registered investment adviser assistant. " +
		"Provide balanced daily insights including rationale and risks."

	MockSummary     = "Mock advice: diversify across highlighted assets and review risk limits."
	FallbackSummary = "Mock advice (API error): review highlighted assets, maintain discipline on position sizing."

	defaultMaxTokens   = 800
	defaultTemperature = 0.3
	defaultTimeout     = 60 * time.Second
)

// completer sends one system + user prompt pair to a text model.
type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options configures a provider-backed generator.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (o Options) withDefaults(model string) Options {
	if o.Model == "" {
		o.Model = model
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Temperature < 0 {
		o.Temperature = defaultTemperature
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// Generator implements contracts.AdviceGenerator.
type Generator struct {
	provider string
	client   completer
	timeout  time.Duration
	logger   *logger.Logger
}

var _ contracts.AdviceGenerator = (*Generator)(nil)

// NewMock returns a generator that always answers with MockSummary.
func NewMock(log *logger.Logger) *Generator {
	return &Generator{provider: ProviderMock, logger: log}
}

// New picks the provider from cfg.Advice. A provider without an API key
// yields the mock generator.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Generator, error) {
	opts := Options{
		Model:       cfg.Advice.Model,
		MaxTokens:   cfg.Advice.MaxTokens,
		Temperature: cfg.Advice.Temperature,
		Timeout:     cfg.Advice.Timeout,
	}

	var (
		client completer
		err    error
	)
	switch cfg.Advice.Provider {
	case ProviderClaude, "":
		client, err = newClaude(cfg.Credentials.Anthropic, opts)
	case ProviderGemini:
		client, err = newGemini(ctx, cfg.Credentials.Gemini, opts)
	default:
		return nil, fmt.Errorf("unknown advice provider %q", cfg.Advice.Provider)
	}
	if errors.Is(err, httputil.ErrMissingAPIKey) {
		log.WithField("provider", cfg.Advice.Provider).Warn("Advice API key not configured, using mock advice")
		return NewMock(log), nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s advice client: %w", cfg.Advice.Provider, err)
	}

	provider := cfg.Advice.Provider
	if provider == "" {
		provider = ProviderClaude
	}
	return &Generator{
		provider: provider,
		client:   client,
		timeout:  opts.withDefaults("").Timeout,
		logger:   log,
	}, nil
}

// Provider reports which backend produces the summaries.
func (g *Generator) Provider() string {
	return g.provider
}

// Generate asks the provider for a summary of req.
func (g *Generator) Generate(ctx context.Context, req contracts.AdviceRequest) contracts.Advice {
	out := contracts.Advice{Provider: g.provider, Details: req}
	if g.client == nil {
		out.Summary = MockSummary
		return out
	}

	payload, err := BuildPrompt(req)
	if err != nil {
		g.logger.WithError(err).Warn("Failed to encode advice payload")
		out.Summary = FallbackSummary
		return out
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	text, err := g.client.Complete(callCtx, SystemPrompt, payload)
	if err != nil {
		g.logger.WithError(err).WithField("provider", g.provider).Warn("Advice generation failed, using fallback text")
		out.Summary = FallbackSummary
		return out
	}

	g.logger.WithFields(map[string]interface{}{
		"provider":    g.provider,
		"duration_ms": time.Since(started).Milliseconds(),
		"chars":       len(text),
	}).Info("Advice generated")
	out.Summary = text
	return out
}

// BuildPrompt renders the request as the indented JSON sent to the model.
func BuildPrompt(req contracts.AdviceRequest) (string, error) {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
