// Package ai connects the pipeline to a large-context reasoning engine.
//
// Each provider implements LLMClient with a single text-in, text-out call.
// RetryingClient wraps any provider with backoff, metrics and tracing.
package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// LLMClient sends one prompt to a reasoning engine and returns its raw text.
type LLMClient interface {
	GetChatCompletion(ctx context.Context, prompt string) (string, TokenUsage, error)
}

// TokenUsage reports the tokens consumed by one or more calls.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Generation defaults shared by every provider.
const (
	DefaultTemperature float32 = 0.7
	DefaultMaxTokens   int32   = 8192
	DefaultTimeout             = 5 * time.Minute
)

type clientOptions struct {
	model        string
	temperature  float32
	maxTokens    int32
	systemPrompt string
	baseURL      string
	timeout      time.Duration
	logger       zerolog.Logger
}

// Option configures a provider client
type Option func(*clientOptions)

// WithModel overrides the provider's default model
func WithModel(model string) Option {
	return func(o *clientOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(temperature float32) Option {
	return func(o *clientOptions) { o.temperature = temperature }
}

// WithMaxTokens caps the completion length
func WithMaxTokens(maxTokens int32) Option {
	return func(o *clientOptions) {
		if maxTokens > 0 {
			o.maxTokens = maxTokens
		}
	}
}

// WithSystemPrompt sets a system instruction sent with every prompt
func WithSystemPrompt(systemPrompt string) Option {
	return func(o *clientOptions) { o.systemPrompt = systemPrompt }
}

// WithBaseURL points the client at a non-default API endpoint
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) { o.baseURL = baseURL }
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.timeout = timeout }
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

func newClientOptions(provider Provider, defaultModel string, opts []Option) clientOptions {
	o := clientOptions{
		model:       defaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		timeout:     DefaultTimeout,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With().
		Str("component", "llm_client").
		Str("provider", string(provider)).
		Str("model", o.model).
		Logger()
	return o
}

func (o clientOptions) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.timeout)
}

type systemPromptKey struct{}

// ContextWithSystemPrompt attaches a system instruction to the calls made with
// ctx. It takes precedence over the client's WithSystemPrompt value.
func ContextWithSystemPrompt(ctx context.Context, systemPrompt string) context.Context {
	return context.WithValue(ctx, systemPromptKey{}, systemPrompt)
}

// SystemPromptFromContext returns the system instruction attached to ctx.
func SystemPromptFromContext(ctx context.Context) (string, bool) {
	sp, ok := ctx.Value(systemPromptKey{}).(string)
	return sp, ok
}

func (o clientOptions) systemPromptFor(ctx context.Context) string {
	if sp, ok := SystemPromptFromContext(ctx); ok {
		return sp
	}
	return o.systemPrompt
}

func networkError(provider Provider, err error) error {
	return errors.New(errors.CodeNetworkError, "ai", string(provider)+" request failed", err)
}

// TestConnection sends a short prompt and logs the reply and token usage.
func TestConnection(ctx context.Context, client LLMClient, logger zerolog.Logger) error {
	content, tokenUsage, err := client.GetChatCompletion(ctx, "Hello! Tell me this is working in one short sentence.")
	if err != nil {
		return errors.Newf(errors.CodeNetworkError, "ai", "failed to get chat completion: %v", err)
	}

	logger.Info().Str("response", content).Msg("Reasoning engine connection test")
	logger.Info().
		Int("total_tokens", tokenUsage.TotalTokens).
		Int("prompt_tokens", tokenUsage.PromptTokens).
		Int("completion_tokens", tokenUsage.CompletionTokens).
		Msg("Token usage")
	return nil
}
