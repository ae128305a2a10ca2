package ai

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/infrastructure/metrics"
)

// TracerName is the OpenTelemetry instrumentation scope for reasoning calls.
const TracerName = "deploy-sentinel/ai"

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryConfig returns the retry settings used by the CLI.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// RetryingClient retries transient failures of the wrapped client with
// exponential backoff, and records metrics and a span per call.
type RetryingClient struct {
	next     LLMClient
	config   RetryConfig
	logger   zerolog.Logger
	metrics  *metrics.LLMMetrics
	tracer   trace.Tracer
	provider string
	model    string
}

// RetryOption configures a RetryingClient
type RetryOption func(*RetryingClient)

// WithMetrics records every call on m
func WithMetrics(m *metrics.LLMMetrics) RetryOption {
	return func(c *RetryingClient) { c.metrics = m }
}

// WithTracer replaces the global tracer
func WithTracer(tracer trace.Tracer) RetryOption {
	return func(c *RetryingClient) { c.tracer = tracer }
}

// WithLabels sets the provider and model reported in logs, metrics and spans
func WithLabels(provider, model string) RetryOption {
	return func(c *RetryingClient) {
		c.provider = provider
		c.model = model
	}
}

// NewRetryingClient wraps next.
func NewRetryingClient(next LLMClient, config RetryConfig, logger zerolog.Logger, opts ...RetryOption) *RetryingClient {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.MaxBackoff < config.BaseBackoff {
		config.MaxBackoff = config.BaseBackoff
	}

	c := &RetryingClient{
		next:     next,
		config:   config,
		tracer:   otel.Tracer(TracerName),
		provider: "unknown",
		model:    "unknown",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.With().
		Str("component", "llm_retry").
		Str("provider", c.provider).
		Str("model", c.model).
		Logger()
	return c
}

// GetChatCompletion calls the wrapped client until it succeeds, fails with a
// non-retryable error, or runs out of attempts.
func (c *RetryingClient) GetChatCompletion(ctx context.Context, prompt string) (string, TokenUsage, error) {
	ctx, span := c.tracer.Start(ctx, "llm.chat_completion", trace.WithAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.String("llm.model", c.model),
		attribute.Int("llm.prompt_length", len(prompt)),
	))
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return c.fail(span, ctx.Err(), attempt)
		default:
		}

		start := time.Now()
		text, usage, err := c.next.GetChatCompletion(ctx, prompt)
		duration := time.Since(start)

		if err == nil {
			c.metrics.RecordRequest(metrics.LLMRequestMetrics{
				Provider:         c.provider,
				Model:            c.model,
				Duration:         duration,
				Success:          true,
				PromptTokens:     usage.PromptTokens,
				CompletionTokens: usage.CompletionTokens,
			})
			span.SetAttributes(
				attribute.Int("llm.attempts", attempt+1),
				attribute.Int("llm.total_tokens", usage.TotalTokens),
				attribute.Int("llm.response_length", len(text)),
			)
			span.SetStatus(codes.Ok, "")
			return text, usage, nil
		}

		c.metrics.RecordRequest(metrics.LLMRequestMetrics{
			Provider:  c.provider,
			Model:     c.model,
			Duration:  duration,
			ErrorType: string(errors.CodeOf(err)),
		})
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", c.config.MaxAttempts).
			Dur("duration", duration).
			Msg("Completion attempt failed")

		// Abort early on non-retryable errors.
		if !IsRetryable(err) {
			return c.fail(span, err, attempt+1)
		}
		lastErr = err

		if attempt < c.config.MaxAttempts-1 {
			c.metrics.RecordRetry(c.provider, c.model)
			timer := time.NewTimer(c.calculateBackoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return c.fail(span, ctx.Err(), attempt+1)
			case <-timer.C:
			}
		}
	}

	return c.fail(span, errors.New(errors.CodeNetworkError, "ai",
		"all completion attempts failed", lastErr), c.config.MaxAttempts)
}

func (c *RetryingClient) fail(span trace.Span, err error, attempts int) (string, TokenUsage, error) {
	span.SetAttributes(attribute.Int("llm.attempts", attempts))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return "", TokenUsage{}, err
}

// calculateBackoff computes exponential backoff with jitter
func (c *RetryingClient) calculateBackoff(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}

	// Exponential backoff: baseBackoff * 2^attempt
	backoff := c.config.BaseBackoff * time.Duration(1<<attempt)

	// Cap at maxBackoff
	if backoff > c.config.MaxBackoff || backoff < 0 {
		backoff = c.config.MaxBackoff
	}

	// Add jitter (±25% of backoff)
	jitter := backoff / 4
	if jitter <= 0 {
		return backoff
	}
	return backoff - jitter + time.Duration(rand.Int64N(int64(jitter*2)))
}

// IsRetryable determines if an error is retryable based on common patterns
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	switch errors.CodeOf(err) {
	case errors.CodeMissingCredential, errors.CodeConfigurationInvalid,
		errors.CodeValidationFailed, errors.CodeInvalidParameter:
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(causeText(err))
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

var retryablePatterns = []string{
	"timeout",
	"rate limit",
	"temporarily",
	"unavailable",
	"connection refused",
	"connection reset",
	"broken pipe",
	"network",
	"dns",
	"overloaded",
	"resource exhausted",
	"resource_exhausted",
	"too many requests",
	"429",
	"internal server error",
	"internal error",
	"bad gateway",
	"error 500",
	"error 502",
}

// causeText returns the message of the innermost error, skipping structured
// wrappers.
func causeText(err error) string {
	var e *errors.Error
	for stderrors.As(err, &e) {
		if e.Cause == nil {
			return e.Message
		}
		err = e.Cause
	}
	return err.Error()
}
