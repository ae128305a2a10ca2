package ai

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_5)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	opts   clientOptions
}

// NewAnthropicClient creates a Messages API client authenticated with apiKey.
// Retries are left to RetryingClient.
func NewAnthropicClient(apiKey string, opts ...Option) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.CodeMissingCredential, "ai", "ANTHROPIC_API_KEY is not set", nil)
	}

	o := newClientOptions(ProviderAnthropic, DefaultAnthropicModel, opts)
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}

	return &AnthropicClient{client: anthropic.NewClient(reqOpts...), opts: o}, nil
}

// GetChatCompletion sends a prompt and joins the text blocks of the reply.
func (c *AnthropicClient) GetChatCompletion(ctx context.Context, prompt string) (string, TokenUsage, error) {
	ctx, cancel := c.opts.requestContext(ctx)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.model),
		MaxTokens: int64(c.opts.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(float64(c.opts.temperature)),
	}
	if sp := c.opts.systemPromptFor(ctx); sp != "" {
		params.System = []anthropic.TextBlockParam{{Text: sp}}
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", TokenUsage{}, networkError(ProviderAnthropic, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	usage := TokenUsage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	text := sb.String()
	if text == "" {
		c.opts.logger.Warn().Str("stop_reason", string(msg.StopReason)).Msg("Empty completion received")
	}
	c.opts.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("response_length", len(text)).
		Int("total_tokens", usage.TotalTokens).
		Msg("Completion received")

	return text, usage, nil
}
