package ai

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// DefaultGeminiModel is the long-context model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-pro"

// GeminiClient calls the Gemini API.
type GeminiClient struct {
	client *genai.Client
	opts   clientOptions
}

// NewGeminiClient creates a Gemini API client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...Option) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.CodeMissingCredential, "ai", "GEMINI_API_KEY is not set", nil)
	}

	o := newClientOptions(ProviderGemini, DefaultGeminiModel, opts)
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.New(errors.CodeConfigurationInvalid, "ai", "error creating Gemini client", err)
	}
	return &GeminiClient{client: client, opts: o}, nil
}

// GetChatCompletion sends a prompt to Gemini and returns the response text.
func (c *GeminiClient) GetChatCompletion(ctx context.Context, prompt string) (string, TokenUsage, error) {
	ctx, cancel := c.opts.requestContext(ctx)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.opts.temperature),
		MaxOutputTokens: c.opts.maxTokens,
	}
	if sp := c.opts.systemPromptFor(ctx); sp != "" {
		config.SystemInstruction = genai.NewContentFromText(sp, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.opts.model, genai.Text(prompt), config)
	if err != nil {
		return "", TokenUsage{}, networkError(ProviderGemini, err)
	}

	usage := TokenUsage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	text := resp.Text()
	if text == "" {
		c.opts.logger.Warn().Msg("Empty completion received")
	}
	c.opts.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("response_length", len(text)).
		Int("total_tokens", usage.TotalTokens).
		Msg("Completion received")

	return text, usage, nil
}
