package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// Provider names a reasoning-engine backend.
type Provider string

const (
	ProviderGemini      Provider = "gemini"
	ProviderAzureOpenAI Provider = "azure-openai"
	ProviderAnthropic   Provider = "anthropic"
)

// Providers lists the supported backends; the first is the default.
var Providers = []Provider{ProviderGemini, ProviderAzureOpenAI, ProviderAnthropic}

// ParseProvider resolves a configured provider name. Empty selects Gemini.
func ParseProvider(name string) (Provider, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "":
		return ProviderGemini, nil
	case "azure", "azopenai", "azure_openai":
		return ProviderAzureOpenAI, nil
	case "claude":
		return ProviderAnthropic, nil
	}
	for _, p := range Providers {
		if string(p) == normalized {
			return p, nil
		}
	}
	return "", errors.Newf(errors.CodeConfigurationInvalid, "ai", "unknown LLM provider %q", name)
}

// ProviderConfig holds everything needed to construct one provider client.
type ProviderConfig struct {
	Provider     Provider
	Model        string
	APIKey       string
	Endpoint     string // Azure OpenAI only
	DeploymentID string // Azure OpenAI only
	BaseURL      string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int32
	Timeout      time.Duration
}

// ModelName returns the model the client will report in logs and metrics.
func (c ProviderConfig) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderAzureOpenAI:
		return c.DeploymentID
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultGeminiModel
	}
}

// NewClient builds the provider client selected by cfg. A missing credential
// fails here, before any request is made.
func NewClient(ctx context.Context, cfg ProviderConfig, logger zerolog.Logger) (LLMClient, error) {
	opts := []Option{
		WithModel(cfg.Model),
		WithTemperature(cfg.Temperature),
		WithMaxTokens(cfg.MaxTokens),
		WithSystemPrompt(cfg.SystemPrompt),
		WithBaseURL(cfg.BaseURL),
		WithTimeout(cfg.Timeout),
		WithLogger(logger),
	}

	var (
		client LLMClient
		err    error
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		client, err = NewGeminiClient(ctx, cfg.APIKey, opts...)
	case ProviderAzureOpenAI:
		client, err = NewAzOpenAIClient(cfg.Endpoint, cfg.APIKey, cfg.DeploymentID, opts...)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(cfg.APIKey, opts...)
	default:
		return nil, errors.Newf(errors.CodeConfigurationInvalid, "ai", "unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
