// Package config loads sentinel settings from defaults, an optional .env file
// and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/ai"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/git"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// EnvPrefix prefixes every sentinel environment variable.
const EnvPrefix = "SENTINEL"

// DefaultMaxContextTokens is the context window budget of the default model.
const DefaultMaxContextTokens = 1_000_000

// Config holds every runtime setting.
type Config struct {
	// Core settings
	WorkspaceDir string `mapstructure:"workspace_dir"`
	StorePath    string `mapstructure:"store_path"`
	LogLevel     string `mapstructure:"log_level"`
	LogJSON      bool   `mapstructure:"log_json"`

	// Reasoning engine
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`

	RetryAttempts int           `mapstructure:"retry_attempts"`
	BaseBackoff   time.Duration `mapstructure:"base_backoff"`
	MaxBackoff    time.Duration `mapstructure:"max_backoff"`

	MaxContextTokens int    `mapstructure:"max_context_tokens"`
	Region           string `mapstructure:"region"`
	PromptDir        string `mapstructure:"prompt_dir"`

	// Clone settings
	CloneDepth   int           `mapstructure:"clone_depth"`
	CloneBranch  string        `mapstructure:"clone_branch"`
	CloneTimeout time.Duration `mapstructure:"clone_timeout"`
	GitToken     string        `mapstructure:"git_token"`

	// Provider credentials
	GeminiAPIKey            string `mapstructure:"gemini_api_key"`
	AzureOpenAIKey          string `mapstructure:"azure_openai_key"`
	AzureOpenAIEndpoint     string `mapstructure:"azure_openai_endpoint"`
	AzureOpenAIDeploymentID string `mapstructure:"azure_openai_deployment_id"`
	AnthropicAPIKey         string `mapstructure:"anthropic_api_key"`
}

// credentialEnv maps credential keys to the unprefixed variable names the
// provider SDKs document.
var credentialEnv = map[string]string{
	"gemini_api_key":             "GEMINI_API_KEY",
	"azure_openai_key":           "AZURE_OPENAI_KEY",
	"azure_openai_endpoint":      "AZURE_OPENAI_ENDPOINT",
	"azure_openai_deployment_id": "AZURE_OPENAI_DEPLOYMENT_ID",
	"anthropic_api_key":          "ANTHROPIC_API_KEY",
	"git_token":                  "GITHUB_TOKEN",
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	retry := ai.DefaultRetryConfig()
	return &Config{
		WorkspaceDir:     filepath.Join(os.TempDir(), "deploy-sentinel"),
		StorePath:        "",
		LogLevel:         "info",
		Provider:         string(ai.ProviderGemini),
		Temperature:      float64(ai.DefaultTemperature),
		MaxTokens:        int(ai.DefaultMaxTokens),
		Timeout:          ai.DefaultTimeout,
		RetryAttempts:    retry.MaxAttempts,
		BaseBackoff:      retry.BaseBackoff,
		MaxBackoff:       retry.MaxBackoff,
		MaxContextTokens: DefaultMaxContextTokens,
		Region:           "us-central1",
		CloneDepth:       1,
		CloneTimeout:     5 * time.Minute,
	}
}

// Load reads envFile (if it exists) into the process environment, then
// overlays SENTINEL_* variables and provider credentials onto the defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigurationInvalid, "config",
				fmt.Sprintf("failed to load env file %s", envFile), err)
		}
	}

	v := newViper(DefaultConfig())
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(errors.CodeConfigurationInvalid, "config", "failed to decode configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("workspace_dir", defaults.WorkspaceDir)
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_json", defaults.LogJSON)
	v.SetDefault("provider", defaults.Provider)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("temperature", defaults.Temperature)
	v.SetDefault("max_tokens", defaults.MaxTokens)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("retry_attempts", defaults.RetryAttempts)
	v.SetDefault("base_backoff", defaults.BaseBackoff)
	v.SetDefault("max_backoff", defaults.MaxBackoff)
	v.SetDefault("max_context_tokens", defaults.MaxContextTokens)
	v.SetDefault("region", defaults.Region)
	v.SetDefault("prompt_dir", defaults.PromptDir)
	v.SetDefault("clone_depth", defaults.CloneDepth)
	v.SetDefault("clone_branch", defaults.CloneBranch)
	v.SetDefault("clone_timeout", defaults.CloneTimeout)

	for key, env := range credentialEnv {
		v.SetDefault(key, "")
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), env)
	}
	return v
}

// Validate checks the settings that do not depend on the selected provider.
func (c *Config) Validate() error {
	if c.WorkspaceDir == "" {
		return errors.New(errors.CodeConfigurationInvalid, "config", "workspace_dir is required", nil)
	}
	if _, err := ai.ParseProvider(c.Provider); err != nil {
		return err
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.Newf(errors.CodeConfigurationInvalid, "config", "temperature %v outside [0, 2]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return errors.New(errors.CodeConfigurationInvalid, "config", "max_tokens must be positive", nil)
	}
	if c.Timeout <= 0 {
		return errors.New(errors.CodeConfigurationInvalid, "config", "timeout must be positive", nil)
	}
	if c.RetryAttempts < 1 {
		return errors.New(errors.CodeConfigurationInvalid, "config", "retry_attempts must be at least 1", nil)
	}
	if c.BaseBackoff <= 0 || c.MaxBackoff < c.BaseBackoff {
		return errors.New(errors.CodeConfigurationInvalid, "config", "backoff bounds must satisfy 0 < base_backoff <= max_backoff", nil)
	}
	if c.MaxContextTokens <= 0 {
		return errors.New(errors.CodeConfigurationInvalid, "config", "max_context_tokens must be positive", nil)
	}
	if c.PromptDir != "" {
		if info, err := os.Stat(c.PromptDir); err != nil || !info.IsDir() {
			return errors.Newf(errors.CodeConfigurationInvalid, "config", "prompt_dir %s is not a directory", c.PromptDir)
		}
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error"}
	for _, level := range validLogLevels {
		if strings.EqualFold(c.LogLevel, level) {
			return nil
		}
	}
	return errors.Newf(errors.CodeConfigurationInvalid, "config",
		"log_level must be one of: %s", strings.Join(validLogLevels, ", "))
}

// ProviderConfig selects the credentials for the configured provider. A
// missing credential is reported before any client is built.
func (c *Config) ProviderConfig() (ai.ProviderConfig, error) {
	provider, err := ai.ParseProvider(c.Provider)
	if err != nil {
		return ai.ProviderConfig{}, err
	}

	pc := ai.ProviderConfig{
		Provider:    provider,
		Model:       c.Model,
		Temperature: float32(c.Temperature),
		MaxTokens:   int32(c.MaxTokens),
		Timeout:     c.Timeout,
	}

	var missing []string
	switch provider {
	case ai.ProviderGemini:
		pc.APIKey = c.GeminiAPIKey
		if pc.APIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case ai.ProviderAnthropic:
		pc.APIKey = c.AnthropicAPIKey
		if pc.APIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case ai.ProviderAzureOpenAI:
		pc.APIKey = c.AzureOpenAIKey
		pc.Endpoint = c.AzureOpenAIEndpoint
		pc.DeploymentID = c.AzureOpenAIDeploymentID
		if pc.APIKey == "" {
			missing = append(missing, "AZURE_OPENAI_KEY")
		}
		if pc.Endpoint == "" {
			missing = append(missing, "AZURE_OPENAI_ENDPOINT")
		}
		if pc.DeploymentID == "" {
			missing = append(missing, "AZURE_OPENAI_DEPLOYMENT_ID")
		}
	}
	if len(missing) > 0 {
		return ai.ProviderConfig{}, errors.Newf(errors.CodeMissingCredential, "config",
			"%s provider requires %s", provider, strings.Join(missing, ", "))
	}
	return pc, nil
}

// RetryConfig returns the retry policy for reasoning-engine calls.
func (c *Config) RetryConfig() ai.RetryConfig {
	return ai.RetryConfig{
		MaxAttempts: c.RetryAttempts,
		BaseBackoff: c.BaseBackoff,
		MaxBackoff:  c.MaxBackoff,
	}
}

// CloneOptions returns the go-git clone settings.
func (c *Config) CloneOptions() git.CloneOptions {
	return git.CloneOptions{
		Branch:    c.CloneBranch,
		Depth:     c.CloneDepth,
		AuthToken: c.GitToken,
		Timeout:   c.CloneTimeout,
	}
}
