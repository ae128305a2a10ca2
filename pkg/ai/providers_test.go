package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

func TestGeminiClient_GetChatCompletion(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"repo_map\": {}}"}]}}],
			"usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 30, "totalTokenCount": 150}
		}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(context.Background(), "test-key",
		WithBaseURL(server.URL+"/"), WithTemperature(0.2), WithMaxTokens(512))
	require.NoError(t, err)

	text, usage, err := client.GetChatCompletion(context.Background(), "plan this repo")
	require.NoError(t, err)
	assert.Equal(t, `{"repo_map": {}}`, text)
	assert.Equal(t, TokenUsage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}, usage)
	assert.True(t, strings.HasSuffix(gotPath, "models/"+DefaultGeminiModel+":generateContent"), gotPath)
	assert.Contains(t, gotBody, "contents")
}

func TestGeminiClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"code": 503, "message": "The model is overloaded.", "status": "UNAVAILABLE"}}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(context.Background(), "test-key", WithBaseURL(server.URL+"/"))
	require.NoError(t, err)

	_, _, err = client.GetChatCompletion(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNetworkError))
	assert.True(t, IsRetryable(err))
}

func TestAnthropicClient_GetChatCompletion(t *testing.T) {
	var gotReq struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "{\"diagnosis\": "}, {"type": "text", "text": "\"ok\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 40, "output_tokens": 12}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient("test-key",
		WithBaseURL(server.URL), WithMaxTokens(1024), WithSystemPrompt("You are Deploy Sentinel."))
	require.NoError(t, err)

	text, usage, err := client.GetChatCompletion(context.Background(), "diagnose")
	require.NoError(t, err)
	assert.Equal(t, `{"diagnosis": "ok"}`, text)
	assert.Equal(t, TokenUsage{PromptTokens: 40, CompletionTokens: 12, TotalTokens: 52}, usage)
	assert.Equal(t, DefaultAnthropicModel, gotReq.Model)
	assert.Equal(t, 1024, gotReq.MaxTokens)
	require.Len(t, gotReq.System, 1)
	assert.Equal(t, "You are Deploy Sentinel.", gotReq.System[0].Text)
}

func TestAnthropicClient_SystemPromptPerRequest(t *testing.T) {
	var systems []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		text := ""
		if len(req.System) > 0 {
			text = req.System[0].Text
		}
		systems = append(systems, text)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "ok"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient("test-key", WithBaseURL(server.URL), WithSystemPrompt("client default"))
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"client default", context.Background(), "client default"},
		{"planning", ContextWithSystemPrompt(context.Background(), "You are the architect."), "You are the architect."},
		{"diagnosis", ContextWithSystemPrompt(context.Background(), "You are the surgeon."), "You are the surgeon."},
		{"explicitly empty", ContextWithSystemPrompt(context.Background(), ""), ""},
	}
	for _, tt := range tests {
		_, _, err := client.GetChatCompletion(tt.ctx, "prompt")
		require.NoError(t, err, tt.name)
	}

	require.Len(t, systems, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.want, systems[i], tt.name)
	}
}

func TestAnthropicClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewAnthropicClient("test-key", WithBaseURL(server.URL), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, _, err = client.GetChatCompletion(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNetworkError))
	assert.True(t, IsRetryable(err))
}

func TestNewClient_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"gemini", ProviderConfig{Provider: ProviderGemini}},
		{"default provider", ProviderConfig{}},
		{"anthropic", ProviderConfig{Provider: ProviderAnthropic}},
		{"azure key", ProviderConfig{Provider: ProviderAzureOpenAI, Endpoint: "https://x.openai.azure.com", DeploymentID: "gpt"}},
		{"azure endpoint", ProviderConfig{Provider: ProviderAzureOpenAI, APIKey: "k", DeploymentID: "gpt"}},
		{"azure deployment", ProviderConfig{Provider: ProviderAzureOpenAI, APIKey: "k", Endpoint: "https://x.openai.azure.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg, zerolog.Nop())
			assert.Nil(t, client)
			assert.True(t, errors.HasCode(err, errors.CodeMissingCredential), "got %v", err)
		})
	}
}

func TestNewClient_SelectsProvider(t *testing.T) {
	client, err := NewClient(context.Background(), ProviderConfig{Provider: ProviderAnthropic, APIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, client)

	client, err = NewClient(context.Background(), ProviderConfig{
		Provider: ProviderAzureOpenAI, APIKey: "k", Endpoint: "https://x.openai.azure.com", DeploymentID: "gpt-4o",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &AzOpenAIClient{}, client)

	_, err = NewClient(context.Background(), ProviderConfig{Provider: "bedrock", APIKey: "k"}, zerolog.Nop())
	assert.True(t, errors.HasCode(err, errors.CodeConfigurationInvalid))
}

func TestParseProvider(t *testing.T) {
	tests := map[string]Provider{
		"":             ProviderGemini,
		"Gemini":       ProviderGemini,
		"azure":        ProviderAzureOpenAI,
		"azure-openai": ProviderAzureOpenAI,
		"claude":       ProviderAnthropic,
		" anthropic ":  ProviderAnthropic,
	}
	for in, want := range tests {
		got, err := ParseProvider(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseProvider("bedrock")
	assert.True(t, errors.HasCode(err, errors.CodeConfigurationInvalid))
}

func TestProviderConfig_ModelName(t *testing.T) {
	assert.Equal(t, DefaultGeminiModel, ProviderConfig{}.ModelName())
	assert.Equal(t, DefaultAnthropicModel, ProviderConfig{Provider: ProviderAnthropic}.ModelName())
	assert.Equal(t, "gpt-4o", ProviderConfig{Provider: ProviderAzureOpenAI, DeploymentID: "gpt-4o"}.ModelName())
	assert.Equal(t, "custom", ProviderConfig{Provider: ProviderAnthropic, Model: "custom"}.ModelName())
}

type stubClient struct {
	text  string
	usage TokenUsage
	err   error
}

func (s stubClient) GetChatCompletion(context.Context, string) (string, TokenUsage, error) {
	return s.text, s.usage, s.err
}

func TestTestConnection(t *testing.T) {
	err := TestConnection(context.Background(), stubClient{text: "It works.", usage: TokenUsage{TotalTokens: 9}}, zerolog.Nop())
	assert.NoError(t, err)

	err = TestConnection(context.Background(), stubClient{err: io.ErrUnexpectedEOF}, zerolog.Nop())
	assert.True(t, errors.HasCode(err, errors.CodeNetworkError))
	assert.Contains(t, err.Error(), "failed to get chat completion")
}

func TestTokenUsage_Add(t *testing.T) {
	a := TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	assert.Equal(t, TokenUsage{PromptTokens: 2, CompletionTokens: 4, TotalTokens: 6}, a.Add(a))
}
