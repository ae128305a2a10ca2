package ai

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// AzOpenAIClient calls an Azure OpenAI chat deployment.
type AzOpenAIClient struct {
	client       *azopenai.Client
	deploymentID string
	opts         clientOptions
}

// NewAzOpenAIClient creates and returns a new AzOpenAIClient using the provided credentials.
// The deploymentID is stored and used for all subsequent API calls.
func NewAzOpenAIClient(endpoint, apiKey, deploymentID string, opts ...Option) (*AzOpenAIClient, error) {
	switch {
	case apiKey == "":
		return nil, errors.New(errors.CodeMissingCredential, "ai", "AZURE_OPENAI_KEY is not set", nil)
	case endpoint == "":
		return nil, errors.New(errors.CodeMissingCredential, "ai", "AZURE_OPENAI_ENDPOINT is not set", nil)
	case deploymentID == "":
		return nil, errors.New(errors.CodeMissingCredential, "ai", "AZURE_OPENAI_DEPLOYMENT_ID is not set", nil)
	}

	o := newClientOptions(ProviderAzureOpenAI, deploymentID, opts)
	keyCredential := azcore.NewKeyCredential(apiKey)
	client, err := azopenai.NewClientWithKeyCredential(endpoint, keyCredential, nil)
	if err != nil {
		return nil, errors.New(errors.CodeConfigurationInvalid, "ai", "error creating Azure OpenAI client", err)
	}
	return &AzOpenAIClient{
		client:       client,
		deploymentID: deploymentID,
		opts:         o,
	}, nil
}

// GetChatCompletion sends a prompt to the deployment and returns the completion text.
func (c *AzOpenAIClient) GetChatCompletion(ctx context.Context, promptText string) (string, TokenUsage, error) {
	ctx, cancel := c.opts.requestContext(ctx)
	defer cancel()

	messages := []azopenai.ChatRequestMessageClassification{}
	if sp := c.opts.systemPromptFor(ctx); sp != "" {
		messages = append(messages, &azopenai.ChatRequestSystemMessage{
			Content: azopenai.NewChatRequestSystemMessageContent(sp),
		})
	}
	messages = append(messages, &azopenai.ChatRequestUserMessage{
		Content: azopenai.NewChatRequestUserMessageContent(promptText),
	})

	start := time.Now()
	resp, err := c.client.GetChatCompletions(
		ctx,
		azopenai.ChatCompletionsOptions{
			DeploymentName: to.Ptr(c.deploymentID),
			Messages:       messages,
			Temperature:    to.Ptr(c.opts.temperature),
			MaxTokens:      to.Ptr(c.opts.maxTokens),
		},
		nil,
	)
	if err != nil {
		return "", TokenUsage{}, networkError(ProviderAzureOpenAI, err)
	}

	usage := usageFromAzure(resp.Usage)
	text := ""
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		text = *resp.Choices[0].Message.Content
	}
	if text == "" {
		c.opts.logger.Warn().Msg("No completion received")
	}
	c.opts.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("response_length", len(text)).
		Int("total_tokens", usage.TotalTokens).
		Msg("Completion received")

	return text, usage, nil
}

func usageFromAzure(u *azopenai.CompletionsUsage) TokenUsage {
	if u == nil {
		return TokenUsage{}
	}
	usage := TokenUsage{}
	if u.PromptTokens != nil {
		usage.PromptTokens = int(*u.PromptTokens)
	}
	if u.CompletionTokens != nil {
		usage.CompletionTokens = int(*u.CompletionTokens)
	}
	if u.TotalTokens != nil {
		usage.TotalTokens = int(*u.TotalTokens)
	}
	return usage
}
