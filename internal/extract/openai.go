package extract

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// OpenAIExtractor extracts loan fields using the OpenAI API.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor creates a new OpenAI-backed extractor.
func NewOpenAIExtractor(apiKey string) (*OpenAIExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIExtractor{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}, nil
}

// Name returns the provider name.
func (e *OpenAIExtractor) Name() string {
	return "openai"
}

// ExtractFields extracts loan request fields from a customer message.
func (e *OpenAIExtractor) ExtractFields(ctx context.Context, message, contextWindow string) (*Fields, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(message, contextWindow)},
		},
		MaxTokens:   256,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}

	return parseFields(resp.Choices[0].Message.Content)
}
