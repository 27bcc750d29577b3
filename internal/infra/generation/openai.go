package generation

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// OpenAI calls the Chat Completions API.
type OpenAI struct {
	client    *openai.Client
	maxTokens int
}

func NewOpenAI(apiKey, baseURL string, maxTokens int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), maxTokens: maxTokens}
}

func (o *OpenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", apiError(apiErr.HTTPStatusCode, apiErr.Message, err)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", apiError(reqErr.HTTPStatusCode, reqErr.Error(), err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
