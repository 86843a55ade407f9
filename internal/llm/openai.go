package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/iksnae/voicechat/internal"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"

	openAIProvider = "OpenAI"
)

// OpenAIClient generates replies through an OpenAI-compatible chat
// completions endpoint
type OpenAIClient struct {
	client  *openai.Client
	model   string
	builder *ContextBuilder
}

// NewOpenAIClient creates a client. An empty baseURL keeps the library default.
func NewOpenAIClient(apiKey, model, baseURL string, builder *ContextBuilder, httpClient *http.Client) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		builder: builder,
	}
}

// GenerateResponse sends a single chat completion request
func (c *OpenAIClient) GenerateResponse(ctx context.Context, message string, history []internal.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    c.convertTurns(c.builder.Turns(history, message)),
		Temperature: Temperature,
		TopP:        TopP,
		MaxTokens:   MaxOutputTokens,
	}
	internal.LogDebug("Generating response via %s: %d messages", c.model, len(req.Messages))

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", convertOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoResponse
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrInvalidResponse
	}
	return content, nil
}

// convertTurns maps the context turns to chat messages. The leading persona
// turn becomes a system message since this API has a system role.
func (c *OpenAIClient) convertTurns(turns []Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for i, turn := range turns {
		role := openai.ChatMessageRoleUser
		switch {
		case i == 0 && len(turns) > 1:
			role = openai.ChatMessageRoleSystem
		case turn.Role == TurnModel:
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	return messages
}

func convertOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = http.StatusText(apiErr.HTTPStatusCode)
		}
		return &APIError{Provider: openAIProvider, StatusCode: apiErr.HTTPStatusCode, Message: message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Provider: openAIProvider, StatusCode: reqErr.HTTPStatusCode, Message: http.StatusText(reqErr.HTTPStatusCode)}
	}

	return fmt.Errorf("chat completion: %w", err)
}
