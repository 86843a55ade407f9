package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/iksnae/voicechat/internal"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-1.5-flash"

	geminiProvider  = "Gemini"
	blockThreshold  = "BLOCK_MEDIUM_AND_ABOVE"
	redactedKeyText = "REDACTED"
)

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// GeminiClient calls the Gemini generateContent endpoint
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	builder *ContextBuilder
}

// GeminiOption configures a GeminiClient
type GeminiOption func(*GeminiClient)

// WithGeminiModel overrides the model name
func WithGeminiModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithGeminiBaseURL overrides the API host, e.g. for a proxy or a test server
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(c *GeminiClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.client = client
	}
}

// NewGeminiClient creates a client that builds its request context with builder
func NewGeminiClient(apiKey string, builder *ContextBuilder, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:  apiKey,
		model:   DefaultGeminiModel,
		baseURL: DefaultGeminiBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		builder: builder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newGenerateRequest(turns []Turn) generateRequest {
	contents := make([]geminiContent, 0, len(turns))
	for _, turn := range turns {
		contents = append(contents, geminiContent{
			Role:  string(turn.Role),
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}

	safety := make([]safetySetting, 0, len(harmCategories))
	for _, category := range harmCategories {
		safety = append(safety, safetySetting{Category: category, Threshold: blockThreshold})
	}

	return generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     Temperature,
			TopK:            TopK,
			TopP:            TopP,
			MaxOutputTokens: MaxOutputTokens,
		},
		SafetySettings: safety,
	}
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

// GenerateResponse sends one generateContent request and returns the first
// candidate's text. It never retries.
func (c *GeminiClient) GenerateResponse(ctx context.Context, message string, history []internal.ChatMessage) (string, error) {
	turns := c.builder.Turns(history, message)
	internal.LogDebug("Generating response: %d history messages, %d turns", len(history), len(turns))

	body, err := sonic.Marshal(newGenerateRequest(turns))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %s", redactKey(err.Error(), c.apiKey))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.redactTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newGeminiAPIError(resp.StatusCode, respBody)
	}

	var parsed generateResponse
	if err := sonic.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(parsed.Candidates) == 0 {
		return "", ErrNoResponse
	}

	candidate := parsed.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", ErrInvalidResponse
	}

	return candidate.Content.Parts[0].Text, nil
}

func newGeminiAPIError(status int, body []byte) *APIError {
	message := http.StatusText(status)
	var errResp geminiErrorResponse
	if sonic.Unmarshal(body, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return &APIError{Provider: geminiProvider, StatusCode: status, Message: message}
}

// redactTransportError keeps the error's type but strips the key from the
// request URL that net/http embeds in it.
func (c *GeminiClient) redactTransportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactKey(urlErr.URL, c.apiKey)
	}
	return err
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(key), redactedKeyText)
	return strings.ReplaceAll(s, key, redactedKeyText)
}
