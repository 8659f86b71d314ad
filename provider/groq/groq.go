package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/cortexlab/discovery/errors"
	"github.com/cortexlab/discovery/message"
)

const defaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"

// Config holds Groq provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// Provider speaks the Groq OpenAI-compatible chat completions API.
type Provider struct {
	config *Config
	client *http.Client
}

// New creates a new Groq provider. The API key and model are required.
func New(config *Config) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("groq: config cannot be nil")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("groq: API key not configured")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("groq: model not configured")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	return &Provider{
		config: config,
		client: client,
	}, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return "groq/" + p.config.Model
}

// chatMessage represents a message in Groq API format
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest represents a Groq API request
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatChoice represents a choice in Groq API response
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// chatResponse represents a Groq API response
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

// apiError represents an error in Groq API response
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{
			Role:    string(msg.Role),
			Content: msg.Text(),
		}
	}

	req := chatRequest{
		Model:       p.config.Model,
		Messages:    chatMessages,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("groq: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("groq: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("groq: send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("groq: read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &apperrors.ProviderError{Provider: "groq", Status: httpResp.StatusCode, Message: string(respBody)}
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("groq: unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return nil, &apperrors.ProviderError{Provider: "groq", Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("groq: %w", apperrors.ErrEmptyResponse)
	}

	return message.NewMessage(message.RoleAssistant, resp.Choices[0].Message.Content), nil
}
