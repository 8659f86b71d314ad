package gemini

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

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// Provider speaks the Google Generative Language REST API.
type Provider struct {
	config *Config
	client *http.Client
}

// New creates a new Gemini provider. The API key and model are required.
func New(config *Config) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("gemini: config cannot be nil")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
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
	return "gemini/" + p.config.Model
}

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Generate implements provider.Provider. System messages are folded into the
// request's systemInstruction; assistant turns use the "model" role Gemini
// expects.
func (p *Provider) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	var system []contentPart
	contents := make([]content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			system = append(system, contentPart{Text: msg.Text()})
		case message.RoleAssistant:
			contents = append(contents, content{Role: "model", Parts: []contentPart{{Text: msg.Text()}}})
		default:
			contents = append(contents, content{Role: "user", Parts: []contentPart{{Text: msg.Text()}}})
		}
	}

	payload := generateRequest{
		Contents: contents,
		GenerationConfig: &generationConfig{
			Temperature:     p.config.Temperature,
			MaxOutputTokens: p.config.MaxTokens,
		},
	}
	if len(system) > 0 {
		payload.SystemInstruction = &content{Parts: system}
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", p.config.BaseURL, p.config.Model, p.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &apperrors.ProviderError{Provider: "gemini", Status: httpResp.StatusCode, Message: string(respBody)}
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("gemini: unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return nil, &apperrors.ProviderError{Provider: "gemini", Status: resp.Error.Code, Message: resp.Error.Message}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: %w", apperrors.ErrEmptyResponse)
	}

	return message.NewMessage(message.RoleAssistant, resp.Candidates[0].Content.Parts[0].Text), nil
}
