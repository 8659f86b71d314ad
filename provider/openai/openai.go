package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	apperrors "github.com/cortexlab/discovery/errors"
	"github.com/cortexlab/discovery/message"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Provider wraps the official OpenAI SDK.
type Provider struct {
	config *Config
	client openai.Client
}

// New creates a new OpenAI provider using the official SDK. The API key is
// required.
func New(config *Config) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("openai: config cannot be nil")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}
	if config.Model == "" {
		config.Model = string(openai.ChatModelGPT4oMini)
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(options...),
	}, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return "openai/" + p.config.Model
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	chatMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			chatMessages = append(chatMessages, openai.SystemMessage(msg.Text()))
		case message.RoleAssistant:
			chatMessages = append(chatMessages, openai.AssistantMessage(msg.Text()))
		default:
			chatMessages = append(chatMessages, openai.UserMessage(msg.Text()))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:            chatMessages,
		Model:               openai.ChatModel(p.config.Model),
		MaxCompletionTokens: param.NewOpt(p.config.MaxTokens),
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w", apperrors.ErrEmptyResponse)
	}

	return message.NewMessage(message.RoleAssistant, completion.Choices[0].Message.Content), nil
}
