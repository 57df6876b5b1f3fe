package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"lorealchat/internal/models"
)

const defaultClaudeMaxTokens = 3000

// ProviderSettings selects and authenticates a model provider.
type ProviderSettings struct {
	Provider  string
	BaseURL   string
	Model     string
	APIKey    string
	MaxTokens int
}

type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ProviderClient talks to a model provider directly through eino.
type ProviderClient struct {
	provider string
	model    generator
	logger   *zap.Logger
}

// NewProviderClient builds the chat model for settings.Provider.
func NewProviderClient(ctx context.Context, settings ProviderSettings, logger *zap.Logger) (*ProviderClient, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("api key for provider %s not configured", settings.Provider)
	}
	if settings.Model == "" {
		return nil, fmt.Errorf("model for provider %s not configured", settings.Provider)
	}
	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch settings.Provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			APIKey:  settings.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: settings.APIKey})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  settings.Model,
		})
	case "claude":
		var baseURL *string
		if settings.BaseURL != "" {
			baseURL = &settings.BaseURL
		}
		maxTokens := settings.MaxTokens
		if maxTokens <= 0 {
			maxTokens = defaultClaudeMaxTokens
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    settings.APIKey,
			Model:     settings.Model,
			BaseURL:   baseURL,
			MaxTokens: maxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", settings.Provider, err)
	}
	return newProviderClient(settings.Provider, chatModel, logger), nil
}

func newProviderClient(provider string, gen generator, logger *zap.Logger) *ProviderClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderClient{provider: provider, model: gen, logger: logger}
}

// Complete generates one reply for messages.
func (c *ProviderClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	if c.model == nil {
		return "", errors.New("chat model unavailable")
	}
	resp, err := c.model.Generate(ctx, toSchemaMessages(messages))
	if err != nil {
		c.logger.Debug("provider generate failed", zap.String("provider", c.provider), zap.Error(err))
		return "", &RemoteError{Message: err.Error(), Err: err}
	}
	if resp == nil || resp.Content == "" {
		return "", &MalformedResponseError{}
	}
	return resp.Content, nil
}

func toSchemaMessages(messages []models.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		var role schema.RoleType
		switch msg.Role {
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}
		out = append(out, &schema.Message{Role: role, Content: msg.Content})
	}
	return out
}
