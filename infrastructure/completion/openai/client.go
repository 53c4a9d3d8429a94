// Package openai generates LinkedIn content through the OpenAI chat API.
package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
)

// SystemPrompt frames every generation request
const SystemPrompt = "You are a LinkedIn content strategist. Write ready-to-publish content " +
	"that follows the instructions exactly and contains no commentary about the request."

// ErrEmptyCompletion is returned when the model answers without choices
var ErrEmptyCompletion = errors.New("model returned no choices")

// Config holds the settings of the completion client
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Retries int
}

// Client implements ports.CompletionService
type Client struct {
	chat   openai.Client
	logger *zap.Logger
}

var _ ports.CompletionService = (*Client)(nil)

// NewClient creates a completion client. An empty base URL targets the
// public OpenAI API.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.Retries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.Retries))
	}

	return &Client{
		chat:   openai.NewClient(opts...),
		logger: logger,
	}, nil
}

// Generate sends the prompt as a single user turn and returns the first choice
func (c *Client) Generate(ctx context.Context, prompt string, params content.CompletionParams) (*ports.Completion, error) {
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(params.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(params.Temperature),
	}
	if params.MaxTokens > 0 {
		body.MaxCompletionTokens = openai.Int(params.MaxTokens)
	}

	start := time.Now()
	resp, err := c.chat.Chat.Completions.New(ctx, body)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			c.logger.Warn("Completion rejected",
				zap.String("model", params.Model),
				zap.Int("status", apiErr.StatusCode),
				zap.String("message", apiErr.Message),
			)
			return nil, errors.New(apiErr.Message)
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	completion := &ports.Completion{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: resp.Model,
		Usage: ports.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	c.logger.Debug("Completion generated",
		zap.String("model", completion.Model),
		zap.Int64("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return completion, nil
}
