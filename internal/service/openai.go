package service

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// OpenAIClient implements the LLM capability using the OpenAI chat API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIClient builds the client from viper config.
func NewOpenAIClient(logger *zap.Logger) (*OpenAIClient, error) {
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")

	apiKey := viper.GetString("openai.api_key")
	if apiKey == "" {
		return nil, errors.New("openai.api_key is not configured")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := viper.GetString("openai.base_url"); baseURL != "" {
		config.BaseURL = baseURL
	}

	model := viper.GetString("openai.model")
	if model == "" {
		model = openai.GPT4Turbo
	}

	timeout := viper.GetDuration("openai.timeout")
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Error("OpenAI completion failed", zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
