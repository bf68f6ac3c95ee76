package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatClient is the part of the go-openai client the judges need.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatClientFactory builds a chat client for one caller's API key.
type ChatClientFactory func(apiKey string) ChatClient

// NewOpenAIClientFactory returns a factory for any OpenAI-compatible endpoint.
func NewOpenAIClientFactory(baseURL string, timeout time.Duration) ChatClientFactory {
	httpClient := &http.Client{Timeout: timeout}
	return func(apiKey string) ChatClient {
		cfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = strings.TrimRight(baseURL, "/")
		}
		cfg.HTTPClient = httpClient
		return openai.NewClientWithConfig(cfg)
	}
}

var errEmptyCompletion = errors.New("LLM returned no content")

// Judge sends one JSON-mode prompt to a chat model and returns the raw answer.
type Judge struct {
	Client ChatClient
	Model  string
	Logger *zap.Logger
}

func NewJudge(client ChatClient, model string, logger *zap.Logger) *Judge {
	return &Judge{Client: client, Model: model, Logger: logger}
}

func (j *Judge) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: j.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	started := time.Now()
	resp, err := j.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmptyCompletion
	}
	j.Logger.Debug("LLM judge answered",
		zap.String("model", j.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("took", time.Since(started)))
	return resp.Choices[0].Message.Content, nil
}
