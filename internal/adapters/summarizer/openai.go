// Package summarizer shortens event descriptions with an OpenAI-compatible chat completion API.
package summarizer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"eventscheduler/internal/domain"
)

const (
	systemPrompt = "You are a helpful assistant that summarizes event descriptions concisely while preserving important details."
	userPrompt   = "Please summarize this event description in 2-3 sentences: "

	defaultModel = "gpt-3.5-turbo"

	maxTokens   = 150
	temperature = 0.3
)

// Config configures the OpenAI client. An empty APIKey is reported as a
// *domain.ConfigurationError when Summarize is called, not at construction.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type openAISummarizer struct {
	client openai.Client
	model  string
	ready  bool
}

func NewOpenAISummarizer(cfg Config) domain.Summarizer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &openAISummarizer{
		client: openai.NewClient(opts...),
		model:  model,
		ready:  strings.TrimSpace(cfg.APIKey) != "",
	}
}

// Summarize returns text unchanged when it is blank or the completion has no content.
// A missing API key fails every call, blank text included.
func (s *openAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if !s.ready {
		return "", &domain.ConfigurationError{Message: "OpenAI API key not configured"}
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt + text),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &domain.ServiceError{StatusCode: apiErr.StatusCode, Message: "OpenAI API error"}
		}
		return "", &domain.ServiceError{Message: "OpenAI request failed: " + err.Error()}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return text, nil
	}
	return resp.Choices[0].Message.Content, nil
}
