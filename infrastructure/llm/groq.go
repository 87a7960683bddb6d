// infrastructure/llm/groq.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vitovidale/video-publisher-service/domain"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama3-8b-8192"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 800
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	// TranscriptBudget caps how much transcript goes into a prompt.
	TranscriptBudget int
}

// GroqGenerator talks to Groq through its OpenAI-compatible chat endpoint.
type GroqGenerator struct {
	client *openai.Client
	cfg    Config
}

func NewGroqGenerator(cfg Config) *GroqGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.TranscriptBudget == 0 {
		cfg.TranscriptBudget = DefaultTranscriptBudget
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GroqGenerator{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

func (g *GroqGenerator) BuildPrompt(transcript, platform, title string) string {
	return BuildPrompt(transcript, platform, title, g.cfg.TranscriptBudget)
}

func (g *GroqGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: groq status %d: %s", domain.ErrUpstream, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: groq request: %v", domain.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: groq returned no choices", domain.ErrUpstream)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
