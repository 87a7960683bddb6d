// infrastructure/transcription/assemblyai.go
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vitovidale/video-publisher-service/domain"
)

const (
	DefaultBaseURL = "https://api.assemblyai.com"
	ProviderName   = "assemblyai"
)

type Config struct {
	BaseURL string
	APIKey  string
	// WebhookURL is where the provider reports status changes.
	WebhookURL string
	// WebhookSecret, when set, is sent back by the provider in WebhookHeader.
	WebhookSecret string
	WebhookHeader string
	Timeout       time.Duration
}

type AssemblyAIClient struct {
	cfg    Config
	client *http.Client
}

func NewAssemblyAIClient(cfg Config) *AssemblyAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &AssemblyAIClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type submitRequest struct {
	AudioURL               string `json:"audio_url"`
	SpeakerLabels          bool   `json:"speaker_labels"`
	WebhookURL             string `json:"webhook_url,omitempty"`
	WebhookAuthHeaderName  string `json:"webhook_auth_header_name,omitempty"`
	WebhookAuthHeaderValue string `json:"webhook_auth_header_value,omitempty"`
}

// Submit asks the provider to transcribe a publicly reachable media URL.
func (c *AssemblyAIClient) Submit(ctx context.Context, mediaURL string) (*domain.TranscriptHandle, error) {
	if mediaURL == "" {
		return nil, domain.Validationf("media url is required")
	}
	req := submitRequest{
		AudioURL:      mediaURL,
		SpeakerLabels: true,
		WebhookURL:    c.cfg.WebhookURL,
	}
	if c.cfg.WebhookSecret != "" && c.cfg.WebhookHeader != "" {
		req.WebhookAuthHeaderName = c.cfg.WebhookHeader
		req.WebhookAuthHeaderValue = c.cfg.WebhookSecret
	}

	var handle domain.TranscriptHandle
	if err := c.do(ctx, http.MethodPost, "/v2/transcript", req, &handle); err != nil {
		return nil, fmt.Errorf("error submitting transcription job: %w", err)
	}
	if handle.ID == "" {
		return nil, fmt.Errorf("error submitting transcription job: %w: empty transcript id", domain.ErrUpstream)
	}
	if handle.Status == domain.TranscriptError {
		return nil, fmt.Errorf("transcription rejected: %w: %s", domain.ErrUpstream, handle.Error)
	}
	return &handle, nil
}

func (c *AssemblyAIClient) GetStatus(ctx context.Context, transcriptID string) (*domain.TranscriptHandle, error) {
	var handle domain.TranscriptHandle
	if err := c.do(ctx, http.MethodGet, "/v2/transcript/"+transcriptID, nil, &handle); err != nil {
		return nil, fmt.Errorf("error getting transcription status: %w", err)
	}
	return &handle, nil
}

// GetCompleted fails with ErrTranscriptNotCompleted until the provider is done.
func (c *AssemblyAIClient) GetCompleted(ctx context.Context, transcriptID string) (*domain.TranscriptHandle, error) {
	handle, err := c.GetStatus(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	if handle.Status != domain.TranscriptCompleted {
		return nil, fmt.Errorf("%w, current status: %s", domain.ErrTranscriptNotCompleted, handle.Status)
	}
	return handle, nil
}

func (c *AssemblyAIClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: assemblyai status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}
