// infrastructure/publish/http_publisher.go
package publish

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

// HTTPPublisher forwards posts to a platform bridge endpoint.
type HTTPPublisher struct {
	endpoint string
	client   *http.Client
}

func NewHTTPPublisher(endpoint string, timeout time.Duration) *HTTPPublisher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPublisher{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

type postPayload struct {
	Platform    domain.Platform `json:"platform"`
	VideoID     string          `json:"video_id"`
	VideoURL    string          `json:"video_url"`
	Description string          `json:"description"`
}

func (p *HTTPPublisher) Publish(ctx context.Context, req domain.PublishRequest) error {
	body, err := json.Marshal(postPayload{
		Platform:    req.Platform,
		VideoID:     req.VideoID,
		VideoURL:    req.VideoURL,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create publish request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.AccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.AccessToken)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrPublishFailed, req.Platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrPublishFailed, req.Platform, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
