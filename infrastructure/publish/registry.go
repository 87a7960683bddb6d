// infrastructure/publish/registry.go
package publish

import (
	"context"
	"fmt"

	"github.com/vitovidale/video-publisher-service/domain"
)

// Registry routes a publish request to the publisher configured for its platform.
type Registry struct {
	publishers map[domain.Platform]domain.PlatformPublisher
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[domain.Platform]domain.PlatformPublisher)}
}

func (r *Registry) Register(platform domain.Platform, publisher domain.PlatformPublisher) {
	r.publishers[platform] = publisher
}

func (r *Registry) Publish(ctx context.Context, req domain.PublishRequest) error {
	publisher, ok := r.publishers[req.Platform]
	if !ok {
		return fmt.Errorf("%w: no publisher for platform %s", domain.ErrPublishFailed, req.Platform)
	}
	return publisher.Publish(ctx, req)
}

// NewRegistryFromEndpoints registers an HTTP publisher for every platform that
// has an endpoint and falls back to the simulated publisher for the rest.
func NewRegistryFromEndpoints(endpoints map[domain.Platform]string, fallback domain.PlatformPublisher) *Registry {
	registry := NewRegistry()
	for _, platform := range domain.Platforms {
		if endpoint := endpoints[platform]; endpoint != "" {
			registry.Register(platform, NewHTTPPublisher(endpoint, 0))
			continue
		}
		if fallback != nil {
			registry.Register(platform, fallback)
		}
	}
	return registry
}
