// infrastructure/publish/simulated.go
package publish

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/vitovidale/video-publisher-service/domain"
)

const (
	DefaultFailureRate = 0.2
	DefaultLatency     = 1500 * time.Millisecond
)

// SimulatedPublisher stands in for platforms without a real integration. It
// waits for Latency and then fails with probability FailureRate.
type SimulatedPublisher struct {
	FailureRate float64
	Latency     time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

func NewSimulatedPublisher(failureRate float64, latency time.Duration, source rand.Source) *SimulatedPublisher {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	return &SimulatedPublisher{FailureRate: failureRate, Latency: latency, rand: rand.New(source)}
}

func (p *SimulatedPublisher) Publish(ctx context.Context, req domain.PublishRequest) error {
	if p.Latency > 0 {
		timer := time.NewTimer(p.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", domain.ErrPublishFailed, req.Platform, ctx.Err())
		case <-timer.C:
		}
	}

	p.mu.Lock()
	roll := p.rand.Float64()
	p.mu.Unlock()

	if roll < p.FailureRate {
		return fmt.Errorf("%w: simulated %s outage", domain.ErrPublishFailed, req.Platform)
	}
	log.Printf("Simulated publish of video %s to %s", req.VideoID, req.Platform)
	return nil
}
