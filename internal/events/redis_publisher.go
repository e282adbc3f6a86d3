// Package events publishes group activity notifications over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/types"
)

// Config holds configuration for RedisPublisher.
type Config struct {
	PublishTimeout time.Duration
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		PublishTimeout: 5 * time.Second,
	}
}

type metrics struct {
	publishLatency prometheus.Histogram
	errorCount     *prometheus.CounterVec
	eventCount     *prometheus.CounterVec
}

var (
	metricsInstance *metrics
	metricsOnce     sync.Once
)

// newMetrics registers publisher metrics once; repeated publishers share them.
func newMetrics() *metrics {
	metricsOnce.Do(func() {
		metricsInstance = &metrics{
			publishLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "group_event_publish_duration_seconds",
				Help:    "Time taken to publish group events",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}),
			errorCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "group_event_errors_total",
				Help: "Total number of event publishing errors",
			}, []string{"type"}),
			eventCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "group_events_total",
				Help: "Total number of published group events by type",
			}, []string{"type"}),
		}
	})
	return metricsInstance
}

// RedisPublisher publishes group events to a per-group Redis channel.
type RedisPublisher struct {
	client  *redis.Client
	config  Config
	metrics *metrics
}

var _ types.EventPublisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(client *redis.Client, cfg Config) *RedisPublisher {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	return &RedisPublisher{
		client:  client,
		config:  cfg,
		metrics: newMetrics(),
	}
}

// ChannelForGroup returns the Redis channel carrying a group's events.
func ChannelForGroup(groupID string) string {
	return fmt.Sprintf("group:%s:events", groupID)
}

// Publish sends the event to the group's channel.
func (p *RedisPublisher) Publish(ctx context.Context, groupID string, event types.Event) error {
	log := logger.GetLogger()
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		p.metrics.errorCount.WithLabelValues(string(event.Type)).Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, ChannelForGroup(groupID), payload).Err(); err != nil {
		p.metrics.errorCount.WithLabelValues(string(event.Type)).Inc()
		return fmt.Errorf("publish event: %w", err)
	}

	p.metrics.publishLatency.Observe(time.Since(start).Seconds())
	p.metrics.eventCount.WithLabelValues(string(event.Type)).Inc()
	log.Debugw("Published group event", "type", event.Type, "groupId", groupID)
	return nil
}

// NoopPublisher discards events. Used when Redis is not configured and in
// service tests that do not assert on events.
type NoopPublisher struct{}

var _ types.EventPublisher = (*NoopPublisher)(nil)

func (NoopPublisher) Publish(context.Context, string, types.Event) error {
	return nil
}
