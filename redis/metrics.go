package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Metrics reports a client's connection pool. The group is named after the client and
// its database, e.g. "redis_db0".
type Metrics struct {
	name   string
	client *redis.Client
}

func NewMetrics(name string, client *redis.Client) *Metrics {
	return &Metrics{
		name:   name,
		client: client,
	}
}

func (m *Metrics) MetricName() string {
	return fmt.Sprintf("%s_db%d", m.name, m.client.Options().DB)
}

func (m *Metrics) Gauges(_ context.Context) map[string]float64 {
	stats := m.client.PoolStats()
	return map[string]float64{
		"hits":     float64(stats.Hits),
		"misses":   float64(stats.Misses),
		"timeouts": float64(stats.Timeouts),
		"unusable": float64(stats.Unusable),

		// waits for a free connection, and the total time spent waiting
		"waits":   float64(stats.WaitCount),
		"wait_ms": float64(stats.WaitDurationNs) / 1e6,

		"total_connections": float64(stats.TotalConns),
		"idle_connections":  float64(stats.IdleConns),
		"stale_connections": float64(stats.StaleConns),
	}
}
