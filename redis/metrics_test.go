package redis

import (
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/redisusage/testing/redisfixture"
	"github.com/circleci/redisusage/testing/testcontext"
)

func TestMetrics(t *testing.T) {
	ctx := testcontext.Background()
	fix := redisfixture.Setup(ctx, t, redisfixture.DefaultConnection())

	m := NewMetrics("demo", fix.Client)
	assert.Check(t, cmp.Equal(m.MetricName(), fmt.Sprintf("demo_db%d", fix.DB)))

	assert.Assert(t, fix.Set(ctx, "Hello", "0523", 0).Err())
	gauges := m.Gauges(ctx)

	for _, key := range []string{
		"hits", "misses", "timeouts", "unusable", "waits", "wait_ms",
		"total_connections", "idle_connections", "stale_connections",
	} {
		assert.Check(t, hasKey(gauges, key), key)
	}
	assert.Check(t, gauges["total_connections"] >= 1)
}

func hasKey(m map[string]float64, key string) bool {
	_, ok := m[key]
	return ok
}
