package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/circleci/redisusage/o11y"
)

type MetricProducer interface {
	// MetricName The name for this group of metrics
	//(Name might be cleaner, but is much more likely to conflict in implementations)
	MetricName() string
	// Gauges are instantaneous name value pairs
	Gauges(context.Context) map[string]float64
}

func traceMetrics(ctx context.Context, producers []MetricProducer) {
	metrics := o11y.FromContext(ctx).MetricsProvider()
	for _, producer := range producers {
		traceMetric(metrics, producer.MetricName(), producer.Gauges(ctx))
	}
}

func traceMetric(provider o11y.MetricsProvider, name string, gauges map[string]float64) {
	producerName := strings.ReplaceAll(name, "-", "_")
	for f, v := range gauges {
		scopedField := fmt.Sprintf("gauge.%s.%s", producerName, f)
		_ = provider.Gauge(scopedField, v, []string{}, 1)
	}
}
