package system

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/circleci/redisusage/o11y"
	"github.com/circleci/redisusage/termination"
)

type HealthChecker interface {
	// HealthChecks returns the name of the checked resource and its ready and live checks.
	// Either check may be nil.
	HealthChecks() (name string, ready, live func(ctx context.Context) error)
}

type System struct {
	healthChecks    []HealthChecker
	metricProducers []MetricProducer
	cleanups        []func(ctx context.Context) error
}

func New() *System {
	return &System{}
}

var terminationTestHook = termination.Handle

// Run runs task alongside the termination handler. It returns the task's error, or
// termination.ErrTerminated if a signal arrived first. The task's context is cancelled
// on termination. A panic in task is recovered and returned as an error.
func (r *System) Run(ctx context.Context, task func(ctx context.Context) error) (err error) {
	ctx, span := o11y.StartSpan(ctx, "system: run")
	defer o11y.End(span, &err)
	span.RecordMetric(o11y.Timing("system.run", "result"))

	g, ctx := errgroup.WithContext(ctx)
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.Go(func() (err error) {
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				err = o11y.HandlePanic(ctx, span, p)
			}
		}()
		return task(taskCtx)
	})
	g.Go(func() error {
		return terminationTestHook(taskCtx)
	})

	return g.Wait()
}

// Ready runs every registered ready check concurrently and returns the first failure.
func (r *System) Ready(ctx context.Context) (err error) {
	ctx, span := o11y.StartSpan(ctx, "system: ready")
	defer o11y.End(span, &err)

	g, ctx := errgroup.WithContext(ctx)
	for _, h := range r.healthChecks {
		name, ready, _ := h.HealthChecks()
		if ready == nil {
			continue
		}
		g.Go(func() error {
			if err := ready(ctx); err != nil {
				return fmt.Errorf("%s not ready: %w", name, err)
			}
			return nil
		})
	}
	span.AddField("checks", len(r.healthChecks))
	return g.Wait()
}

func (r *System) AddHealthCheck(h HealthChecker) {
	r.healthChecks = append(r.healthChecks, h)
}

func (r *System) AddMetrics(m MetricProducer) {
	r.metricProducers = append(r.metricProducers, m)
}

func (r *System) AddCleanup(c func(ctx context.Context) error) {
	r.cleanups = append(r.cleanups, c)
}

func (r *System) HealthChecks() []HealthChecker {
	return r.healthChecks
}

// EmitMetrics publishes the gauges of every registered producer once.
func (r *System) EmitMetrics(ctx context.Context) {
	traceMetrics(ctx, r.metricProducers)
}

// Cleanup runs the cleanups in reverse order of registration, so later resources
// that depend on earlier ones are released first.
func (r *System) Cleanup(ctx context.Context) {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		err := r.cleanups[i](ctx)
		if err != nil {
			o11y.LogError(ctx, "system: cleanup error", err)
		}
	}
}
