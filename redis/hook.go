package redis

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/circleci/redisusage/o11y"
)

// tracingHook wraps each command and pipeline in a span.
type tracingHook struct {
	name string
	db   int
}

func newTracingHook(name string, db int) *tracingHook {
	return &tracingHook{name: name, db: db}
}

func (h *tracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (conn net.Conn, err error) {
		ctx, span := o11y.StartSpan(ctx, h.name+": dial")
		defer o11y.End(span, &err)
		span.AddRawField("db.system", "redis")
		span.AddRawField("net.peer.name", addr)

		return next(ctx, network, addr)
	}
}

func (h *tracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) (err error) {
		operation := strings.ToUpper(cmd.Name())
		ctx, span := o11y.StartSpan(ctx, h.name+": "+operation)
		defer func() {
			o11y.End(span, resultErr(err))
		}()
		h.addFields(span, operation)
		span.AddRawField("db.statement.args", len(cmd.Args())-1)
		span.RecordMetric(o11y.Timing("redis.command", "db.operation", "result"))

		return next(ctx, cmd)
	}
}

func (h *tracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) (err error) {
		ctx, span := o11y.StartSpan(ctx, h.name+": pipeline")
		defer func() {
			o11y.End(span, resultErr(err))
		}()
		h.addFields(span, "PIPELINE")
		span.AddRawField("db.pipeline.size", len(cmds))

		return next(ctx, cmds)
	}
}

func (h *tracingHook) addFields(span o11y.Span, operation string) {
	span.AddRawField("db.system", "redis")
	span.AddRawField("db.name", h.name)
	span.AddRawField("db.redis.database_index", h.db)
	span.AddRawField("db.operation", operation)
}

// resultErr treats a missing key as a successful command.
func resultErr(err error) *error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return &err
}
