/*
Package demo walks through the basic Redis data structures, one block of commands per
structure, against a single client.

Each block is self-contained and owns one key. Blocks are traced with o11y and return what
they read back, so a caller can print or check the results.
*/
package demo

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/circleci/redisusage/o11y"
)

// Keys used by each block.
const (
	ExpiryKey    = "sample"
	HashKey      = "hashData:Max"
	SortedSetKey = "sortedSet"
	SetKey       = "set"
	StringKey    = "Hello"
	ListKey      = "List"
)

const DefaultTTL = 5 * time.Second

type Options struct {
	// TTL attached by the expiry and hash blocks, default is DefaultTTL
	TTL time.Duration
	// Out receives the string block's console line, default is os.Stdout
	Out io.Writer
}

type Demonstrator struct {
	client redis.Cmdable
	ttl    time.Duration
	out    io.Writer
}

func New(client redis.Cmdable, o Options) *Demonstrator {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	return &Demonstrator{
		client: client,
		ttl:    o.TTL,
		out:    o.Out,
	}
}

type Report struct {
	Expiry    ExpiryResult    `yaml:"expiry"`
	Hash      HashResult      `yaml:"hash"`
	SortedSet SortedSetResult `yaml:"sorted_set"`
	Set       SetResult       `yaml:"set"`
	String    StringResult    `yaml:"string"`
	List      ListResult      `yaml:"list"`
}

// Run performs every block in order. The first failing block stops the run.
func (d *Demonstrator) Run(ctx context.Context) (report Report, err error) {
	ctx, span := o11y.StartSpan(ctx, "demo: run")
	defer o11y.End(span, &err)
	span.AddField("ttl", d.ttl)

	if report.Expiry, err = d.Expiry(ctx); err != nil {
		return report, fmt.Errorf("expiry: %w", err)
	}
	if report.Hash, err = d.Hash(ctx); err != nil {
		return report, fmt.Errorf("hash: %w", err)
	}
	if report.SortedSet, err = d.SortedSet(ctx); err != nil {
		return report, fmt.Errorf("sorted set: %w", err)
	}
	if report.Set, err = d.Set(ctx); err != nil {
		return report, fmt.Errorf("set: %w", err)
	}
	if report.String, err = d.Strings(ctx); err != nil {
		return report, fmt.Errorf("string: %w", err)
	}
	if report.List, err = d.List(ctx); err != nil {
		return report, fmt.Errorf("list: %w", err)
	}
	return report, nil
}

func (d *Demonstrator) startBlock(ctx context.Context, block, key string) (context.Context, o11y.Span) {
	ctx, span := o11y.StartSpan(ctx, "demo: "+block)
	span.AddField("block", block)
	span.AddField("key", key)
	span.RecordMetric(o11y.Timing("demo.block", "block", "result"))
	return ctx, span
}
