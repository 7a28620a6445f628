package demo

import (
	"context"
	"time"

	"github.com/circleci/redisusage/o11y"
)

type ExpiryResult struct {
	Key string        `yaml:"key"`
	TTL time.Duration `yaml:"ttl"`
	// Expiring is false if the key vanished before the TTL could be attached
	Expiring bool `yaml:"expiring"`
}

// Expiry writes a string and then attaches the TTL to it.
func (d *Demonstrator) Expiry(ctx context.Context) (res ExpiryResult, err error) {
	ctx, span := d.startBlock(ctx, "expiry", ExpiryKey)
	defer o11y.End(span, &err)

	res = ExpiryResult{Key: ExpiryKey, TTL: d.ttl}

	err = d.client.Set(ctx, ExpiryKey, "hello world", 0).Err()
	if err != nil {
		return res, err
	}

	res.Expiring, err = d.client.Expire(ctx, ExpiryKey, d.ttl).Result()
	if err != nil {
		return res, err
	}
	span.AddField("expiring", res.Expiring)
	return res, nil
}
