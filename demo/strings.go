package demo

import (
	"context"
	"fmt"

	"github.com/circleci/redisusage/o11y"
)

type StringResult struct {
	Key     string `yaml:"key"`
	Value   string `yaml:"value"`
	Deleted int64  `yaml:"deleted"`
}

// Strings writes, reads back, prints and deletes a single value.
func (d *Demonstrator) Strings(ctx context.Context) (res StringResult, err error) {
	ctx, span := d.startBlock(ctx, "string", StringKey)
	defer o11y.End(span, &err)

	res.Key = StringKey

	err = d.client.Set(ctx, StringKey, "0523", 0).Err()
	if err != nil {
		return res, err
	}

	res.Value, err = d.client.Get(ctx, StringKey).Result()
	if err != nil {
		return res, err
	}
	span.AddField("value", res.Value)

	_, err = fmt.Fprintf(d.out, "Key %s，Value: %s\n", StringKey, res.Value)
	if err != nil {
		return res, err
	}

	res.Deleted, err = d.client.Del(ctx, StringKey).Result()
	if err != nil {
		return res, err
	}
	return res, nil
}
