package demo

import (
	"context"

	"github.com/circleci/redisusage/o11y"
)

type HashResult struct {
	Key      string   `yaml:"key"`
	Expiring bool     `yaml:"expiring"`
	Values   []string `yaml:"values"`
	Fields   []string `yaml:"fields"`
}

// Hash sets three fields in one call, attaches the TTL, then reads the values and
// field names back.
func (d *Demonstrator) Hash(ctx context.Context) (res HashResult, err error) {
	ctx, span := d.startBlock(ctx, "hash", HashKey)
	defer o11y.End(span, &err)

	res.Key = HashKey

	err = d.client.HSet(ctx, HashKey,
		"Number", "1",
		"Name", "Max",
		"Phone", "3345678",
	).Err()
	if err != nil {
		return res, err
	}

	res.Expiring, err = d.client.Expire(ctx, HashKey, d.ttl).Result()
	if err != nil {
		return res, err
	}

	res.Values, err = d.client.HVals(ctx, HashKey).Result()
	if err != nil {
		return res, err
	}

	res.Fields, err = d.client.HKeys(ctx, HashKey).Result()
	if err != nil {
		return res, err
	}
	span.AddField("fields", len(res.Fields))
	return res, nil
}
