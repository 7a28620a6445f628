package demo

import (
	"context"

	"github.com/circleci/redisusage/o11y"
)

type SetResult struct {
	Key string `yaml:"key"`
	// Added counts only new members, so duplicates in a bulk add are not counted
	Added       int64    `yaml:"added"`
	BulkAdded   int64    `yaml:"bulk_added"`
	Removed     int64    `yaml:"removed"`
	Cardinality int64    `yaml:"cardinality"`
	Members     []string `yaml:"members"`
	// ContainsOne reports membership of 1 after it was removed
	ContainsOne bool `yaml:"contains_one"`
}

// Set adds "1", bulk adds 1, 1, 2 and 3, removes 1 and then inspects what is left.
func (d *Demonstrator) Set(ctx context.Context) (res SetResult, err error) {
	ctx, span := d.startBlock(ctx, "set", SetKey)
	defer o11y.End(span, &err)

	res.Key = SetKey

	res.Added, err = d.client.SAdd(ctx, SetKey, "1").Result()
	if err != nil {
		return res, err
	}

	res.BulkAdded, err = d.client.SAdd(ctx, SetKey, 1, 1, 2, 3).Result()
	if err != nil {
		return res, err
	}

	res.Removed, err = d.client.SRem(ctx, SetKey, 1).Result()
	if err != nil {
		return res, err
	}

	res.Cardinality, err = d.client.SCard(ctx, SetKey).Result()
	if err != nil {
		return res, err
	}

	res.Members, err = d.client.SMembers(ctx, SetKey).Result()
	if err != nil {
		return res, err
	}

	res.ContainsOne, err = d.client.SIsMember(ctx, SetKey, 1).Result()
	if err != nil {
		return res, err
	}

	span.AddField("cardinality", res.Cardinality)
	return res, nil
}
