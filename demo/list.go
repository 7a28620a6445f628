package demo

import (
	"context"

	"github.com/circleci/redisusage/o11y"
)

type ListResult struct {
	Key string `yaml:"key"`
	// Index1 is the element at index 1 after pushing AAA to the tail and BBB to the head
	Index1   string   `yaml:"index_1"`
	All      []string `yaml:"all"`
	Sub      []string `yaml:"sub"`
	Length   int64    `yaml:"length"`
	RemovedA int64    `yaml:"removed_a"`
	// RemovedHead and RemovedTail count the Bs removed from each end
	RemovedHead int64    `yaml:"removed_head"`
	RemovedTail int64    `yaml:"removed_tail"`
	Trimmed     []string `yaml:"trimmed"`
}

// List pushes to both ends, reads by index and range, removes values counted from the
// head and from the tail, and finally trims the list.
func (d *Demonstrator) List(ctx context.Context) (res ListResult, err error) {
	ctx, span := d.startBlock(ctx, "list", ListKey)
	defer o11y.End(span, &err)

	res.Key = ListKey

	err = d.client.RPush(ctx, ListKey, "AAA").Err()
	if err != nil {
		return res, err
	}

	err = d.client.LPush(ctx, ListKey, "BBB").Err()
	if err != nil {
		return res, err
	}

	res.Index1, err = d.client.LIndex(ctx, ListKey, 1).Result()
	if err != nil {
		return res, err
	}

	res.All, err = d.client.LRange(ctx, ListKey, 0, -1).Result()
	if err != nil {
		return res, err
	}

	res.Sub, err = d.client.LRange(ctx, ListKey, 1, 2).Result()
	if err != nil {
		return res, err
	}

	res.Length, err = d.client.RPush(ctx, ListKey, "B", "B", "B", "D").Result()
	if err != nil {
		return res, err
	}

	// A count of 0 removes every match
	res.RemovedA, err = d.client.LRem(ctx, ListKey, 0, "A").Result()
	if err != nil {
		return res, err
	}

	res.RemovedHead, err = d.client.LRem(ctx, ListKey, 1, "B").Result()
	if err != nil {
		return res, err
	}

	res.RemovedTail, err = d.client.LRem(ctx, ListKey, -2, "B").Result()
	if err != nil {
		return res, err
	}

	err = d.client.LTrim(ctx, ListKey, 1, 2).Err()
	if err != nil {
		return res, err
	}

	res.Trimmed, err = d.client.LRange(ctx, ListKey, 0, -1).Result()
	if err != nil {
		return res, err
	}

	span.AddField("length", len(res.Trimmed))
	return res, nil
}
