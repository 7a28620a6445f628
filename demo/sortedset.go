package demo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/circleci/redisusage/o11y"
)

// TopN bounds the descending queries of the sorted set block, by rank and by score.
const TopN = 10

type Member struct {
	Name  string  `yaml:"name"`
	Score float64 `yaml:"score"`
}

type SortedSetResult struct {
	Key         string `yaml:"key"`
	Cardinality int64  `yaml:"cardinality"`
	// Members in stored (ascending score) order
	Members    []string `yaml:"members"`
	WithScores []Member `yaml:"with_scores"`
	// DannyRank is Danny's 0-based rank with the highest score first
	DannyRank     int64    `yaml:"danny_rank"`
	Top           []string `yaml:"top"`
	TopWithScores []Member `yaml:"top_with_scores"`
	Removed       int64    `yaml:"removed"`
}

// SortedSet adds Amy, Andy and Danny with scores, queries them in both ascending and
// descending order, then removes Andy.
func (d *Demonstrator) SortedSet(ctx context.Context) (res SortedSetResult, err error) {
	ctx, span := d.startBlock(ctx, "sorted_set", SortedSetKey)
	defer o11y.End(span, &err)

	res.Key = SortedSetKey

	err = d.client.ZAdd(ctx, SortedSetKey, redis.Z{Score: 5, Member: "Amy"}).Err()
	if err != nil {
		return res, err
	}

	err = d.client.ZAdd(ctx, SortedSetKey,
		redis.Z{Score: 8, Member: "Andy"},
		redis.Z{Score: 4, Member: "Danny"},
	).Err()
	if err != nil {
		return res, err
	}

	res.Cardinality, err = d.client.ZCard(ctx, SortedSetKey).Result()
	if err != nil {
		return res, err
	}

	res.Members, err = d.client.ZRangeByLex(ctx, SortedSetKey, &redis.ZRangeBy{Min: "-", Max: "+"}).Result()
	if err != nil {
		return res, err
	}

	zs, err := d.client.ZRangeByScoreWithScores(ctx, SortedSetKey, &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	if err != nil {
		return res, err
	}
	res.WithScores = members(zs)

	res.DannyRank, err = d.client.ZRevRank(ctx, SortedSetKey, "Danny").Result()
	if err != nil {
		return res, err
	}

	res.Top, err = d.client.ZRevRange(ctx, SortedSetKey, 0, TopN).Result()
	if err != nil {
		return res, err
	}

	zs, err = d.client.ZRevRangeByScoreWithScores(ctx, SortedSetKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprint(TopN),
	}).Result()
	if err != nil {
		return res, err
	}
	res.TopWithScores = members(zs)

	res.Removed, err = d.client.ZRem(ctx, SortedSetKey, "Andy").Result()
	if err != nil {
		return res, err
	}

	span.AddField("cardinality", res.Cardinality)
	span.AddField("danny_rank", res.DannyRank)
	return res, nil
}

func members(zs []redis.Z) []Member {
	ms := make([]Member, 0, len(zs))
	for _, z := range zs {
		ms = append(ms, Member{Name: fmt.Sprint(z.Member), Score: z.Score})
	}
	return ms
}
