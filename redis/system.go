package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/circleci/redisusage/system"
)

// Load will create a new Redis client, and wire it into the provided System with
// default lifecycle management and observability.
func Load(o Options, sys *system.System) *redis.Client {
	client := New(o)

	sys.AddCleanup(func(_ context.Context) error {
		return client.Close()
	})

	name := o.name()
	sys.AddHealthCheck(NewHealthCheck(client, name))
	sys.AddMetrics(NewMetrics(name, client))

	return client
}
