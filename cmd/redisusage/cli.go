package main

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/circleci/redisusage/config/o11y"
	"github.com/circleci/redisusage/config/secret"
	"github.com/circleci/redisusage/redis"
)

type cli struct {
	RedisHost     string        `name:"redis-host" env:"REDIS_HOST" default:"127.0.0.1" help:"Host of the Redis server"`
	RedisPort     int           `name:"redis-port" env:"REDIS_PORT" default:"6379" help:"Port of the Redis server"`
	RedisUser     string        `name:"redis-user" env:"REDIS_USER" help:"ACL user, for Redis 6 and later"`
	RedisPassword secret.String `name:"redis-password" env:"REDIS_PASSWORD" help:"Password for the Redis user"`
	RedisDB       int           `name:"redis-db" env:"REDIS_DB" default:"0" help:"Redis database index"`
	RedisTLS      bool          `name:"redis-tls" env:"REDIS_TLS" help:"Connect to Redis over TLS"`

	Expiry time.Duration `env:"EXPIRY" default:"5s" help:"Time to live attached to the expiring keys"`
	Report bool          `env:"REPORT" help:"Print everything read back from Redis as YAML"`

	O11yStatsd           string         `name:"o11y-statsd" env:"O11Y_STATSD" help:"Address to send statsd metrics"`
	O11yHoneycombEnabled bool           `name:"o11y-honeycomb" env:"O11Y_HONEYCOMB" help:"Send traces to honeycomb"`
	O11yHoneycombDataset string         `name:"o11y-honeycomb-dataset" env:"O11Y_HONEYCOMB_DATASET" default:"redisusage"`
	O11yHoneycombKey     secret.String  `name:"o11y-honeycomb-key" env:"O11Y_HONEYCOMB_KEY"`
	O11yFormat           string         `name:"o11y-format" env:"O11Y_FORMAT" enum:"json,color,text,none" default:"text" help:"Format used for stderr logging"`
	O11yRollbarToken     secret.String  `name:"o11y-rollbar-token" env:"O11Y_ROLLBAR_TOKEN"`
	O11yRollbarEnv       string         `name:"o11y-rollbar-env" env:"O11Y_ROLLBAR_ENV" default:"development"`
	O11ySampleTraces     bool           `name:"o11y-sample-traces" env:"O11Y_SAMPLE_TRACES" help:"Sample traces by span name and result"`
	O11ySampleRates      map[string]int `name:"o11y-sample-rates" env:"O11Y_SAMPLE_RATES" help:"Sample rates keyed by span name and result, e.g. 'redis: PING success=10'"`
}

func (c cli) redisOptions() redis.Options {
	return redis.Options{
		Name:     "redis",
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		User:     c.RedisUser,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TLS:      c.RedisTLS,
	}
}

func loadO11y(ctx context.Context, version string, c cli) (context.Context, func(context.Context), error) {
	return o11y.Setup(ctx, c.o11yConfig(version))
}

func (c cli) o11yConfig(version string) o11y.Config {
	return o11y.Config{
		Statsd:            c.O11yStatsd,
		RollbarToken:      c.O11yRollbarToken,
		RollbarEnv:        c.O11yRollbarEnv,
		RollbarServerRoot: "github.com/circleci/redisusage",
		HoneycombEnabled:  c.O11yHoneycombEnabled,
		HoneycombDataset:  c.O11yHoneycombDataset,
		HoneycombKey:      c.O11yHoneycombKey,
		SampleTraces:      c.O11ySampleTraces,
		SampleRates:       c.O11ySampleRates,
		Format:            c.O11yFormat,
		Version:           version,
		Service:           "redisusage",
		StatsNamespace:    "circleci.redisusage.",
		Mode:              "demo",
	}
}

// loadEnvFile adds the variables in path to the environment, without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
