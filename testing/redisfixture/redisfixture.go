// Package redisfixture gives each test its own, empty, Redis database.
package redisfixture

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/redisusage/o11y"
	"github.com/circleci/redisusage/testing/internal/types"
)

type Fixture struct {
	*redis.Client
	DB   int
	Addr string
}

type Connection struct {
	Addr string
}

// DefaultConnection uses REDIS_ADDR, falling back to the local default port.
func DefaultConnection() Connection {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return Connection{Addr: addr}
}

var (
	once          sync.Once
	databaseCount = uint32(0)
)

func Setup(ctx context.Context, t types.TestingTB, con Connection) *Fixture {
	t.Helper()
	ctx, span := o11y.StartSpan(ctx, "redisfixture: setup")
	defer span.End()

	once.Do(func() {
		readDatabasesCount(ctx, t, con)
	})

	if databaseCount == 0 {
		t.Skip("Redis not available")
	}
	assert.Assert(t, databaseCount > 1, "redis at %s needs at least 2 databases", con.Addr)

	// Packages are tested in parallel, so spread tests over the available databases,
	// keeping the last one for locks. Tests that still land on the same database take
	// turns through the lock.
	pkg := callerPackage(1)
	db := hash(pkg+"."+t.Name(), databaseCount-1)
	span.AddField("db", db)
	span.AddField("package", pkg)

	lockDB(ctx, t, con, db, pkg+"."+t.Name())

	fixClient := redis.NewClient(&redis.Options{
		Addr: con.Addr,
		DB:   db,
	})
	t.Cleanup(func() {
		assert.Check(t, fixClient.Close())
	})

	checkRedisConnection(ctx, t, fixClient)

	err := fixClient.FlushDB(ctx).Err()
	assert.Assert(t, err)

	return &Fixture{
		Client: fixClient,
		DB:     db,
		Addr:   con.Addr,
	}
}

const lockTTL = time.Minute

var errLockHeld = errors.New("database is in use by another test")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// lockDB holds db for the rest of the test. The lock is keyed by the test, so a test
// may set up several fixtures on its own database.
func lockDB(ctx context.Context, t types.TestingTB, con Connection, db int, owner string) {
	t.Helper()
	lockClient := redis.NewClient(&redis.Options{
		Addr: con.Addr,
		DB:   int(databaseCount - 1),
	})
	key := fmt.Sprintf("redisfixture:db:%d", db)
	token := fmt.Sprintf("%s pid=%d", owner, os.Getpid())

	t.Cleanup(func() {
		assert.Check(t, release(context.Background(), lockClient, key, token))
		assert.Check(t, lockClient.Close())
	})
	assert.Assert(t, acquire(ctx, lockClient, key, token, lockTTL))
}

func acquire(ctx context.Context, client *redis.Client, key, token string, wait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = wait

	return backoff.Retry(func() error {
		ok, err := client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if ok {
			return nil
		}

		holder, err := client.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			return errLockHeld
		case err != nil:
			return backoff.Permanent(err)
		case holder == token:
			return client.PExpire(ctx, key, lockTTL).Err()
		}
		return errLockHeld
	}, backoff.WithContext(b, ctx))
}

// release drops the lock only if token still holds it.
func release(ctx context.Context, client *redis.Client, key, token string) error {
	return releaseScript.Run(ctx, client, []string{key}, token).Err()
}

// callerPackage is the import path of the function skip frames above the caller.
func callerPackage(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	name := runtime.FuncForPC(pc).Name()
	slash := strings.LastIndex(name, "/")
	if dot := strings.Index(name[slash+1:], "."); dot >= 0 {
		return name[:slash+1+dot]
	}
	return name
}

func checkRedisConnection(ctx context.Context, t types.TestingTB, client *redis.Client) {
	err := client.Ping(ctx).Err()
	switch {
	case err != nil && err.Error() == "ERR DB index is out of range":
		assert.Assert(t, err)
	case err != nil:
		t.Skip("Redis not available")
	}
}

// waitForRedis gives a freshly started server a moment to accept connections.
func waitForRedis(ctx context.Context, client *redis.Client) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 5), ctx)
	return backoff.Retry(func() error {
		return client.Ping(ctx).Err()
	}, b)
}

func readDatabasesCount(ctx context.Context, t types.TestingTB, con Connection) {
	t.Helper()

	setupClient := redis.NewClient(&redis.Options{
		Addr: con.Addr,
	})
	defer func() {
		_ = setupClient.Close()
	}()

	if err := waitForRedis(ctx, setupClient); err != nil {
		t.Log("redis not reachable at", con.Addr, err)
		return
	}

	res := setupClient.ConfigGet(ctx, "databases")
	assert.Assert(t, res.Err())

	v := res.Val()
	assert.Assert(t, cmp.Len(v, 1))

	dbs, err := strconv.ParseInt(v["databases"], 10, 64)
	assert.Assert(t, err)

	databaseCount = uint32(dbs)
}

func hash(s string, databaseCount uint32) int {
	h := fnv.New32()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % databaseCount)
}
