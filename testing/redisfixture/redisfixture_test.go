package redisfixture

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/redisusage/testing/testcontext"
)

func TestSetup(t *testing.T) {
	ctx := testcontext.Background()
	fix := Setup(ctx, t, DefaultConnection())
	assert.Check(t, fix.Ping(ctx).Err())

	n, err := fix.DBSize(ctx).Result()
	assert.Assert(t, err)
	assert.Check(t, cmp.Equal(n, int64(0)), "database is flushed")
}

func TestSetup_FlushesBetweenTests(t *testing.T) {
	ctx := testcontext.Background()
	fix := Setup(ctx, t, DefaultConnection())
	assert.Assert(t, fix.Set(ctx, "sample", "hello world", 0).Err())

	again := Setup(ctx, t, DefaultConnection())
	assert.Check(t, cmp.Equal(again.DB, fix.DB))
	n, err := again.Exists(ctx, "sample").Result()
	assert.Assert(t, err)
	assert.Check(t, cmp.Equal(n, int64(0)))
}

func TestHash(t *testing.T) {
	assert.Check(t, cmp.Equal(hash("TestSetup", 16), hash("TestSetup", 16)))
	assert.Check(t, hash("TestSetup", 16) < 16)
	assert.Check(t, cmp.Equal(hash("anything", 1), 0))

	t.Run("same test name in different packages", func(t *testing.T) {
		demo := hash("github.com/circleci/redisusage/demo.TestRun", 15)
		cli := hash("github.com/circleci/redisusage/cmd/redisusage.TestRun", 15)
		assert.Check(t, demo != cli, "both on db %d", demo)
	})
}

func TestCallerPackage(t *testing.T) {
	assert.Check(t, cmp.Equal(callerPackage(0), "github.com/circleci/redisusage/testing/redisfixture"))

	func() {
		assert.Check(t, cmp.Equal(callerPackage(0), "github.com/circleci/redisusage/testing/redisfixture"),
			"closures report their package")
	}()
}

func TestAcquire(t *testing.T) {
	ctx := testcontext.Background()
	fix := Setup(ctx, t, DefaultConnection())

	assert.NilError(t, acquire(ctx, fix.Client, "lock", "demo.TestRun", time.Second))
	assert.NilError(t, acquire(ctx, fix.Client, "lock", "demo.TestRun", time.Second), "the holder may acquire again")

	err := acquire(ctx, fix.Client, "lock", "redisusage.TestRun", 100*time.Millisecond)
	assert.Check(t, cmp.ErrorIs(err, errLockHeld))

	assert.NilError(t, release(ctx, fix.Client, "lock", "redisusage.TestRun"))
	holder, err := fix.Get(ctx, "lock").Result()
	assert.Assert(t, err)
	assert.Check(t, cmp.Equal(holder, "demo.TestRun"), "only the holder releases")

	assert.NilError(t, release(ctx, fix.Client, "lock", "demo.TestRun"))
	assert.NilError(t, acquire(ctx, fix.Client, "lock", "redisusage.TestRun", time.Second))
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	ctx := testcontext.Background()
	fix := Setup(ctx, t, DefaultConnection())

	assert.NilError(t, acquire(ctx, fix.Client, "lock", "first", time.Second))
	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = release(ctx, fix.Client, "lock", "first")
	}()

	start := time.Now()
	assert.NilError(t, acquire(ctx, fix.Client, "lock", "second", 5*time.Second))
	assert.Check(t, time.Since(start) >= 200*time.Millisecond)
}
