package demo

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/redisusage/testing/redisfixture"
	"github.com/circleci/redisusage/testing/testcontext"
)

func TestRun(t *testing.T) {
	ctx := testcontext.Background()
	fix := redisfixture.Setup(ctx, t, redisfixture.DefaultConnection())

	out := &bytes.Buffer{}
	d := New(fix.Client, Options{Out: out})

	report, err := d.Run(ctx)
	assert.Assert(t, err)

	assert.Check(t, cmp.Equal(out.String(), "Key Hello，Value: 0523\n"))

	t.Run("expiry", func(t *testing.T) {
		assert.Check(t, cmp.DeepEqual(report.Expiry, ExpiryResult{Key: "sample", TTL: DefaultTTL, Expiring: true}))
		checkTTL(ctx, t, fix, ExpiryKey, DefaultTTL)
	})

	t.Run("hash", func(t *testing.T) {
		assert.Check(t, cmp.DeepEqual(report.Hash, HashResult{
			Key:      "hashData:Max",
			Expiring: true,
			Values:   []string{"1", "Max", "3345678"},
			Fields:   []string{"Number", "Name", "Phone"},
		}))
		checkTTL(ctx, t, fix, HashKey, DefaultTTL)
	})

	t.Run("string is deleted", func(t *testing.T) {
		assert.Check(t, cmp.DeepEqual(report.String, StringResult{Key: "Hello", Value: "0523", Deleted: 1}))
		assert.Check(t, errors.Is(fix.Get(ctx, StringKey).Err(), redis.Nil))
	})

	t.Run("every block ran", func(t *testing.T) {
		assert.Check(t, cmp.Equal(report.SortedSet.DannyRank, int64(2)))
		assert.Check(t, cmp.Equal(report.Set.Cardinality, int64(2)))
		assert.Check(t, cmp.DeepEqual(report.List.Trimmed, []string{"AAA", "D"}))
	})
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	ctx := testcontext.Background()
	fix := redisfixture.Setup(ctx, t, redisfixture.DefaultConnection())

	// A string where the hash block expects a hash
	assert.Assert(t, fix.Set(ctx, HashKey, "not a hash", 0).Err())

	out := &bytes.Buffer{}
	report, err := New(fix.Client, Options{Out: out}).Run(ctx)
	assert.Check(t, cmp.ErrorContains(err, "hash: WRONGTYPE"))
	assert.Check(t, report.Expiry.Expiring, "blocks before the failure still ran")
	assert.Check(t, cmp.Equal(out.String(), ""), "blocks after the failure did not run")

	n, err := fix.Exists(ctx, SortedSetKey).Result()
	assert.Assert(t, err)
	assert.Check(t, cmp.Equal(n, int64(0)))
}

func TestRun_StoreUnreachable(t *testing.T) {
	ctx := testcontext.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	_, err := New(client, Options{Out: &bytes.Buffer{}}).Run(ctx)
	assert.Check(t, cmp.ErrorContains(err, "expiry: "))
}

func TestExpiry_KeyExpires(t *testing.T) {
	ctx := testcontext.Background()
	fix := redisfixture.Setup(ctx, t, redisfixture.DefaultConnection())

	// EXPIRE has whole second resolution
	ttl := time.Second
	res, err := New(fix.Client, Options{TTL: ttl}).Expiry(ctx)
	assert.Assert(t, err)
	assert.Check(t, res.Expiring)

	n, err := fix.Exists(ctx, ExpiryKey).Result()
	assert.Assert(t, err)
	assert.Check(t, cmp.Equal(n, int64(1)), "present before the TTL elapses")

	time.Sleep(ttl + 500*time.Millisecond)

	n, err = fix.Exists(ctx, ExpiryKey).Result()
	assert.Assert(t, err)
	assert.Check(t, cmp.Equal(n, int64(0)), "absent after the TTL elapses")
}

func TestNew_Defaults(t *testing.T) {
	d := New(nil, Options{})
	assert.Check(t, cmp.Equal(d.ttl, 5*time.Second))
	assert.Check(t, d.out != nil)
}

func checkTTL(ctx context.Context, t *testing.T, fix *redisfixture.Fixture, key string, max time.Duration) {
	t.Helper()
	ttl, err := fix.PTTL(ctx, key).Result()
	assert.Assert(t, err)
	assert.Check(t, ttl > 0 && ttl <= max, "ttl was %s", ttl)
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })
