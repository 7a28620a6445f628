package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/redisusage/demo"
	"github.com/circleci/redisusage/testing/kongtest"
	"github.com/circleci/redisusage/testing/redisfixture"
	"github.com/circleci/redisusage/testing/testcontext"
)

func TestHelp(t *testing.T) {
	s := kongtest.Help(t, &cli{})
	assert.Check(t, cmp.Contains(s, "--redis-host"))
	assert.Check(t, cmp.Contains(s, "--expiry"))
	assert.Check(t, cmp.Contains(s, "--report"))
	assert.Check(t, cmp.Contains(s, "--o11y-sample-traces"))
}

func TestDefaults(t *testing.T) {
	c := cli{}
	kongtest.Parse(t, &c)

	assert.Check(t, cmp.Equal(c.redisOptions().Addr(), "127.0.0.1:6379"))
	assert.Check(t, cmp.Equal(c.Expiry, demo.DefaultTTL))
	assert.Check(t, cmp.Equal(c.O11yFormat, "text"))
	assert.Check(t, !c.Report)
	assert.Check(t, !c.o11yConfig("dev").SampleTraces)
}

func TestSampling(t *testing.T) {
	c := cli{}
	kongtest.Parse(t, &c,
		"--o11y-sample-traces",
		"--o11y-sample-rates", "redis: PING success=10;demo: list success=2",
	)

	conf := c.o11yConfig("dev")
	assert.Check(t, conf.SampleTraces)
	assert.Check(t, cmp.DeepEqual(conf.SampleRates, map[string]int{
		"redis: PING success": 10,
		"demo: list success":  2,
	}))

	ctx, cleanup, err := loadO11y(context.Background(), "dev", c)
	assert.Assert(t, err)
	defer cleanup(ctx)
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		assert.NilError(t, loadEnvFile(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("sets unset variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		assert.NilError(t, os.WriteFile(path, []byte("REDISUSAGE_TEST_EXPIRY=1s\n"), 0o600))
		t.Cleanup(func() {
			_ = os.Unsetenv("REDISUSAGE_TEST_EXPIRY")
		})

		assert.NilError(t, loadEnvFile(path))
		assert.Check(t, cmp.Equal(os.Getenv("REDISUSAGE_TEST_EXPIRY"), "1s"))
	})
}

func TestRun(t *testing.T) {
	fix := redisfixture.Setup(testcontext.Background(), t, redisfixture.DefaultConnection())
	host, port, err := net.SplitHostPort(fix.Addr)
	assert.Assert(t, err)
	p, err := strconv.Atoi(port)
	assert.Assert(t, err)

	c := cli{
		RedisHost:  host,
		RedisPort:  p,
		RedisDB:    fix.DB,
		Expiry:     time.Second,
		Report:     true,
		O11yFormat: "none",
	}

	out := &bytes.Buffer{}
	err = run(context.Background(), "test", c, out)
	assert.Assert(t, err)

	assert.Check(t, cmp.Contains(out.String(), "Key Hello，Value: 0523\n"))
	assert.Check(t, cmp.Contains(out.String(), "danny_rank: 2"))
	assert.Check(t, cmp.Contains(out.String(), "ttl: 1s"))
}

func TestRun_Unreachable(t *testing.T) {
	c := cli{
		RedisHost:  "127.0.0.1",
		RedisPort:  1,
		Expiry:     time.Second,
		O11yFormat: "none",
	}

	err := run(context.Background(), "test", c, &bytes.Buffer{})
	assert.Check(t, cmp.ErrorContains(err, "redis not ready"))
}
