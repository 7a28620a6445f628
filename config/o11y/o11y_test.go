package o11y

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/redisusage/config/secret"
	"github.com/circleci/redisusage/o11y"
)

func TestO11Y_SecretRedacted(t *testing.T) {
	buf := bytes.Buffer{}
	ctx, cleanup, err := Setup(context.Background(), Config{
		Format:  "json",
		Writer:  &buf,
		Service: "redisusage",
		Version: "dev",
	})
	assert.Assert(t, err)

	_, span := o11y.StartSpan(ctx, "secret test")
	span.AddField("password", secret.String("super-secret"))
	span.End()
	cleanup(ctx)

	assert.Check(t, !strings.Contains(buf.String(), "super-secret"), buf.String())
	assert.Check(t, cmp.Contains(buf.String(), "REDACTED"))
	assert.Check(t, cmp.Contains(buf.String(), `"service":"redisusage"`))
}

func TestSetup_DoesNotError(t *testing.T) {
	ctx := context.Background()
	ctx, cleanup, err := Setup(ctx, Config{
		Statsd:            "127.0.0.1:8125",
		RollbarToken:      "qwertyuiop",
		RollbarDisabled:   true,
		RollbarEnv:        "production",
		RollbarServerRoot: "github.com/circleci/redisusage",
		HoneycombEnabled:  false,
		HoneycombDataset:  "does-not-exist",
		HoneycombKey:      "1234567890",
		Format:            "color",
		Version:           "1.2.3",
		Service:           "test-service",
		StatsNamespace:    "test.service.",
		Mode:              "demo",
		Debug:             true,
	})
	assert.Assert(t, err)

	p, ok := o11y.FromContext(ctx).(rollBarHoneycombProvider)
	assert.Assert(t, ok, "a rollbar token wraps the provider")
	assert.Check(t, p.RollBarClient() != nil)
	cleanup(ctx)
}

func TestSetup_HoneycombNeedsKey(t *testing.T) {
	_, _, err := Setup(context.Background(), Config{
		HoneycombEnabled: true,
		Format:           "none",
	})
	assert.Check(t, cmp.ErrorContains(err, "honeycomb_key"))
}
