package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log" //nolint:depguard // non-o11y log is allowed for a top-level fatal
	"os"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v2"

	"github.com/circleci/redisusage/demo"
	"github.com/circleci/redisusage/o11y"
	"github.com/circleci/redisusage/redis"
	"github.com/circleci/redisusage/system"
	"github.com/circleci/redisusage/termination"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	err := loadEnvFile(".env")
	if err != nil {
		log.Fatal("Unexpected Error: ", err)
	}

	c := cli{}
	kong.Parse(&c,
		kong.Name("redisusage"),
		kong.Description("Walk through the basic Redis data structures against a Redis server."),
	)

	err = run(context.Background(), Version, c, os.Stdout)
	if err != nil && !errors.Is(err, termination.ErrTerminated) {
		log.Fatal("Unexpected Error: ", err)
	}
}

func run(ctx context.Context, version string, c cli, out io.Writer) (err error) {
	ctx, o11yCleanup, err := loadO11y(ctx, version, c)
	if err != nil {
		return err
	}
	defer o11yCleanup(ctx)

	ctx, runSpan := o11y.StartSpan(ctx, "main: run")
	defer o11y.End(runSpan, &err)
	defer func() {
		if p := recover(); p != nil {
			err = o11y.HandlePanic(ctx, runSpan, p)
		}
	}()

	opts := c.redisOptions()
	o11y.Log(ctx, "starting redisusage",
		o11y.Field("version", version),
		o11y.Field("addr", opts.Addr()),
		o11y.Field("db", opts.DB),
	)

	sys := system.New()
	defer sys.Cleanup(ctx)

	client := redis.Load(opts, sys)

	err = sys.Ready(ctx)
	if err != nil {
		return err
	}
	defer sys.EmitMetrics(ctx)

	d := demo.New(client, demo.Options{
		TTL: c.Expiry,
		Out: out,
	})
	return sys.Run(ctx, func(ctx context.Context) error {
		report, err := d.Run(ctx)
		if err != nil {
			return err
		}
		if c.Report {
			return printReport(out, report)
		}
		return nil
	})
}

func printReport(w io.Writer, report demo.Report) error {
	b, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = w.Write(b)
	return err
}
