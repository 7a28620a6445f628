package redis

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/circleci/redisusage/o11y"
)

// MinVersion is the oldest server with every command the demo sends. ZRANGEBYLEX
// arrived in 2.8.9.
var MinVersion = Version{2, 8, 9}

type HealthCheck struct {
	name   string
	client *redis.Client
}

func NewHealthCheck(client *redis.Client, name string) *HealthCheck {
	if name == "" {
		name = "redis"
	}
	return &HealthCheck{name: name, client: client}
}

func (h *HealthCheck) HealthChecks() (name string, ready, live func(ctx context.Context) error) {
	return h.name, h.ready, nil
}

// ready pings the configured database, then checks the server version when the server
// reports one.
func (h *HealthCheck) ready(ctx context.Context) (err error) {
	ctx, span := o11y.StartSpan(ctx, h.name+": ready")
	defer o11y.End(span, &err)

	opts := h.client.Options()
	span.AddRawField("net.peer.name", opts.Addr)
	span.AddRawField("db.redis.database_index", opts.DB)

	pong, err := h.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis ping failed at %s db %d: %w", opts.Addr, opts.DB, err)
	}
	if pong != "PONG" {
		return fmt.Errorf("unexpected response for redis ping: %q", pong)
	}

	// Restricted ACL users may not be allowed INFO
	info, err := h.client.Info(ctx, "server").Result()
	if err != nil {
		span.AddRawField("warning", err.Error())
		return nil
	}
	v, ok := serverVersion(info)
	if !ok {
		return nil
	}
	span.AddRawField("db.redis.version", v.String())
	if v.Less(MinVersion) {
		return fmt.Errorf("redis %s at %s is older than %s", v, opts.Addr, MinVersion)
	}
	return nil
}

// Version is a server's major.minor.patch version.
type Version [3]int

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

func (v Version) Less(o Version) bool {
	for i := range v {
		if v[i] != o[i] {
			return v[i] < o[i]
		}
	}
	return false
}

// serverVersion finds redis_version in the server section of INFO.
func serverVersion(info string) (v Version, ok bool) {
	s := bufio.NewScanner(strings.NewReader(info))
	for s.Scan() {
		raw, found := strings.CutPrefix(strings.TrimSpace(s.Text()), "redis_version:")
		if !found {
			continue
		}
		parts := strings.SplitN(raw, ".", 3)
		if len(parts) != 3 {
			return v, false
		}
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return v, false
			}
			v[i] = n
		}
		return v, true
	}
	return v, false
}
