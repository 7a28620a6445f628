package redis

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"strconv"

	"github.com/gwatts/rootcerts"
	"github.com/redis/go-redis/v9"

	"github.com/circleci/redisusage/config/secret"
)

type Options struct {
	// Name of the client for metrics and health check, default is "redis"
	Name string

	Host     string
	Port     int
	User     string
	Password secret.String
	DB       int

	// Optional
	TLS bool
	// CAFunc supplies the trusted roots for TLS, the embedded Mozilla bundle when nil
	CAFunc func() *x509.CertPool
}

// Addr is the host:port the client dials.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func (o Options) name() string {
	if o.Name == "" {
		return "redis"
	}
	return o.Name
}

// New will only construct a new Redis client with the provided options. It is the caller's
// responsibility to close it at the right time.
func New(o Options) *redis.Client {
	opts := &redis.Options{
		Addr:     o.Addr(),
		Username: o.User,
		Password: o.Password.Raw(),
		DB:       o.DB,
	}
	if o.TLS {
		caFunc := o.CAFunc
		if caFunc == nil {
			caFunc = rootcerts.ServerCertPool
		}

		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: o.Host,
			RootCAs:    caFunc(),
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(newTracingHook(o.name(), o.DB))
	return client
}
