/*
Package redis contains wiring and observability for the go-redis Redis client.

There is support for:
- construction from host/port style options, with optional TLS
- tracing every command as an o11y span
- health checks
- connection pool metrics
*/
package redis
