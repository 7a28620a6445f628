package testcontext

import (
	"context"

	"github.com/circleci/redisusage/config/o11y"
)

// ctx is a global singleton, initialised at package time so that parallel tests do not race
// to initialise the underlying beeline client.
var ctx = newContext()

// Background returns a context for use in tests which contains a working o11y, so you get logs.
func Background() context.Context {
	return ctx
}

func newContext() context.Context {
	cx, _, err := o11y.Setup(context.Background(), o11y.Config{
		Format:  "text",
		Service: "test-service",
		Version: "test",
	})
	if err != nil {
		panic(err)
	}
	return cx
}
