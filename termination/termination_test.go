package termination

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"
)

func TestHandle_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NilError(t, Handle(ctx))
}
