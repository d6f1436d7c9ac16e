package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustNext[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	v, err := sub.Next(ctx)
	require.NoError(t, err)
	return v
}

// drain returns whatever is already buffered for sub without waiting.
func drain[T any](sub *Subscription[T]) []T {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out []T
	for {
		v, err := sub.Next(ctx)
		if err != nil {
			return out
		}
		out = append(out, v)
	}
}
