package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContextLifecycle(t *testing.T) {
	var started, stopped atomic.Bool
	var order []string

	app := New(nil, nil,
		WithTask(func(ctx context.Context) {
			started.Store(true)
			<-ctx.Done()
			stopped.Store(true)
		}),
		WithCloser("first", func() error { order = append(order, "first"); return nil }),
		WithCloser("second", func() error { order = append(order, "second"); return errors.New("ignored") }),
		WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	require.Eventually(t, started.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunContext did not return")
	}

	require.Eventually(t, stopped.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestWithConsumerIgnoresNil(t *testing.T) {
	app := New(nil, nil, WithConsumer(nil))
	assert.Nil(t, app.consumer)
	assert.Empty(t, app.handlers)
}
