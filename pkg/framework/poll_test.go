package framework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopRunsControllers(t *testing.T) {
	var count int32
	loop := NewLoop()
	loop.Interval = 5 * time.Millisecond
	loop.AddController(ControlFunc(func(c ControlContext) error {
		require.False(t, c.Time().IsZero())
		atomic.AddInt32(&count, 1)
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := loop.Run(ctx)
	require.Equal(t, context.DeadlineExceeded, err)
	require.Greater(t, atomic.LoadInt32(&count), int32(1))
}

func TestLoopSurvivesControllerErrors(t *testing.T) {
	var count int32
	loop := NewLoop()
	loop.Interval = 5 * time.Millisecond
	loop.AddController(ControlFunc(func(ControlContext) error {
		atomic.AddInt32(&count, 1)
		return errors.New("boom")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	loop.Run(ctx)
	require.Greater(t, atomic.LoadInt32(&count), int32(1))
}
