package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ebooking/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddValidatesSchedule(t *testing.T) {
	s := NewScheduler(time.Second, logger.Discard())
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Add("sweep", "0 * * * *", noop))
	assert.Error(t, s.Add("sweep", "1 * * * *", noop), "duplicate name")
	assert.Error(t, s.Add("broken", "every hour", noop))
}

func TestScheduler_RunPassesDeadline(t *testing.T) {
	s := NewScheduler(time.Minute, logger.Discard())
	var hadDeadline atomic.Bool
	require.NoError(t, s.Add("sweep", "0 * * * *", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		return errors.New("store unavailable")
	}))

	require.NoError(t, s.Run("sweep"))
	assert.True(t, hadDeadline.Load())
	assert.Error(t, s.Run("unknown"))
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := NewScheduler(time.Second, logger.Discard())
	require.NoError(t, s.Add("boom", "0 * * * *", func(ctx context.Context) error {
		panic("nil accommodation")
	}))

	assert.NotPanics(t, func() { _ = s.Run("boom") })
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(time.Second, logger.Discard())
	require.NoError(t, s.Add("sweep", "0 * * * *", func(ctx context.Context) error { return nil }))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
