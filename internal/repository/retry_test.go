package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"delivery-orchestrator/internal/apperr"
	testlog "delivery-orchestrator/internal/testutil"
)

type counterStub struct{ n int64 }

func (c *counterStub) Inc()         { atomic.AddInt64(&c.n, 1) }
func (c *counterStub) Count() int64 { return atomic.LoadInt64(&c.n) }

func TestRetrier_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	ctr := &counterStub{}
	r := NewRetrier(rec.Logger(), ctr, RetryConfig{MaxAttempts: 5})

	var calls int32
	err := r.Do(context.Background(), "GetOrder", func(context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return classify(mongo.CommandError{Code: 91, Message: "shutdown in progress"})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Equal(t, int64(2), ctr.Count())
	require.True(t, rec.Has("store retry"))
}

func TestRetrier_NoRetryOnPermanent(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	ctr := &counterStub{}
	r := NewRetrier(rec.Logger(), ctr, RetryConfig{MaxAttempts: 5})

	var calls int32
	err := r.Do(context.Background(), "InsertRefund", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return classify(mongo.CommandError{Code: duplicateKeyCode, Message: "E11000 duplicate key"})
	})
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Zero(t, ctr.Count())
}

func TestRetrier_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	r := NewRetrier(testlog.New().Logger(), nil, RetryConfig{MaxAttempts: 3})

	var calls int32
	err := r.Do(context.Background(), "ClaimDriver", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return apperr.ErrTransient
	})
	require.ErrorIs(t, err, apperr.ErrTransient)
	require.ErrorIs(t, err, apperr.ErrRetriesExhausted)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetrier_SingleAttemptIsNotExhausted(t *testing.T) {
	t.Parallel()

	r := NewRetrier(testlog.New().Logger(), nil, RetryConfig{MaxAttempts: 1})

	err := r.Do(context.Background(), "GetOrder", func(context.Context) error {
		return apperr.ErrTransient
	})
	require.ErrorIs(t, err, apperr.ErrTransient)
	require.NotErrorIs(t, err, apperr.ErrRetriesExhausted)
}

func TestRetrier_StopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	r := NewRetrier(testlog.New().Logger(), nil, RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   time.Hour,
		MaxDelay:    time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())

	var calls int32
	err := r.Do(ctx, "ListOrdersByStatus", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		cancel()
		return apperr.ErrTransient
	})
	require.Error(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	require.Equal(t, 100*time.Millisecond, backoff(100*time.Millisecond, time.Second, 1))
	require.Equal(t, 400*time.Millisecond, backoff(100*time.Millisecond, time.Second, 3))
	require.Equal(t, time.Second, backoff(100*time.Millisecond, time.Second, 10))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	require.NoError(t, classify(nil))
	require.ErrorIs(t, classify(mongo.CommandError{Code: 11000}), apperr.ErrDuplicate)
	require.ErrorIs(t, classify(mongo.CommandError{Code: 286}), apperr.ErrCursorInvalid)
	require.ErrorIs(t, classify(mongo.CommandError{Code: 189}), apperr.ErrTransient)
	require.ErrorIs(t, classify(mongo.CommandError{Labels: []string{"RetryableWriteError"}}), apperr.ErrTransient)

	plain := errors.New("boom")
	require.Equal(t, plain, classify(plain))
	require.False(t, errors.Is(classify(mongo.ErrNoDocuments), apperr.ErrTransient))
}
