package workqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SerialInSubmissionOrder(t *testing.T) {
	q := New(1)

	var inFlight, maxInFlight int32
	var order []int
	for i := 0; i < 5; i++ {
		q.Push(func(ctx context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			if n > atomic.LoadInt32(&maxInFlight) {
				atomic.StoreInt32(&maxInFlight, n)
			}
			time.Sleep(2 * time.Millisecond)
			order = append(order, i)
			atomic.AddInt32(&inFlight, -1)
			return nil
		}, nil)
	}

	require.Equal(t, 5, q.Len())
	require.NoError(t, q.Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, int32(1), maxInFlight)
	assert.Equal(t, 0, q.Len())
}

func TestRun_PausedUntilRun(t *testing.T) {
	q := New(1)
	var ran int32
	q.Push(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, nil)

	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
	require.NoError(t, q.Run(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestRun_CallbackSwallowsTaskError(t *testing.T) {
	q := New(1)
	boom := errors.New("boom")

	var seen []error
	var ran int
	for i := 0; i < 3; i++ {
		q.Push(func(ctx context.Context) error {
			ran++
			if i == 1 {
				return boom
			}
			return nil
		}, func(err error) error {
			seen = append(seen, err)
			return nil
		})
	}

	require.NoError(t, q.Run(context.Background()))
	assert.Equal(t, 3, ran)
	assert.Equal(t, []error{nil, boom, nil}, seen)
}

func TestRun_CallbackErrorStopsQueue(t *testing.T) {
	q := New(1)
	boom := errors.New("boom")

	var ran int
	for i := 0; i < 3; i++ {
		q.Push(func(ctx context.Context) error {
			ran++
			if i == 0 {
				return boom
			}
			return nil
		}, func(err error) error { return err })
	}

	err := q.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ran)
}

func TestRun_CancelledContext(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int
	q.Push(func(ctx context.Context) error {
		ran++
		return nil
	}, nil)

	require.ErrorIs(t, q.Run(ctx), context.Canceled)
	assert.Equal(t, 0, ran)
}

func TestNew_ClampsLimit(t *testing.T) {
	assert.Equal(t, 1, New(0).limit)
	assert.Equal(t, 3, New(3).limit)
}
