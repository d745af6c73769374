package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct{ delivered, failed int }

func (c *countingObserver) ObserveDelivery(ok bool) {
	if ok {
		c.delivered++
		return
	}
	c.failed++
}

func TestRunToleratesFailedRecipient(t *testing.T) {
	obs := &countingObserver{}
	b := New(0, obs)
	var attempted, delivered []int64

	rep, err := b.Run(context.Background(), []string{"1", "2", "3"}, func(_ context.Context, chatID int64) error {
		attempted = append(attempted, chatID)
		if chatID == 2 {
			return errors.New("forbidden: bot was blocked by the user")
		}
		delivered = append(delivered, chatID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, attempted)
	assert.Equal(t, []int64{1, 3}, delivered)
	assert.Equal(t, 3, rep.Attempted)
	assert.Equal(t, 2, rep.Delivered)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 2, obs.delivered)
	assert.Equal(t, 1, obs.failed)
}

func TestRunSkipsInvalidAndDuplicateRecipients(t *testing.T) {
	b := New(0, nil)
	var got []int64
	rep, err := b.Run(context.Background(), []string{"5", "abc", "5", " 6 "}, func(_ context.Context, id int64) error {
		got = append(got, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, got)
	assert.Equal(t, Report{Attempted: 3, Delivered: 2, Failed: 1, Took: rep.Took}, rep)
}

func TestRunIsPaced(t *testing.T) {
	b := New(50, nil)
	start := time.Now()
	_, err := b.Run(context.Background(), []string{"1", "2", "3"}, func(context.Context, int64) error { return nil })
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRunStopsOnCancel(t *testing.T) {
	b := New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	rep, err := b.Run(ctx, []string{"1", "2", "3"}, func(context.Context, int64) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rep.Delivered)
}
