package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRace_FastResultWins(t *testing.T) {
	v, err := race(context.Background(), time.Second, func(context.Context) (int, error) { return 7, nil }, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRace_TimeoutCancelsLoser(t *testing.T) {
	cancelled := make(chan struct{})
	_, err := race(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	}, nil)

	require.ErrorIs(t, err, ErrTimeout)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("loser was not cancelled")
	}
}

func TestRace_LateValueIsDiscarded(t *testing.T) {
	var discarded atomic.Int32
	release := make(chan struct{})
	_, err := race(context.Background(), 10*time.Millisecond, func(context.Context) (int, error) {
		<-release
		return 1, nil
	}, func(int) { discarded.Add(1) })
	require.ErrorIs(t, err, ErrTimeout)

	close(release)
	assert.Eventually(t, func() bool { return discarded.Load() == 1 }, time.Second, time.Millisecond)
}

func TestQueryOwner_TrimsReply(t *testing.T) {
	d := newFakeDialer()
	d.set("a", &fakeServer{owner: "m42"})

	owner, err := queryOwner(context.Background(), d, pool("a")[0], time.Second)
	require.NoError(t, err)
	assert.Equal(t, "m42", owner)
	assert.Equal(t, 1, d.closed)
}
