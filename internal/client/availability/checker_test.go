package availability

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	calls atomic.Int32
	taken bool
	err   error
	delay time.Duration
}

func (p *stubProber) CheckUsername(ctx context.Context, _ string) (bool, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return p.taken, p.err
}

func TestCheckShortCircuitsShortNames(t *testing.T) {
	prober := &stubProber{}
	c := NewChecker(prober, time.Second)

	for _, name := range []string{"", "a", "ab", "éé"} {
		res, err := c.Check(context.Background(), name)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
	}
	assert.Zero(t, prober.calls.Load())

	_, err := c.Check(context.Background(), "éèê")
	require.NoError(t, err)
	assert.Equal(t, int32(1), prober.calls.Load(), "three characters reach the server")
}

func TestCheckTimesOut(t *testing.T) {
	c := NewChecker(&stubProber{delay: time.Second}, 20*time.Millisecond)

	start := time.Now()
	_, err := c.Check(context.Background(), "alice")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTrackerAppliesLatestOnly(t *testing.T) {
	var tr Tracker
	first := tr.Begin("alice")
	second := tr.Begin("alice")
	assert.Equal(t, StatusChecking, tr.Status())

	assert.False(t, tr.Complete(first, "alice", Result{Taken: true}, nil), "stale ticket discarded")
	assert.Equal(t, StatusChecking, tr.Status())

	assert.True(t, tr.Complete(second, "alice", Result{Taken: false}, nil))
	assert.Equal(t, StatusAvailable, tr.Status())
}

func TestTrackerDiscardsWhenFieldChanged(t *testing.T) {
	var tr Tracker
	tk := tr.Begin("alice")
	assert.False(t, tr.Complete(tk, "alicia", Result{Taken: true}, nil))
	assert.NotEqual(t, StatusTaken, tr.Status())
}

func TestTrackerFailureIsUnknown(t *testing.T) {
	var tr Tracker
	tk := tr.Begin("alice")
	assert.True(t, tr.Complete(tk, "alice", Result{}, errors.New("boom")))
	assert.Equal(t, StatusUnknown, tr.Status())
}

func TestTrackerReset(t *testing.T) {
	var tr Tracker
	tk := tr.Begin("alice")
	tr.Reset()
	assert.False(t, tr.Complete(tk, "alice", Result{Taken: true}, nil))
	assert.Equal(t, StatusUnknown, tr.Status())
}
