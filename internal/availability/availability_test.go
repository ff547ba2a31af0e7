package availability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/registration/models"
	"regdesk/internal/registration/store/memory"
	dErrors "regdesk/pkg/domain-errors"
)

type slowLookup struct {
	calls   atomic.Int32
	release chan struct{}
	taken   bool
	err     error
}

func (l *slowLookup) Lookup(context.Context, string) (bool, error) {
	l.calls.Add(1)
	<-l.release
	return l.taken, l.err
}

func TestCheckAgainstRegistry(t *testing.T) {
	registry := memory.New()
	require.NoError(t, registry.Append(context.Background(), &models.Record{
		Username:     "newuser1",
		Skills:       []string{"go"},
		RegisteredAt: time.Now().UTC(),
	}))
	m := NewMetrics(prometheus.NewRegistry())
	svc, err := New(registry, WithMetrics(m))
	require.NoError(t, err)

	res, err := svc.Check(context.Background(), "newuser1")
	require.NoError(t, err)
	assert.True(t, res.Taken)

	res, err = svc.Check(context.Background(), "NEWUSER1")
	require.NoError(t, err)
	assert.True(t, res.Taken, "lookup ignores case")

	res, err = svc.Check(context.Background(), "someone_else")
	require.NoError(t, err)
	assert.False(t, res.Taken)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checks.WithLabelValues("taken")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checks.WithLabelValues("available")))
}

func TestCheckBlankUsername(t *testing.T) {
	svc, err := New(memory.New())
	require.NoError(t, err)

	_, err = svc.Check(context.Background(), "   ")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestCheckRegistryFailure(t *testing.T) {
	lookup := &slowLookup{release: make(chan struct{}), err: errors.New("disk gone")}
	close(lookup.release)
	svc, err := New(lookup)
	require.NoError(t, err)

	_, err = svc.Check(context.Background(), "alice")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestConcurrentChecksCoalesce(t *testing.T) {
	lookup := &slowLookup{release: make(chan struct{}), taken: true}
	svc, err := New(lookup)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	var takenCount atomic.Int32
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "Alice"
			if i%2 == 0 {
				name = "aLiCe"
			}
			res, err := svc.Check(context.Background(), name)
			if err == nil && res.Taken {
				takenCount.Add(1)
			}
		}(i)
	}

	require.Eventually(t, func() bool { return lookup.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(lookup.release)
	wg.Wait()

	assert.Equal(t, int32(callers), takenCount.Load())
	assert.Less(t, lookup.calls.Load(), int32(callers), "concurrent checks share lookups")
}

type blockingLookup struct {
	calls   atomic.Int32
	release chan struct{}
}

func (l *blockingLookup) Lookup(ctx context.Context, _ string) (bool, error) {
	l.calls.Add(1)
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-l.release:
		return true, nil
	}
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	lookup := &blockingLookup{release: make(chan struct{})}
	svc, err := New(lookup)
	require.NoError(t, err)

	first, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Check(first, "alice")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return lookup.calls.Load() == 1 }, time.Second, time.Millisecond)

	type answer struct {
		res Result
		err error
	}
	second := make(chan answer, 1)
	go func() {
		res, err := svc.Check(context.Background(), "ALICE")
		second <- answer{res, err}
	}()

	select {
	case err := <-firstErr:
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("first caller did not stop at its deadline")
	}

	close(lookup.release)
	got := <-second
	require.NoError(t, got.err)
	assert.True(t, got.res.Taken)
	assert.Equal(t, int32(1), lookup.calls.Load())
}

func TestSharedLookupIsBounded(t *testing.T) {
	lookup := &blockingLookup{release: make(chan struct{})}
	svc, err := New(lookup, WithLookupTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = svc.Check(context.Background(), "alice")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
