package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingFetcher struct {
	calls atomic.Int32
	value string
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context) (string, error) {
	f.calls.Add(1)
	return f.value, f.err
}

type recordingStats struct {
	hits, misses atomic.Int32
}

func (r *recordingStats) RecordHit(_ context.Context, _ string)  { r.hits.Add(1) }
func (r *recordingStats) RecordMiss(_ context.Context, _ string) { r.misses.Add(1) }

func TestCache_Get_TTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	stats := &recordingStats{}
	c := New[string, string]("latest", WithClock(clock.Now), WithTTL(time.Hour), WithStatsRecorder(stats))
	fetcher := &countingFetcher{value: "v1.0.0"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := c.Get(ctx, "nefarius/BthPS3", fetcher.Fetch)
		require.NoError(t, err)
		assert.Equal(t, "v1.0.0", v)
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())

	clock.Advance(59 * time.Minute)
	_, err := c.Get(ctx, "nefarius/BthPS3", fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	clock.Advance(time.Minute)
	_, err = c.Get(ctx, "nefarius/BthPS3", fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())

	assert.Equal(t, int32(3), stats.hits.Load())
	assert.Equal(t, int32(2), stats.misses.Load())
}

func TestCache_Get_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	c := New[string, string]("all")
	fetcher := &countingFetcher{value: "x"}
	ctx := context.Background()

	_, err := c.Get(ctx, "nefarius/HidHide", fetcher.Fetch)
	require.NoError(t, err)
	_, err = c.Get(ctx, "nefarius/hidhide", fetcher.Fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCache_Get_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	c := New[string, string]("latest")
	upstreamErr := errors.New("upstream down")
	fetcher := &countingFetcher{err: upstreamErr}
	ctx := context.Background()

	_, err := c.Get(ctx, "k", fetcher.Fetch)
	require.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, 0, c.Len())

	fetcher.err = nil
	fetcher.value = "recovered"
	v, err := c.Get(ctx, "k", fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestCache_Get_Bypass(t *testing.T) {
	t.Parallel()

	c := New[string, string]("latest", WithBypass(true))
	fetcher := &countingFetcher{value: "x"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, "k", fetcher.Fetch)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), fetcher.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCache_Get_ExpiredEntriesAreSwept(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New[string, string]("latest", WithClock(clock.Now), WithTTL(time.Minute))
	fetcher := &countingFetcher{value: "x"}
	ctx := context.Background()

	_, err := c.Get(ctx, "a", fetcher.Fetch)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = c.Get(ctx, "b", fetcher.Fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
}

func TestCache_Get_ConcurrentMissesShareOneFetch(t *testing.T) {
	t.Parallel()

	c := New[string, string]("latest")
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(_ context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const callers = 10
	var (
		wg      sync.WaitGroup
		results = make([]string, callers)
		errs    = make([]error, callers)
		started sync.WaitGroup
	)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = c.Get(context.Background(), "k", fetch)
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_Get_WaiterHonoursOwnContext(t *testing.T) {
	t.Parallel()

	c := New[string, string]("latest")
	release := make(chan struct{})
	defer close(release)
	fetching := make(chan struct{})
	fetch := func(_ context.Context) (string, error) {
		close(fetching)
		<-release
		return "late", nil
	}

	go func() {
		_, _ = c.Get(context.Background(), "k", fetch)
	}()
	<-fetching

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, "k", fetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCache_Get_SharedFetchTimeoutIsNotRetried(t *testing.T) {
	t.Parallel()

	c := New[string, string]("latest")
	fetching := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(_ context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(fetching)
		}
		<-release
		return "", fmt.Errorf("GET https://api.github.com/repos/a/b/releases/latest: %w", context.DeadlineExceeded)
	}

	const callers = 2
	var wg sync.WaitGroup
	errs := make([]error, callers)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = c.Get(ctx, "k", fetch)
	}()
	<-fetching

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = c.Get(ctx, "k", fetch)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.NoError(t, ctx.Err())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_Get_WaiterRetriesWhenLeaderGivesUp(t *testing.T) {
	t.Parallel()

	c := New[string, string]("latest")
	fetching := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(fetching)
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "fresh", nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.Get(leaderCtx, "k", fetch)
		leaderDone <- err
	}()
	<-fetching

	waiterDone := make(chan struct{})
	var (
		v   string
		err error
	)
	go func() {
		defer close(waiterDone)
		v, err = c.Get(context.Background(), "k", fetch)
	}()
	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderDone, context.Canceled)
	<-waiterDone
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int32(2), calls.Load())
}
