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

// countingFetch returns an incrementing value and tracks call counts. Errors
// are scripted per call index.
type countingFetch struct {
	mu    sync.Mutex
	calls int
	errAt map[int]error // 1-based call index -> error
	block chan struct{} // when non-nil, fetches block until closed
}

func (f *countingFetch) fn(context.Context) ([]string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errAt[f.calls]; err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("v%d", f.calls)}, nil
}

func (f *countingFetch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGet_FetchesOnceWithinTTL(t *testing.T) {
	f := &countingFetch{}
	r := New("test", f.fn, Config{TTL: time.Minute})
	ctx := context.Background()

	v, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, v)

	v, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, v, "fresh values are served from cache")
	assert.Equal(t, 1, f.count())
}

func TestGet_RefetchesAfterTTL(t *testing.T) {
	f := &countingFetch{}
	r := New("test", f.fn, Config{TTL: 20 * time.Millisecond})
	ctx := context.Background()

	_, err := r.Get(ctx)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	v, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, v, "expired values are replaced wholesale")
	assert.Equal(t, 2, f.count())
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	f := &countingFetch{}
	r := New("test", f.fn, Config{TTL: time.Minute})
	ctx := context.Background()

	_, err := r.Get(ctx)
	require.NoError(t, err)

	r.Invalidate()

	v, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, v)
	assert.Equal(t, 2, f.count())
}

func TestGet_StaleValueOnFetchFailure(t *testing.T) {
	boom := errors.New("upstream down")
	f := &countingFetch{errAt: map[int]error{2: boom, 3: boom, 4: boom}}
	// One attempt per fetch keeps the call accounting simple.
	r := New("test", f.fn, Config{TTL: time.Minute, FetchRetries: -1})
	ctx := context.Background()

	v, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, v)

	r.Invalidate()

	v, err = r.Get(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"v1"}, v, "the previous value rides along as fallback")
}

func TestGet_ErrorWithoutPreviousValue(t *testing.T) {
	boom := errors.New("upstream down")
	f := &countingFetch{errAt: map[int]error{1: boom}}
	r := New("test", f.fn, Config{TTL: time.Minute, FetchRetries: -1})

	v, err := r.Get(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, v)
}

func TestGet_BoundedRetries(t *testing.T) {
	boom := errors.New("flaky")
	f := &countingFetch{errAt: map[int]error{1: boom, 2: boom}}
	r := New("test", f.fn, Config{TTL: time.Minute, FetchRetries: 2})

	v, err := r.Get(context.Background())
	require.NoError(t, err, "the fetch succeeds within the retry budget")
	assert.Equal(t, []string{"v3"}, v)
	assert.Equal(t, 3, f.count())
}

func TestGet_RetriesExhausted(t *testing.T) {
	boom := errors.New("still down")
	f := &countingFetch{errAt: map[int]error{1: boom, 2: boom, 3: boom}}
	r := New("test", f.fn, Config{TTL: time.Minute, FetchRetries: 2})

	_, err := r.Get(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, f.count(), "one initial attempt plus two retries")
}

func TestGet_ConcurrentCallersShareOneFetch(t *testing.T) {
	f := &countingFetch{block: make(chan struct{})}
	r := New("test", f.fn, Config{TTL: time.Minute})
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([][]string, callers)
	for i := range callers {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			results[i], _ = r.Get(ctx)
		}()
	}
	started.Wait()
	time.Sleep(10 * time.Millisecond) // let the goroutines reach the fetch
	close(f.block)
	wg.Wait()

	assert.Equal(t, 1, f.count(), "concurrent reads collapse onto one fetch")
	for _, v := range results {
		assert.Equal(t, []string{"v1"}, v)
	}
}

func TestRefresh_BypassesFreshness(t *testing.T) {
	f := &countingFetch{}
	r := New("test", f.fn, Config{TTL: time.Minute})
	ctx := context.Background()

	_, err := r.Get(ctx)
	require.NoError(t, err)

	v, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, v)
}

func TestStartPolling_RefetchesUntilClosed(t *testing.T) {
	var calls atomic.Int32
	r := New("test", func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, Config{TTL: time.Hour})

	r.StartPolling(15 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, time.Second, 5*time.Millisecond, "polling keeps refetching past the TTL")

	r.Close()
	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no fetches after Close")
}

func TestKeyed_EntriesAreIndependent(t *testing.T) {
	var mu sync.Mutex
	counts := map[string]int{}
	k := NewKeyed("docs", func(key string) FetchFunc[string] {
		return func(context.Context) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			counts[key]++
			return fmt.Sprintf("%s#%d", key, counts[key]), nil
		}
	}, Config{TTL: time.Minute})
	ctx := context.Background()

	v, err := k.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1#1", v)

	v, err = k.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "2#1", v)

	k.Invalidate("1")

	v, err = k.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1#2", v, "invalidation refetches the targeted key")

	v, err = k.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "2#1", v, "other keys stay cached")
}

func TestKeyed_InvalidateAll(t *testing.T) {
	var calls atomic.Int32
	k := NewKeyed("docs", func(string) FetchFunc[int] {
		return func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		}
	}, Config{TTL: time.Minute})
	ctx := context.Background()

	_, err := k.Get(ctx, "a")
	require.NoError(t, err)
	_, err = k.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())

	k.InvalidateAll()

	_, err = k.Get(ctx, "a")
	require.NoError(t, err)
	_, err = k.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
}
