package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFetchesOnceThenServesFromCache(t *testing.T) {
	k := NewKeyed[string]("test", nil, nil)
	var calls int32

	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := k.Load(context.Background(), "a", fetch)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, k.IsLoading("a"))
	assert.Empty(t, k.Err("a"))
}

func TestLoadRecordsErrorAndKeepsPreviousValue(t *testing.T) {
	k := NewKeyed[int]("test", func(err error) string { return "boom: " + err.Error() }, nil)
	k.Set("a", 7)

	_, err := k.Reload(context.Background(), "a", func(ctx context.Context) (int, error) {
		return 0, errors.New("down")
	})
	require.Error(t, err)

	v, ok := k.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, "boom: down", k.Err("a"))
	assert.False(t, k.IsLoading("a"))
}

func TestFailedLoadDoesNotCache(t *testing.T) {
	k := NewKeyed[int]("test", nil, nil)
	_, err := k.Load(context.Background(), "a", func(ctx context.Context) (int, error) {
		return 0, errors.New("down")
	})
	require.Error(t, err)

	_, ok := k.Get("a")
	assert.False(t, ok)

	v, err := k.Load(context.Background(), "a", func(ctx context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Empty(t, k.Err("a"))
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	k := NewKeyed[string]("test", nil, nil)
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = k.Load(context.Background(), "a", fetch)
	}()
	<-started
	assert.True(t, k.IsLoading("a"))

	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = k.Load(context.Background(), "a", fetch)
		}(i)
	}

	// let the followers join the in-flight call
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "v", r)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	k := NewKeyed[string]("test", nil, nil)
	k.Fail("a", "broken")
	k.Set("b", "ok")

	assert.Equal(t, "broken", k.Err("a"))
	assert.Empty(t, k.Err("b"))

	k.Delete("a")
	assert.Empty(t, k.Err("a"))
	assert.Equal(t, 1, k.Len())
}
