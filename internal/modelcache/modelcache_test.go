package modelcache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModels_CachesAfterFirstLoad(t *testing.T) {
	c := New(time.Minute)
	var loads int32
	load := func(device string) (interface{}, string, error) {
		atomic.AddInt32(&loads, 1)
		return "bundle", "cpu", nil
	}

	b1, d1, err := c.GetModels("", load)
	require.NoError(t, err)
	b2, d2, err := c.GetModels("", load)
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
	assert.Equal(t, d1, d2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	assert.True(t, c.IsLoaded())
}

func TestGetModels_ConcurrentFirstTouchPopulatesCache(t *testing.T) {
	c := New(time.Minute)
	var loads int32
	load := func(device string) (interface{}, string, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(10 * time.Millisecond)
		return "bundle", "cpu", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.GetModels("", load)
		}()
	}
	wg.Wait()

	assert.True(t, c.IsLoaded())
}

func TestEvict_ClearsCacheAndRunsCleanup(t *testing.T) {
	c := New(time.Minute)
	_, _, err := c.GetModels("", func(string) (interface{}, string, error) {
		return "bundle", "cpu", nil
	})
	require.NoError(t, err)
	require.True(t, c.IsLoaded())

	cleaned := false
	c.Evict(func() { cleaned = true })

	assert.True(t, cleaned)
	assert.False(t, c.IsLoaded())
}

func TestGetModels_ExpiresAfterTTL(t *testing.T) {
	c := New(5 * time.Millisecond)
	_, _, err := c.GetModels("", func(string) (interface{}, string, error) {
		return "bundle", "cpu", nil
	})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.False(t, c.IsLoaded())
}
