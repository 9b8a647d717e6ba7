package quotes

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheServesFreshValue(t *testing.T) {
	c := newTTLCache[int]()
	calls := 0
	fetch := func() (int, error) {
		calls++
		return 42, nil
	}

	got, err := c.getOrFetch("k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = c.getOrFetch("k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls, "second hit within the TTL must not refetch")
}

func TestTTLCacheExpires(t *testing.T) {
	c := newTTLCache[int]()
	calls := 0
	fetch := func() (int, error) {
		calls++
		return calls, nil
	}

	_, err := c.getOrFetch("k", 10*time.Millisecond, fetch)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	got, err := c.getOrFetch("k", 10*time.Millisecond, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 2, calls)
}

func TestTTLCacheDoesNotCacheErrors(t *testing.T) {
	c := newTTLCache[int]()
	calls := 0
	failing := func() (int, error) {
		calls++
		return 0, fmt.Errorf("boom %d", calls)
	}

	_, err := c.getOrFetch("k", time.Minute, failing)
	require.Error(t, err)
	_, err = c.getOrFetch("k", time.Minute, failing)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "errors must not be cached")

	// A later success is cached as usual.
	got, err := c.getOrFetch("k", time.Minute, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestTTLCacheKeysAreIndependent(t *testing.T) {
	c := newTTLCache[string]()
	a, err := c.getOrFetch("a", time.Minute, func() (string, error) { return "A", nil })
	require.NoError(t, err)
	b, err := c.getOrFetch("b", time.Minute, func() (string, error) { return "B", nil })
	require.NoError(t, err)
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}
