// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package containers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLruCache(t *testing.T) {
	var evicted []int
	cache := NewLruCacheWithOnEvict[int, string](2, func(k int, _ string) {
		evicted = append(evicted, k)
	})
	cache.Add(1, "a")
	cache.Add(2, "b")
	_, ok := cache.Get(1)
	require.True(t, ok)
	cache.Add(3, "c")
	require.Equal(t, []int{2}, evicted)
	require.False(t, cache.Contains(2))
	require.Equal(t, 2, cache.Len())

	cache.Resize(0)
	require.Equal(t, 0, cache.Len())
	cache.Add(4, "d")
	require.False(t, cache.Contains(4))

	cache.Resize(1)
	cache.Add(5, "e")
	value, ok := cache.Get(5)
	require.True(t, ok)
	require.Equal(t, "e", value)
	cache.Remove(5)
	require.Zero(t, cache.Len())
}

func TestZeroSizeLruCache(t *testing.T) {
	cache := NewLruCache[string, int](0)
	cache.Add("x", 1)
	_, ok := cache.Get("x")
	require.False(t, ok)
	cache.Clear()
}
