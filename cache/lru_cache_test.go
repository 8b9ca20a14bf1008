// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUCache(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		invalidate    bool
		expectedValue int
		expectedCount int
	}{
		{
			name:          "fresh cache, fetch",
			key:           "test1",
			expectedValue: 42,
			expectedCount: 1,
		},
		{
			name:          "use cache, no fetch",
			key:           "test1",
			expectedValue: 42,
			expectedCount: 1,
		},
		{
			name:          "invalidate=true, fetch again",
			key:           "test1",
			invalidate:    true,
			expectedValue: 42,
			expectedCount: 2,
		},
		{
			name:          "different key, fetch",
			key:           "test2",
			expectedValue: 42,
			expectedCount: 3,
		},
	}

	cache, err := NewLRUCache[string, int](10)
	require.NoError(t, err)
	fetchCount := 0
	fetchFunc := func(string) (int, error) {
		fetchCount++
		return 42, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			val, err := cache.Get(tt.key, fetchFunc, tt.invalidate)
			require.NoError(err)
			require.Equal(tt.expectedValue, val)
			require.Equal(tt.expectedCount, fetchCount)
		})
	}
}

func TestLRUCacheFetchError(t *testing.T) {
	require := require.New(t)

	cache, err := NewLRUCache[string, int](1)
	require.NoError(err)

	errFetch := errors.New("fetch failed")
	_, err = cache.Get("k", func(string) (int, error) { return 0, errFetch }, false)
	require.ErrorIs(err, errFetch)
	require.Zero(cache.Len())
}

func TestLRUCacheEviction(t *testing.T) {
	require := require.New(t)

	cache, err := NewLRUCache[int, int](2)
	require.NoError(err)

	identity := func(k int) (int, error) { return k, nil }
	for i := 0; i < 3; i++ {
		_, err := cache.Get(i, identity, false)
		require.NoError(err)
	}
	require.Equal(2, cache.Len())

	cache.Remove(2)
	require.Equal(1, cache.Len())
	cache.Purge()
	require.Zero(cache.Len())
}

func TestNewLRUCacheInvalidSize(t *testing.T) {
	_, err := NewLRUCache[int, int](0)
	require.ErrorIs(t, err, ErrInvalidSize)
}
