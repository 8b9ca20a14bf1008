// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package checkpoint

import (
	"testing"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/lockproxy/database"
)

func TestStage(t *testing.T) {
	testCases := []struct {
		name     string
		staged   []uint64
		expected uint64
	}{
		{
			name:     "in order",
			staged:   []uint64{0, 1, 2},
			expected: 3,
		},
		{
			name:     "out of order",
			staged:   []uint64{2, 0, 1},
			expected: 3,
		},
		{
			name:     "gap",
			staged:   []uint64{0, 2, 3},
			expected: 1,
		},
		{
			name:     "duplicates",
			staged:   []uint64{0, 0, 1, 1},
			expected: 2,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			c, err := New(log.NewNoOpLogger(), database.NewMemDB(), "test", 0)
			require.NoError(t, err)
			for _, index := range test.staged {
				c.Stage(index)
			}
			require.Equal(t, test.expected, c.Next())
		})
	}
}

func TestFlushAndReload(t *testing.T) {
	require := require.New(t)

	db := database.NewMemDB()
	c, err := New(log.NewNoOpLogger(), db, "test", 0)
	require.NoError(err)

	// nothing to write yet
	require.NoError(c.Flush())
	require.Zero(db.Len())

	c.Stage(0)
	c.Stage(1)
	require.NoError(c.Flush())

	reloaded, err := New(log.NewNoOpLogger(), db, "test", 0)
	require.NoError(err)
	require.Equal(uint64(2), reloaded.Next())

	// a larger starting index wins over the stored one
	reloaded, err = New(log.NewNoOpLogger(), db, "test", 5)
	require.NoError(err)
	require.Equal(uint64(5), reloaded.Next())
}

func TestCorruptedCheckpoint(t *testing.T) {
	db := database.NewMemDB()
	require.NoError(t, db.Put(nextIndexKey, []byte("not a number")))

	_, err := New(log.NewNoOpLogger(), db, "test", 0)
	require.Error(t, err)
}
