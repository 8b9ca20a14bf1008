// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDatabases(t *testing.T) map[string]Database {
	t.Helper()

	mem := NewMemDB()
	memLevel, err := NewMemLevelDB()
	require.NoError(t, err)
	fileLevel, err := New(LevelDBBackend, filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = memLevel.Close()
		_ = fileLevel.Close()
	})

	return map[string]Database{
		"memdb":        mem,
		"mem leveldb":  memLevel,
		"file leveldb": fileLevel,
		"prefix":       NewPrefixDB([]byte("p/"), NewMemDB()),
		"overlay":      NewOverlay(NewMemDB()),
	}
}

func TestDatabaseBasics(t *testing.T) {
	for name, db := range testDatabases(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			_, err := db.Get([]byte("missing"))
			require.ErrorIs(err, ErrNotFound)
			require.True(IsNotFound(err))

			has, err := db.Has([]byte("k"))
			require.NoError(err)
			require.False(has)

			require.NoError(db.Put([]byte("k"), []byte("v")))
			value, err := db.Get([]byte("k"))
			require.NoError(err)
			require.Equal([]byte("v"), value)

			has, err = db.Has([]byte("k"))
			require.NoError(err)
			require.True(has)

			require.NoError(db.Delete([]byte("k")))
			_, err = db.Get([]byte("k"))
			require.ErrorIs(err, ErrNotFound)

			// deleting a missing key is not an error
			require.NoError(db.Delete([]byte("k")))
		})
	}
}

func TestDatabaseBatch(t *testing.T) {
	for name, db := range testDatabases(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			require.NoError(db.Put([]byte("old"), []byte{1}))

			batch := db.NewBatch()
			require.NoError(batch.Put([]byte("a"), []byte{2}))
			require.NoError(batch.Put([]byte("b"), []byte{3}))
			require.NoError(batch.Delete([]byte("old")))
			require.Equal(3, batch.Len())

			// nothing is visible before Write
			has, err := db.Has([]byte("a"))
			require.NoError(err)
			require.False(has)

			require.NoError(batch.Write())

			value, err := db.Get([]byte("b"))
			require.NoError(err)
			require.Equal([]byte{3}, value)
			has, err = db.Has([]byte("old"))
			require.NoError(err)
			require.False(has)

			batch.Reset()
			require.Zero(batch.Len())
		})
	}
}

func TestDatabasePrefixKeys(t *testing.T) {
	for name, db := range testDatabases(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			require.NoError(db.Put([]byte("list/b"), nil))
			require.NoError(db.Put([]byte("list/a"), nil))
			require.NoError(db.Put([]byte("other"), nil))

			keys, err := db.PrefixKeys([]byte("list/"))
			require.NoError(err)
			require.Equal([][]byte{[]byte("list/a"), []byte("list/b")}, keys)
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	for name, db := range testDatabases(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			input := []byte{1, 2, 3}
			require.NoError(db.Put([]byte("k"), input))
			input[0] = 9

			value, err := db.Get([]byte("k"))
			require.NoError(err)
			require.Equal([]byte{1, 2, 3}, value)
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := New("badger", t.TempDir())
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestLevelDBReopen(t *testing.T) {
	require := require.New(t)
	dir := filepath.Join(t.TempDir(), "db")

	db, err := NewLevelDB(dir)
	require.NoError(err)
	require.NoError(db.Put([]byte("k"), []byte("v")))
	require.NoError(db.Close())

	db, err = NewLevelDB(dir)
	require.NoError(err)
	defer db.Close()

	value, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), value)
}

func TestPrefixDBIsolation(t *testing.T) {
	require := require.New(t)

	base := NewMemDB()
	a := NewPrefixDB([]byte("a/"), base)
	b := NewPrefixDB([]byte("b/"), base)

	require.NoError(a.Put([]byte("k"), []byte("from a")))
	_, err := b.Get([]byte("k"))
	require.ErrorIs(err, ErrNotFound)

	value, err := base.Get([]byte("a/k"))
	require.NoError(err)
	require.Equal([]byte("from a"), value)

	require.NoError(a.Close())
	require.NoError(base.Put([]byte("x"), nil))
}

func TestMemDBBatch(t *testing.T) {
	require := require.New(t)

	db := NewMemDB()
	require.NoError(db.Put([]byte("b"), []byte{1}))

	batch := db.NewBatch()
	require.NoError(batch.Put([]byte("c"), []byte{2}))
	require.NoError(batch.Put([]byte("b"), []byte{3}))
	require.NoError(batch.Delete([]byte("missing")))
	require.NoError(batch.Put([]byte("a"), []byte{4}))
	require.NoError(batch.Delete([]byte("c")))
	require.Equal(5, batch.Len())
	require.NoError(batch.Write())

	require.Equal(2, db.Len())
	value, err := db.Get([]byte("b"))
	require.NoError(err)
	require.Equal([]byte{3}, value)

	keys, err := db.PrefixKeys(nil)
	require.NoError(err)
	require.Equal([][]byte{[]byte("a"), []byte("b")}, keys)

	require.NoError(db.Close())
	require.ErrorIs(batch.Write(), ErrClosed)
}
