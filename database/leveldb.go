// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package database

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	levelDBCacheMiB = 128
	levelDBHandles  = 128
)

var _ Database = (*LevelDB)(nil)

// LevelDB is a Database persisted with goleveldb
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens or creates the database at [dir], recovering it if the
// manifest is corrupted.
func NewLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{
		OpenFilesCacheCapacity: levelDBHandles,
		BlockCacheCapacity:     levelDBCacheMiB / 2 * opt.MiB,
		WriteBuffer:            levelDBCacheMiB / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	var corrupted *lerrors.ErrCorrupted
	if errors.As(err, &corrupted) {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// NewMemLevelDB returns a LevelDB backed by memory storage
func NewMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := l.db.Get(key, nil)
	return value, convertError(err)
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	has, err := l.db.Has(key, nil)
	return has, convertError(err)
}

func (l *LevelDB) PrefixKeys(prefix []byte) ([][]byte, error) {
	iter := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var keys [][]byte
	for iter.Next() {
		keys = append(keys, copyBytes(iter.Key()))
	}
	return keys, convertError(iter.Error())
}

func (l *LevelDB) Put(key, value []byte) error {
	return convertError(l.db.Put(key, value, nil))
}

func (l *LevelDB) Delete(key []byte) error {
	return convertError(l.db.Delete(key, nil))
}

func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l, batch: new(leveldb.Batch)}
}

func (l *LevelDB) Close() error {
	return convertError(l.db.Close())
}

type levelBatch struct {
	db    *LevelDB
	batch *leveldb.Batch
}

func (b *levelBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelBatch) Write() error {
	return convertError(b.db.db.Write(b.batch, nil))
}

func (b *levelBatch) Reset() {
	b.batch.Reset()
}

func (b *levelBatch) Len() int {
	return b.batch.Len()
}

func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return ErrClosed
	default:
		return err
	}
}
