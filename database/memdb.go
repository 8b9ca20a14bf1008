// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package database

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ Database = (*MemDB)(nil)

// MemDB is an in-memory Database over a goleveldb skiplist
type MemDB struct {
	lock   sync.RWMutex
	db     *memdb.DB
	closed bool
}

// NewMemDB returns an empty in-memory database
func NewMemDB() *MemDB {
	return &MemDB{db: memdb.New(comparer.DefaultComparer, 0)}
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	value, err := m.db.Get(key)
	if err != nil {
		return nil, convertError(err)
	}
	return copyBytes(value), nil
}

func (m *MemDB) Has(key []byte) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.closed {
		return false, ErrClosed
	}
	return m.db.Contains(key), nil
}

func (m *MemDB) PrefixKeys(prefix []byte) ([][]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	iter := m.db.NewIterator(util.BytesPrefix(prefix))
	defer iter.Release()

	var keys [][]byte
	for iter.Next() {
		keys = append(keys, copyBytes(iter.Key()))
	}
	return keys, convertError(iter.Error())
}

func (m *MemDB) Put(key, value []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.closed {
		return ErrClosed
	}
	return m.db.Put(key, value)
}

func (m *MemDB) Delete(key []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.delete(key)
	return nil
}

// delete removes [key]. Deleting an absent key is not an error.
func (m *MemDB) delete(key []byte) {
	_ = m.db.Delete(key)
}

func (m *MemDB) NewBatch() Batch {
	return &memBatch{db: m, batch: new(leveldb.Batch)}
}

func (m *MemDB) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.closed = true
	return nil
}

// Len returns the number of keys
func (m *MemDB) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.db.Len()
}

type memBatch struct {
	db    *MemDB
	batch *leveldb.Batch
}

func (b *memBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *memBatch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.closed {
		return ErrClosed
	}
	return b.batch.Replay(memReplay{db: b.db})
}

func (b *memBatch) Reset() {
	b.batch.Reset()
}

func (b *memBatch) Len() int {
	return b.batch.Len()
}

// memReplay applies a leveldb batch to a MemDB whose lock is held
type memReplay struct {
	db *MemDB
}

func (r memReplay) Put(key, value []byte) {
	_ = r.db.db.Put(key, value)
}

func (r memReplay) Delete(key []byte) {
	r.db.delete(key)
}
