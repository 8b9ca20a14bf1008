// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package database

import "bytes"

var _ Database = (*PrefixDB)(nil)

// PrefixDB partitions a Database: every key is stored under a fixed prefix.
// Closing a PrefixDB does not close the underlying database.
type PrefixDB struct {
	prefix []byte
	db     Database
}

// NewPrefixDB returns the partition of [db] under [prefix]
func NewPrefixDB(prefix []byte, db Database) *PrefixDB {
	return &PrefixDB{
		prefix: copyBytes(prefix),
		db:     db,
	}
}

func (p *PrefixDB) key(key []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(key))
	out = append(out, p.prefix...)
	return append(out, key...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.db.Get(p.key(key))
}

func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.db.Has(p.key(key))
}

func (p *PrefixDB) PrefixKeys(prefix []byte) ([][]byte, error) {
	keys, err := p.db.PrefixKeys(p.key(prefix))
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		keys[i] = bytes.Clone(key[len(p.prefix):])
	}
	return keys, nil
}

func (p *PrefixDB) Put(key, value []byte) error {
	return p.db.Put(p.key(key), value)
}

func (p *PrefixDB) Delete(key []byte) error {
	return p.db.Delete(p.key(key))
}

func (p *PrefixDB) NewBatch() Batch {
	return &prefixBatch{db: p, batch: p.db.NewBatch()}
}

func (*PrefixDB) Close() error {
	return nil
}

type prefixBatch struct {
	db    *PrefixDB
	batch Batch
}

func (b *prefixBatch) Put(key, value []byte) error {
	return b.batch.Put(b.db.key(key), value)
}

func (b *prefixBatch) Delete(key []byte) error {
	return b.batch.Delete(b.db.key(key))
}

func (b *prefixBatch) Write() error {
	return b.batch.Write()
}

func (b *prefixBatch) Reset() {
	b.batch.Reset()
}

func (b *prefixBatch) Len() int {
	return b.batch.Len()
}
