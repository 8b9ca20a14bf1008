// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package database

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// pending entries carry a one byte tag ahead of the value
const (
	tagDeleted byte = iota
	tagValue
)

var (
	_ Database = (*Overlay)(nil)

	// ErrOverlayDone is returned when an overlay is used after Commit or Abort
	ErrOverlayDone = errors.New("overlay already committed or aborted")
)

// Overlay buffers writes on top of a base Database. Reads see the buffered
// writes first. Commit applies every buffered write to the base in a single
// batch, Abort drops them.
type Overlay struct {
	lock    sync.RWMutex
	base    Database
	pending *memdb.DB
	done    bool
}

// NewOverlay starts an overlay on [base]
func NewOverlay(base Database) *Overlay {
	return &Overlay{
		base:    base,
		pending: memdb.New(comparer.DefaultComparer, 0),
	}
}

// lookup returns the buffered entry for [key]
func (o *Overlay) lookup(key []byte) (value []byte, deleted bool, ok bool) {
	entry, err := o.pending.Get(key)
	if err != nil || len(entry) == 0 {
		return nil, false, false
	}
	if entry[0] == tagDeleted {
		return nil, true, true
	}
	return entry[1:], false, true
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	if o.done {
		return nil, ErrOverlayDone
	}
	if value, deleted, ok := o.lookup(key); ok {
		if deleted {
			return nil, ErrNotFound
		}
		return copyBytes(value), nil
	}
	return o.base.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	if o.done {
		return false, ErrOverlayDone
	}
	if _, deleted, ok := o.lookup(key); ok {
		return !deleted, nil
	}
	return o.base.Has(key)
}

func (o *Overlay) PrefixKeys(prefix []byte) ([][]byte, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	if o.done {
		return nil, ErrOverlayDone
	}
	baseKeys, err := o.base.PrefixKeys(prefix)
	if err != nil {
		return nil, err
	}

	keys := make([][]byte, 0, len(baseKeys))
	for _, key := range baseKeys {
		if !o.pending.Contains(key) {
			keys = append(keys, key)
		}
	}
	iter := o.pending.NewIterator(util.BytesPrefix(prefix))
	defer iter.Release()
	for iter.Next() {
		if iter.Value()[0] == tagValue {
			keys = append(keys, copyBytes(iter.Key()))
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return sortKeys(keys), nil
}

func (o *Overlay) Put(key, value []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.done {
		return ErrOverlayDone
	}
	o.put(key, value)
	return nil
}

func (o *Overlay) Delete(key []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.done {
		return ErrOverlayDone
	}
	o.delete(key)
	return nil
}

func (o *Overlay) put(key, value []byte) {
	entry := make([]byte, 1+len(value))
	entry[0] = tagValue
	copy(entry[1:], value)
	_ = o.pending.Put(key, entry)
}

func (o *Overlay) delete(key []byte) {
	_ = o.pending.Put(key, []byte{tagDeleted})
}

// NewBatch returns a batch that applies to the overlay, not to the base.
func (o *Overlay) NewBatch() Batch {
	return &overlayBatch{overlay: o, batch: new(leveldb.Batch)}
}

// Len returns the number of buffered writes
func (o *Overlay) Len() int {
	o.lock.RLock()
	defer o.lock.RUnlock()

	if o.done {
		return 0
	}
	return o.pending.Len()
}

// Commit writes the buffered changes to the base atomically, in key order.
// The overlay cannot be used afterwards.
func (o *Overlay) Commit() error {
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.done {
		return ErrOverlayDone
	}
	batch := o.base.NewBatch()
	iter := o.pending.NewIterator(nil)
	for iter.Next() {
		var err error
		if entry := iter.Value(); entry[0] == tagDeleted {
			err = batch.Delete(copyBytes(iter.Key()))
		} else {
			err = batch.Put(copyBytes(iter.Key()), copyBytes(entry[1:]))
		}
		if err != nil {
			iter.Release()
			return err
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	o.done = true
	o.pending.Reset()
	return nil
}

// Abort drops the buffered changes
func (o *Overlay) Abort() {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.done = true
	o.pending.Reset()
}

// Close aborts the overlay. The base is left open.
func (o *Overlay) Close() error {
	o.Abort()
	return nil
}

type overlayBatch struct {
	overlay *Overlay
	batch   *leveldb.Batch
}

func (b *overlayBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *overlayBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *overlayBatch) Write() error {
	o := b.overlay
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.done {
		return ErrOverlayDone
	}
	return b.batch.Replay(overlayReplay{overlay: o})
}

func (b *overlayBatch) Reset() {
	b.batch.Reset()
}

func (b *overlayBatch) Len() int {
	return b.batch.Len()
}

// overlayReplay applies a leveldb batch to an Overlay whose lock is held
type overlayReplay struct {
	overlay *Overlay
}

func (r overlayReplay) Put(key, value []byte) {
	r.overlay.put(key, value)
}

func (r overlayReplay) Delete(key []byte) {
	r.overlay.delete(key)
}
