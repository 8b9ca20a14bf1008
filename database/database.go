// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package database provides the key-value stores the proxy, the token ledger
// and the cross-chain manager persist their state in.
package database

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
)

// Backend names accepted by New
const (
	LevelDBBackend = "leveldb"
	MemDBBackend   = "memdb"
)

var (
	// ErrNotFound is returned by Get when the key is absent
	ErrNotFound = errors.New("not found")
	// ErrClosed is returned when the database has been closed
	ErrClosed = errors.New("closed")
	// ErrUnknownBackend is returned by New for an unsupported backend
	ErrUnknownBackend = errors.New("unknown database backend")
)

// KeyValueReader reads from a store
type KeyValueReader interface {
	// Get returns a copy of the value for key or ErrNotFound
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// PrefixScanner lists keys
type PrefixScanner interface {
	// PrefixKeys returns every key starting with prefix in ascending order
	PrefixKeys(prefix []byte) ([][]byte, error)
}

// KeyValueWriter writes to a store
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch collects writes that are applied atomically by Write
type Batch interface {
	KeyValueWriter
	// Write applies the batch
	Write() error
	// Reset drops all buffered writes
	Reset()
	// Len returns the number of buffered writes
	Len() int
}

// Database is a key-value store with atomic batches
type Database interface {
	KeyValueReader
	PrefixScanner
	KeyValueWriter
	NewBatch() Batch
	Close() error
}

// New opens a database of the given backend. [dir] is ignored by memdb.
func New(backend string, dir string) (Database, error) {
	switch backend {
	case LevelDBBackend:
		return NewLevelDB(dir)
	case MemDBBackend:
		return NewMemDB(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// IsNotFound reports whether err is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func sortKeys(keys [][]byte) [][]byte {
	slices.SortFunc(keys, bytes.Compare)
	return keys
}
