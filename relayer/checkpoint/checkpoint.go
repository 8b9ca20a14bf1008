// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package checkpoint

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/lockproxy/database"
)

var nextIndexKey = []byte("nextIndex")

//
// Checkpoint tracks the next outbox index a relayer has to process and
// commits it to the database in a thread safe manner.
//

type Checkpoint struct {
	logger    log.Logger
	db        database.Database
	relayerID string
	nextIndex uint64
	lock      sync.RWMutex
	// indices processed out of order, waiting for the gap to close
	pending map[uint64]struct{}
	// Update the dirty flag when nextIndex is updated
	dirty bool
}

// New loads the checkpoint of [relayerID] from [db]. Processing resumes at
// the larger of the stored index and [startingIndex].
func New(
	logger log.Logger,
	db database.Database,
	relayerID string,
	startingIndex uint64,
) (*Checkpoint, error) {
	logger.Info(
		"Creating checkpoint",
		log.String("relayerID", relayerID),
		log.Uint64("startingIndex", startingIndex),
	)

	storedIndex, err := readIndex(db)
	if err != nil {
		logger.Error(
			"Failed to get the next outbox index",
			log.Err(err),
			log.String("relayerID", relayerID),
		)
		return nil, fmt.Errorf("failed to get the next outbox index: %w", err)
	}

	return &Checkpoint{
		logger:    logger,
		db:        db,
		relayerID: relayerID,
		nextIndex: max(storedIndex, startingIndex),
		pending:   make(map[uint64]struct{}),
		dirty:     storedIndex < startingIndex,
	}, nil
}

func readIndex(db database.Database) (uint64, error) {
	b, err := db.Get(nextIndexKey)
	if database.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(b), 10, 64)
}

// Next returns the first index that has not been processed
func (c *Checkpoint) Next() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.nextIndex
}

// Run writes the checkpoint every time [writeSignal] fires, until it is
// closed.
func (c *Checkpoint) Run(writeSignal <-chan struct{}) {
	go func() {
		for range writeSignal {
			if err := c.Flush(); err != nil {
				c.logger.Error(
					"Failed to write checkpoint",
					log.Err(err),
					log.String("relayerID", c.relayerID),
				)
			}
		}
	}()
}

// Flush writes the checkpoint if it changed since the last write
func (c *Checkpoint) Flush() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.dirty {
		return nil
	}
	c.logger.Debug(
		"Writing checkpoint",
		log.Uint64("nextIndex", c.nextIndex),
		log.String("relayerID", c.relayerID),
	)
	if err := c.db.Put(nextIndexKey, []byte(strconv.FormatUint(c.nextIndex, 10))); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Stage marks [index] as processed. Indices are committed in sequence: an
// index beyond the next one is held in memory until the gap closes.
func (c *Checkpoint) Stage(index uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if index < c.nextIndex {
		c.logger.Debug(
			"Attempting to stage an index that is already committed. Skipping.",
			log.Uint64("index", index),
			log.Uint64("nextIndex", c.nextIndex),
			log.String("relayerID", c.relayerID),
		)
		return
	}

	c.pending[index] = struct{}{}
	for {
		if _, ok := c.pending[c.nextIndex]; !ok {
			break
		}
		delete(c.pending, c.nextIndex)
		c.nextIndex++
		c.dirty = true
	}
}
