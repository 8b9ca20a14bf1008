// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package lockproxy

import (
	"fmt"

	"github.com/luxfi/geth/rlp"
)

// Log is the serialized form of an event
type Log struct {
	Name string
	Data []byte
}

// EncodeLog serializes an event
func EncodeLog(e Event) (Log, error) {
	data, err := rlp.EncodeToBytes(e)
	if err != nil {
		return Log{}, fmt.Errorf("encoding %s: %w", e.EventName(), err)
	}
	return Log{Name: e.EventName(), Data: data}, nil
}

// DecodeLog is the inverse of EncodeLog
func DecodeLog(l Log) (Event, error) {
	var e Event
	switch l.Name {
	case LockEventName:
		e = new(LockEvent)
	case UnlockEventName:
		e = new(UnlockEvent)
	case BindProxyEventName:
		e = new(BindProxyEvent)
	case BindAssetEventName:
		e = new(BindAssetEvent)
	case UpgradeEventName:
		e = new(UpgradeEvent)
	default:
		return nil, fmt.Errorf("unknown event %q", l.Name)
	}
	if err := rlp.DecodeBytes(l.Data, e); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", l.Name, err)
	}
	return e, nil
}
