// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package lockproxy

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	LockEventName      = "LockEvent"
	UnlockEventName    = "UnlockEvent"
	BindProxyEventName = "BindProxyHashEvent"
	BindAssetEventName = "BindAssetHashEvent"
	UpgradeEventName   = "UpgradeEvent"
)

// Event is a notification emitted by a successful operation
type Event interface {
	EventName() string
}

// EventSink receives the events of an invocation
type EventSink interface {
	Emit(Event)
}

// EventLog is an EventSink that keeps events in emission order
type EventLog struct {
	events []Event
}

func (l *EventLog) Emit(e Event) {
	l.events = append(l.events, e)
}

// Events returns the recorded events
func (l *EventLog) Events() []Event {
	return l.events
}

// Reset drops the recorded events
func (l *EventLog) Reset() {
	l.events = nil
}

// LockEvent carries the local and remote side of a lock
type LockEvent struct {
	FromAssetHash common.Address
	FromAddress   common.Address
	ToChainID     *big.Int
	ToAssetHash   []byte
	ToAddress     []byte
	Amount        *uint256.Int
}

func (*LockEvent) EventName() string { return LockEventName }

// UnlockEvent is emitted when custody funds are released
type UnlockEvent struct {
	ToAssetHash common.Address
	ToAddress   common.Address
	Amount      *uint256.Int
}

func (*UnlockEvent) EventName() string { return UnlockEventName }

type BindProxyEvent struct {
	ToChainID       *big.Int
	TargetProxyHash []byte
}

func (*BindProxyEvent) EventName() string { return BindProxyEventName }

// BindAssetEvent includes the custody balance of the asset at bind time
type BindAssetEvent struct {
	FromAssetHash   common.Address
	ToChainID       *big.Int
	TargetAssetHash []byte
	InitialAmount   *uint256.Int
}

func (*BindAssetEvent) EventName() string { return BindAssetEventName }

type UpgradeEvent struct {
	ScriptHash ids.ID
	Name       string
	Version    string
}

func (*UpgradeEvent) EventName() string { return UpgradeEventName }
