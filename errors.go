// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package lockproxy

import (
	"errors"
	"fmt"
)

// ErrorKind groups errors by how the caller should treat them
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	// KindValidation is a malformed argument
	KindValidation
	// KindBinding is a missing asset or proxy binding
	KindBinding
	// KindAuthorization is a missing witness or an untrusted caller or source
	KindAuthorization
	// KindCollaborator is a failure of the ledger, the cross-chain manager or
	// the store
	KindCollaborator
	// KindDecode is a payload that cannot be decoded
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBinding:
		return "binding"
	case KindAuthorization:
		return "authorization"
	case KindCollaborator:
		return "collaborator"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error represents a lock proxy error
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidAssetHash   = &Error{Kind: KindValidation, Message: "asset hash must be 20 bytes"}
	ErrInvalidFromAddress = &Error{Kind: KindValidation, Message: "from address must be 20 bytes"}
	ErrInvalidToAddress   = &Error{Kind: KindValidation, Message: "to address must be 20 bytes"}
	ErrLockFromCustody    = &Error{Kind: KindValidation, Message: "cannot lock funds held in custody"}
	ErrEmptyToAddress     = &Error{Kind: KindValidation, Message: "to address must not be empty"}
	ErrEmptyTargetHash    = &Error{Kind: KindValidation, Message: "target hash must not be empty"}
	ErrInvalidChainID     = &Error{Kind: KindValidation, Message: "invalid chain id"}
	ErrInvalidAmount      = &Error{Kind: KindValidation, Message: "invalid amount"}
	ErrNegativeAmount     = &Error{Kind: KindValidation, Message: "amount must not be less than 0"}
	ErrAmountOutOfRange   = &Error{Kind: KindValidation, Message: "amount out of range"}
	ErrUnknownMethod      = &Error{Kind: KindValidation, Message: "unknown method"}
	ErrInvalidScript      = &Error{Kind: KindValidation, Message: "invalid script"}

	ErrUnboundAsset = &Error{Kind: KindBinding, Message: "target chain asset hash not found"}
	ErrUnboundProxy = &Error{Kind: KindBinding, Message: "target chain proxy contract not found"}

	ErrUnauthorized         = &Error{Kind: KindAuthorization, Message: "operator witness required"}
	ErrUntrustedCaller      = &Error{Kind: KindAuthorization, Message: "only the cross-chain manager may call unlock"}
	ErrUntrustedSourceProxy = &Error{Kind: KindAuthorization, Message: "source proxy contract not trusted"}

	ErrTransferFailed     = &Error{Kind: KindCollaborator, Message: "asset transfer failed"}
	ErrCrossChainFailed   = &Error{Kind: KindCollaborator, Message: "cross-chain submission failed"}
	ErrCompensationFailed = &Error{Kind: KindCollaborator, Message: "refund after failed cross-chain submission failed"}
	ErrUnknownAsset       = &Error{Kind: KindCollaborator, Message: "asset ledger not found"}
	ErrBalanceUnavailable = &Error{Kind: KindCollaborator, Message: "custody balance unavailable"}
	ErrStorage            = &Error{Kind: KindCollaborator, Message: "storage failure"}

	ErrMalformedPayload = &Error{Kind: KindDecode, Message: "malformed payload"}
)

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
