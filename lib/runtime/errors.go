// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"errors"
	"fmt"
)

// Boundary errors. They are fatal to the call that returned them.
var (
	// ErrInstanceUnavailable is returned when the runtime cannot be reached
	// or crashed while executing.
	ErrInstanceUnavailable = errors.New("runtime instance unavailable")
	// ErrUnknownFunction is returned when the runtime does not export the called function.
	ErrUnknownFunction = errors.New("runtime function not exported")
	// ErrCallResultDecode is returned when the result of a call cannot be
	// decoded into the expected type, which signals version skew.
	ErrCallResultDecode = errors.New("cannot decode runtime call result")
	// ErrUnsupportedAPI is returned when the runtime does not implement the
	// api group, or not at a revision the host knows how to call.
	ErrUnsupportedAPI = errors.New("api not supported by runtime")
)

// Usage errors reported by the runtime.
var (
	// ErrBlockNotInitialised is returned when applying an extrinsic or
	// finalising a block without a prior block initialisation.
	ErrBlockNotInitialised = errors.New("block not initialised")
	// ErrBlockAlreadyInitialised is returned when initialising a block
	// twice without finalising it.
	ErrBlockAlreadyInitialised = errors.New("block already initialised")
	// ErrBadArguments is returned when the call arguments cannot be decoded.
	ErrBadArguments = errors.New("cannot decode call arguments")
	// ErrInvalidBlock is returned by block execution when the block does
	// not match its header.
	ErrInvalidBlock = errors.New("invalid block")
)

// CallError is an error reported by the runtime while executing a call.
// It is recoverable: the pending changes are discarded and the error is
// returned to the caller.
type CallError struct {
	Function string
	Err      error
}

// NewCallError wraps err as a call error of function.
func NewCallError(function string, err error) *CallError {
	return &CallError{Function: function, Err: err}
}

func (e *CallError) Error() string {
	return fmt.Sprintf("runtime call %s: %s", e.Function, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if err is a boundary error, as opposed to an
// error reported by the runtime itself.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInstanceUnavailable) ||
		errors.Is(err, ErrUnknownFunction) ||
		errors.Is(err, ErrCallResultDecode) ||
		errors.Is(err, ErrUnsupportedAPI)
}

// usageErrors are carried by code over process boundaries so that
// errors.Is keeps working on the host side.
var usageErrors = []error{
	ErrBlockNotInitialised,
	ErrBlockAlreadyInitialised,
	ErrBadArguments,
	ErrInvalidBlock,
}

// ErrorCode returns the wire code of a usage error, or 0 if err does not
// wrap one.
func ErrorCode(err error) uint8 {
	for i, usageErr := range usageErrors {
		if errors.Is(err, usageErr) {
			return uint8(i + 1)
		}
	}
	return 0
}

// ErrorFromCode rebuilds an error from its wire code and message.
func ErrorFromCode(code uint8, message string) error {
	if code == 0 || int(code) > len(usageErrors) {
		return errors.New(message)
	}
	return fmt.Errorf("%w: %s", usageErrors[code-1], message)
}
