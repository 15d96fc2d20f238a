// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

var errUnknownApplyResult = errors.New("unknown apply result index")

// ApplyError is the reason an extrinsic failed its validity checks.
// An extrinsic failing them has no effect on state.
type ApplyError uint8

const (
	// ApplyErrorBadSignature the signature does not verify or the sender cannot be looked up
	ApplyErrorBadSignature ApplyError = iota
	// ApplyErrorStale the nonce is below the account nonce
	ApplyErrorStale
	// ApplyErrorFuture the nonce is above the account nonce
	ApplyErrorFuture
	// ApplyErrorCantPay the sender cannot pay the transaction fee
	ApplyErrorCantPay
	// ApplyErrorFullBlock the block cannot hold more extrinsics
	ApplyErrorFullBlock
	// ApplyErrorBadInherentPosition an inherent is not at its fixed position
	ApplyErrorBadInherentPosition
	// ApplyErrorBadFormat the extrinsic cannot be decoded
	ApplyErrorBadFormat
)

func (e ApplyError) Error() string {
	switch e {
	case ApplyErrorBadSignature:
		return "bad signature"
	case ApplyErrorStale:
		return "stale"
	case ApplyErrorFuture:
		return "future"
	case ApplyErrorCantPay:
		return "cannot pay fees"
	case ApplyErrorFullBlock:
		return "full block"
	case ApplyErrorBadInherentPosition:
		return "inherent at wrong position"
	case ApplyErrorBadFormat:
		return "bad format"
	}
	return fmt.Sprintf("apply error %d", uint8(e))
}

// DispatchError is the error of a module call which passed the validity
// checks. Its effects are rolled back but the block goes on.
type DispatchError struct {
	Module  uint8
	Error   uint8
	Message string
}

func (e DispatchError) String() string {
	return fmt.Sprintf("module %d error %d: %s", e.Module, e.Error, e.Message)
}

// ApplyResult is the outcome of BlockBuilder_apply_extrinsic:
// Result<ApplyOutcome, ApplyError>. The zero value is a success.
type ApplyResult struct {
	// Validity is set when the extrinsic failed the validity checks.
	Validity *ApplyError
	// Dispatch is set when the module call failed.
	Dispatch *DispatchError
}

// ApplySuccess returns a successful apply result.
func ApplySuccess() ApplyResult {
	return ApplyResult{}
}

// ApplyFail returns the result of a failed dispatch.
func ApplyFail(dispatchErr DispatchError) ApplyResult {
	return ApplyResult{Dispatch: &dispatchErr}
}

// ApplyInvalid returns the result of an extrinsic failing its validity checks.
func ApplyInvalid(applyErr ApplyError) ApplyResult {
	return ApplyResult{Validity: &applyErr}
}

// IsSuccess returns true if the extrinsic was applied and its call succeeded.
func (r ApplyResult) IsSuccess() bool {
	return r.Validity == nil && r.Dispatch == nil
}

func (r ApplyResult) String() string {
	switch {
	case r.Validity != nil:
		return "invalid: " + r.Validity.Error()
	case r.Dispatch != nil:
		return "dispatch failed: " + r.Dispatch.String()
	}
	return "success"
}

// Encode implements the encodeable interface of the codec.
func (r ApplyResult) Encode(e scale.Encoder) error {
	switch {
	case r.Validity != nil:
		return e.Write([]byte{1, byte(*r.Validity)})
	case r.Dispatch != nil:
		err := e.Write([]byte{0, 1})
		if err != nil {
			return err
		}
		return e.Encode(*r.Dispatch)
	}
	return e.Write([]byte{0, 0})
}

// Decode implements the decodeable interface of the codec.
func (r *ApplyResult) Decode(d scale.Decoder) error {
	*r = ApplyResult{}

	result, err := d.ReadOneByte()
	if err != nil {
		return err
	}
	value, err := d.ReadOneByte()
	if err != nil {
		return err
	}

	switch {
	case result == 1 && value <= byte(ApplyErrorBadFormat):
		applyErr := ApplyError(value)
		r.Validity = &applyErr
	case result == 0 && value == 0:
	case result == 0 && value == 1:
		var dispatchErr DispatchError
		err = d.Decode(&dispatchErr)
		if err != nil {
			return err
		}
		r.Dispatch = &dispatchErr
	default:
		return fmt.Errorf("%w: %d/%d", errUnknownApplyResult, result, value)
	}
	return nil
}

// InherentError is the failure of one inherent kind.
type InherentError struct {
	Identifier types.InherentIdentifier
	Message    string
}

// CheckInherentsResult is the result of BlockBuilder_check_inherents.
type CheckInherentsResult struct {
	// Okay is false if any inherent failed.
	Okay bool
	// FatalError is true if any failure makes the block invalid.
	FatalError bool
	// Errors are sorted by identifier.
	Errors []InherentError
}

// NewCheckInherentsResult returns a result without errors.
func NewCheckInherentsResult() CheckInherentsResult {
	return CheckInherentsResult{Okay: true, Errors: []InherentError{}}
}

// PutError records the failure of an inherent kind. Fatal errors make the
// whole block invalid.
func (r *CheckInherentsResult) PutError(id types.InherentIdentifier, fatal bool, message string) {
	r.Okay = false
	r.FatalError = r.FatalError || fatal
	r.Errors = append(r.Errors, InherentError{Identifier: id, Message: message})
	sort.SliceStable(r.Errors, func(i, j int) bool {
		return bytes.Compare(r.Errors[i].Identifier[:], r.Errors[j].Identifier[:]) < 0
	})
}

// Error returns the failure message recorded for the inherent kind.
func (r CheckInherentsResult) Error(id types.InherentIdentifier) (message string, ok bool) {
	for _, inherentErr := range r.Errors {
		if inherentErr.Identifier == id {
			return inherentErr.Message, true
		}
	}
	return "", false
}

// CheckInherentsArgs are the arguments of BlockBuilder_check_inherents.
type CheckInherentsArgs struct {
	Block types.Block
	Data  types.InherentData
}
