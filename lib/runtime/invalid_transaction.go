// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"errors"
	"fmt"
)

// InvalidTransactionKind is the reason a transaction can never be valid.
type InvalidTransactionKind uint8

const (
	// Call The call of the transaction is not expected
	Call InvalidTransactionKind = iota
	// Payment General error to do with the inability to pay some fees (e.g. account balance too low)
	Payment
	// Future General error to do with the transaction not yet being valid (e.g. nonce too high)
	Future
	// Stale General error to do with the transaction being outdated (e.g. nonce too low)
	Stale
	// BadProof General error to do with the transaction's proofs (e.g. signature)
	BadProof
	// AncientBirthBlock The transaction birth block is ancient
	AncientBirthBlock
	// ExhaustsResources The transaction would exhaust the resources of current block
	ExhaustsResources
	// InvalidCustom Any other custom invalid validity that is not covered
	InvalidCustom
	// BadMandatory An extrinsic with a Mandatory dispatch resulted in Error
	BadMandatory
	// MandatoryDispatch A transaction with a mandatory dispatch
	MandatoryDispatch
)

var (
	errUnexpectedTxCall         = errors.New("call of the transaction is not expected")
	errInvalidPayment           = errors.New("invalid payment")
	errInvalidTransaction       = errors.New("invalid transaction")
	errOutdatedTransaction      = errors.New("outdated transaction")
	errBadProof                 = errors.New("bad proof")
	errAncientBirthBlock        = errors.New("ancient birth block")
	errExhaustsResources        = errors.New("exhausts resources")
	errMandatoryDispatchError   = errors.New("mandatory dispatch error")
	errInvalidMandatoryDispatch = errors.New("invalid mandatory dispatch")
	errInvalidResult            = errors.New("invalid error value")
)

// InvalidTransaction is the validity error of a transaction which will
// never be valid. Custom is only meaningful for InvalidCustom.
type InvalidTransaction struct {
	Kind   InvalidTransactionKind
	Custom uint8
}

func (i InvalidTransaction) Error() string {
	switch i.Kind {
	case Call:
		return errUnexpectedTxCall.Error()
	case Payment:
		return errInvalidPayment.Error()
	case Future:
		return errInvalidTransaction.Error()
	case Stale:
		return errOutdatedTransaction.Error()
	case BadProof:
		return errBadProof.Error()
	case AncientBirthBlock:
		return errAncientBirthBlock.Error()
	case ExhaustsResources:
		return errExhaustsResources.Error()
	case InvalidCustom:
		return fmt.Sprintf("custom invalid transaction: %d", i.Custom)
	case BadMandatory:
		return errMandatoryDispatchError.Error()
	case MandatoryDispatch:
		return errInvalidMandatoryDispatch.Error()
	}
	return errInvalidResult.Error()
}
