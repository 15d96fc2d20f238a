// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/lib/transaction"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

var (
	errUnsetTransactionValidity = errors.New("unset transaction validity")
	errUnknownValidityIndex     = errors.New("unknown transaction validity index")
)

// TransactionValidity is the result of TaggedTransactionQueue_validate_transaction.
// Exactly one of the fields is set: Result<ValidTransaction, TransactionValidityError>
// with TransactionValidityError being Invalid or Unknown.
type TransactionValidity struct {
	Valid   *transaction.Validity
	Invalid *InvalidTransaction
	Unknown *UnknownTransaction
}

// NewValidTransactionValidity returns a valid transaction validity.
func NewValidTransactionValidity(v transaction.Validity) TransactionValidity {
	return TransactionValidity{Valid: &v}
}

// NewInvalidTransactionValidity returns an invalid transaction validity.
func NewInvalidTransactionValidity(kind InvalidTransactionKind) TransactionValidity {
	return TransactionValidity{Invalid: &InvalidTransaction{Kind: kind}}
}

// NewUnknownTransactionValidity returns an unknown transaction validity.
func NewUnknownTransactionValidity(kind UnknownTransactionKind) TransactionValidity {
	return TransactionValidity{Unknown: &UnknownTransaction{Kind: kind}}
}

// Err returns the validity error, or nil if the transaction is valid.
func (tv TransactionValidity) Err() error {
	switch {
	case tv.Invalid != nil:
		return *tv.Invalid
	case tv.Unknown != nil:
		return *tv.Unknown
	case tv.Valid != nil:
		return nil
	}
	return errUnsetTransactionValidity
}

func (tv TransactionValidity) String() string {
	if tv.Valid != nil {
		return "valid: " + tv.Valid.String()
	}
	return fmt.Sprintf("%v", tv.Err())
}

// Encode implements the encodeable interface of the codec.
func (tv TransactionValidity) Encode(e scale.Encoder) error {
	switch {
	case tv.Valid != nil:
		err := e.PushByte(0)
		if err != nil {
			return err
		}
		return e.Encode(*tv.Valid)
	case tv.Invalid != nil:
		return encodeValidityError(e, 0, uint8(tv.Invalid.Kind), tv.Invalid.Kind == InvalidCustom, tv.Invalid.Custom)
	case tv.Unknown != nil:
		return encodeValidityError(e, 1, uint8(tv.Unknown.Kind), tv.Unknown.Kind == UnknownCustom, tv.Unknown.Custom)
	}
	return errUnsetTransactionValidity
}

func encodeValidityError(e scale.Encoder, index, kind uint8, custom bool, value uint8) error {
	b := []byte{1, index, kind}
	if custom {
		b = append(b, value)
	}
	return e.Write(b)
}

// Decode implements the decodeable interface of the codec.
func (tv *TransactionValidity) Decode(d scale.Decoder) error {
	*tv = TransactionValidity{}

	result, err := d.ReadOneByte()
	if err != nil {
		return err
	}
	if result == 0 {
		var v transaction.Validity
		err = d.Decode(&v)
		if err != nil {
			return err
		}
		tv.Valid = &v
		return nil
	}
	if result != 1 {
		return fmt.Errorf("%w: result %d", errUnknownValidityIndex, result)
	}

	index, err := d.ReadOneByte()
	if err != nil {
		return err
	}
	kind, err := d.ReadOneByte()
	if err != nil {
		return err
	}

	switch index {
	case 0:
		invalid := InvalidTransaction{Kind: InvalidTransactionKind(kind)}
		if invalid.Kind > MandatoryDispatch {
			return fmt.Errorf("%w: invalid transaction %d", errUnknownValidityIndex, kind)
		}
		if invalid.Kind == InvalidCustom {
			invalid.Custom, err = d.ReadOneByte()
			if err != nil {
				return err
			}
		}
		tv.Invalid = &invalid
	case 1:
		unknown := UnknownTransaction{Kind: UnknownTransactionKind(kind)}
		if unknown.Kind > UnknownCustom {
			return fmt.Errorf("%w: unknown transaction %d", errUnknownValidityIndex, kind)
		}
		if unknown.Kind == UnknownCustom {
			unknown.Custom, err = d.ReadOneByte()
			if err != nil {
				return err
			}
		}
		tv.Unknown = &unknown
	default:
		return fmt.Errorf("%w: error %d", errUnknownValidityIndex, index)
	}
	return nil
}
