// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"errors"
	"fmt"
)

// UnknownTransactionKind is the reason the validity of a transaction
// cannot be determined.
type UnknownTransactionKind uint8

const (
	// CannotLookup Could not lookup some information that is required to validate the transaction
	CannotLookup UnknownTransactionKind = iota
	// NoUnsignedValidator No validator found for the given unsigned transaction
	NoUnsignedValidator
	// UnknownCustom Any other custom unknown validity that is not covered
	UnknownCustom
)

var (
	errCannotLookup        = errors.New("lookup failed")
	errNoUnsignedValidator = errors.New("validator not found")
)

// UnknownTransaction is the validity error of a transaction whose
// validity could not be determined.
type UnknownTransaction struct {
	Kind   UnknownTransactionKind
	Custom uint8
}

func (u UnknownTransaction) Error() string {
	switch u.Kind {
	case CannotLookup:
		return errCannotLookup.Error()
	case NoUnsignedValidator:
		return errNoUnsignedValidator.Error()
	case UnknownCustom:
		return fmt.Sprintf("custom unknown transaction: %d", u.Custom)
	}
	return errInvalidResult.Error()
}
