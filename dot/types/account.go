// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
)

// AccountID is the public key of an account.
type AccountID [32]byte

// NewAccountID returns the account id of the given public key.
func NewAccountID(publicKey []byte) (id AccountID) {
	copy(id[:], publicKey)
	return id
}

func (a AccountID) String() string {
	return fmt.Sprintf("0x%x", a[:4])
}

// ToBytes returns the account id as a byte slice
func (a AccountID) ToBytes() []byte {
	b := [32]byte(a)
	return b[:]
}

// MarshalText encodes the account id as a 0x prefixed hex string.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(common.BytesToHex(a[:])), nil
}

// UnmarshalText decodes a 0x prefixed hex string.
func (a *AccountID) UnmarshalText(text []byte) error {
	b, err := common.HexToBytes(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(a) {
		return fmt.Errorf("account id must be %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return nil
}
