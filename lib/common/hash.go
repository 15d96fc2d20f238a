// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HashLength is the expected length of the common.Hash type
const HashLength = 32

// EmptyHash is the zero hash.
var EmptyHash = Hash{}

// ErrNoPrefix is returned when a hex string is not 0x prefixed.
var ErrNoPrefix = errors.New("could not byteify non 0x prefixed string")

// Hash used to store a blake2b hash
type Hash [32]byte

// NewHash casts a byte slice to a Hash.
// If the input is longer than 32 bytes, it takes the first 32 bytes.
func NewHash(in []byte) (res Hash) {
	copy(res[:], in)
	return res
}

// ToBytes turns a hash to a byte slice
func (h Hash) ToBytes() []byte {
	b := [32]byte(h)
	return b[:]
}

// IsEmpty returns true if the hash is empty, false otherwise.
func (h Hash) IsEmpty() bool {
	return h == EmptyHash
}

// String returns the hex string for the hash
func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

// Short returns the first 4 bytes and the last 4 bytes of the hex string for the hash
func (h Hash) Short() string {
	const nBytes = 4
	return fmt.Sprintf("0x%x...%x", h[:nBytes], h[len(h)-nBytes:])
}

// UnmarshalJSON converts hex data to hash
func (h *Hash) UnmarshalJSON(data []byte) error {
	trimmedData := strings.Trim(string(data), "\"")
	if len(trimmedData) < 2 {
		return errors.New("invalid hash format")
	}

	var err error
	*h, err = HexToHash(trimmedData)
	return err
}

// MarshalJSON converts hash to hex data
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// HexToHash turns a 0x prefixed hex string into type Hash
func HexToHash(in string) (Hash, error) {
	out, err := HexToBytes(in)
	if err != nil {
		return Hash{}, err
	}
	return NewHash(out), nil
}

// MustHexToHash turns a 0x prefixed hex string into type Hash
// it panics if it cannot turn the string into a Hash
func MustHexToHash(in string) Hash {
	h, err := HexToHash(in)
	if err != nil {
		panic(err)
	}
	return h
}

// HexToBytes turns a 0x prefixed hex string into a byte slice
func HexToBytes(in string) ([]byte, error) {
	if !strings.HasPrefix(in, "0x") {
		return nil, fmt.Errorf("%w: %s", ErrNoPrefix, in)
	}
	return hex.DecodeString(in[2:])
}

// MustHexToBytes turns a 0x prefixed hex string into a byte slice
// it panics if it cannot be decoded.
func MustHexToBytes(in string) []byte {
	out, err := HexToBytes(in)
	if err != nil {
		panic(err)
	}
	return out
}

// BytesToHex turns a byte slice into a 0x prefixed hex string
func BytesToHex(in []byte) string {
	return "0x" + hex.EncodeToString(in)
}
