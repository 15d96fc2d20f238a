// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// ErrInvalidBlockIDKind is returned when decoding a block id with an unknown kind byte.
var ErrInvalidBlockIDKind = errors.New("invalid block id kind")

const (
	blockIDHash   byte = 0
	blockIDNumber byte = 1
)

// BlockID identifies a block either by its hash or by its number.
type BlockID struct {
	hash     common.Hash
	number   uint64
	byNumber bool
}

// NewBlockIDFromHash returns a block id referring to the block with the given hash.
func NewBlockIDFromHash(hash common.Hash) BlockID {
	return BlockID{hash: hash}
}

// NewBlockIDFromNumber returns a block id referring to the canonical block at the given number.
func NewBlockIDFromNumber(number uint64) BlockID {
	return BlockID{number: number, byNumber: true}
}

// Hash returns the hash and true if the id refers to a hash.
func (id BlockID) Hash() (common.Hash, bool) {
	return id.hash, !id.byNumber
}

// Number returns the number and true if the id refers to a number.
func (id BlockID) Number() (uint64, bool) {
	return id.number, id.byNumber
}

func (id BlockID) String() string {
	if id.byNumber {
		return fmt.Sprintf("#%d", id.number)
	}
	return id.hash.Short()
}

// Encode implements the encodeable interface of the codec.
func (id BlockID) Encode(e scale.Encoder) error {
	if id.byNumber {
		err := e.PushByte(blockIDNumber)
		if err != nil {
			return err
		}
		return scale.EncodeCompact(e, id.number)
	}

	err := e.PushByte(blockIDHash)
	if err != nil {
		return err
	}
	return e.Write(id.hash[:])
}

// Decode implements the decodeable interface of the codec.
func (id *BlockID) Decode(d scale.Decoder) error {
	kind, err := d.ReadOneByte()
	if err != nil {
		return err
	}

	switch kind {
	case blockIDHash:
		*id = BlockID{}
		return d.Read(id.hash[:])
	case blockIDNumber:
		number, err := scale.DecodeCompact(d)
		if err != nil {
			return err
		}
		*id = NewBlockIDFromNumber(number)
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidBlockIDKind, kind)
	}
}
