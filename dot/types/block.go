// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// Body is the extrinsics inside a block
type Body []Extrinsic

// Block defines a state block
type Block struct {
	Header Header
	Body   Body
}

// NewBlock returns a new Block
func NewBlock(header Header, body Body) Block {
	return Block{
		Header: header,
		Body:   body,
	}
}

// Encode implements the encodeable interface of the codec.
func (b Block) Encode(e scale.Encoder) error {
	err := b.Header.Encode(e)
	if err != nil {
		return err
	}
	return e.Encode([]Extrinsic(b.Body))
}

// Decode implements the decodeable interface of the codec.
func (b *Block) Decode(d scale.Decoder) error {
	err := b.Header.Decode(d)
	if err != nil {
		return err
	}
	exts, err := scale.DecodeSlice[Extrinsic](d)
	if err != nil {
		return err
	}
	b.Body = exts
	return nil
}

// ExtrinsicsRoot returns the blake2b hash of the SCALE encoded extrinsic list.
func (b Body) ExtrinsicsRoot() (common.Hash, error) {
	enc, err := scale.Marshal([]Extrinsic(b))
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2bHash(enc)
}
