// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// Header is a state block header
type Header struct {
	ParentHash     common.Hash `json:"parentHash"`
	Number         uint64      `json:"number"`
	StateRoot      common.Hash `json:"stateRoot"`
	ExtrinsicsRoot common.Hash `json:"extrinsicsRoot"`
	Digest         Digest      `json:"digest"`
}

// NewHeader creates a new block header
func NewHeader(parentHash, stateRoot, extrinsicsRoot common.Hash,
	number uint64, digest Digest) *Header {
	return &Header{
		ParentHash:     parentHash,
		Number:         number,
		StateRoot:      stateRoot,
		ExtrinsicsRoot: extrinsicsRoot,
		Digest:         digest,
	}
}

// NewEmptyHeader returns a header with an empty digest
func NewEmptyHeader() *Header {
	return &Header{Digest: NewDigest()}
}

// Hash returns the blake2b hash of the SCALE encoded header.
func (bh *Header) Hash() common.Hash {
	enc, err := scale.Marshal(*bh)
	if err != nil {
		panic(fmt.Sprintf("encoding header: %s", err))
	}
	return common.MustBlake2bHash(enc)
}

// DeepCopy returns a deep copy of the header
func (bh *Header) DeepCopy() *Header {
	cp := *bh
	cp.Digest = make(Digest, len(bh.Digest))
	copy(cp.Digest, bh.Digest)
	return &cp
}

func (bh *Header) String() string {
	return fmt.Sprintf("ParentHash=%s Number=%d StateRoot=%s ExtrinsicsRoot=%s Digest=%v Hash=%s",
		bh.ParentHash, bh.Number, bh.StateRoot, bh.ExtrinsicsRoot, bh.Digest, bh.Hash())
}

// Encode implements the encodeable interface of the codec.
func (bh Header) Encode(e scale.Encoder) error {
	err := e.Write(bh.ParentHash[:])
	if err != nil {
		return err
	}
	err = scale.EncodeCompact(e, bh.Number)
	if err != nil {
		return err
	}
	err = e.Write(bh.StateRoot[:])
	if err != nil {
		return err
	}
	err = e.Write(bh.ExtrinsicsRoot[:])
	if err != nil {
		return err
	}
	return bh.Digest.Encode(e)
}

// Decode implements the decodeable interface of the codec.
func (bh *Header) Decode(d scale.Decoder) (err error) {
	err = d.Read(bh.ParentHash[:])
	if err != nil {
		return fmt.Errorf("decoding parent hash: %w", err)
	}
	bh.Number, err = scale.DecodeCompact(d)
	if err != nil {
		return fmt.Errorf("decoding number: %w", err)
	}
	err = d.Read(bh.StateRoot[:])
	if err != nil {
		return fmt.Errorf("decoding state root: %w", err)
	}
	err = d.Read(bh.ExtrinsicsRoot[:])
	if err != nil {
		return fmt.Errorf("decoding extrinsics root: %w", err)
	}
	return bh.Digest.Decode(d)
}
