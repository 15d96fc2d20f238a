// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// ErrBadSignature is returned when an extrinsic signature does not verify.
var ErrBadSignature = errors.New("bad signature")

// Extrinsic is a generic transaction whose format is verified in the runtime
type Extrinsic []byte

// NewExtrinsic creates a new Extrinsic given a byte slice
func NewExtrinsic(e []byte) Extrinsic {
	return Extrinsic(e)
}

func (e Extrinsic) String() string {
	return common.BytesToHex(e)
}

// Decode reads a length prefixed extrinsic.
func (e *Extrinsic) Decode(d scale.Decoder) error {
	b, err := scale.DecodeBytes(d)
	if err != nil {
		return err
	}
	*e = b
	return nil
}

// Hash returns the blake2b hash of the extrinsic
func (e Extrinsic) Hash() common.Hash {
	return common.MustBlake2bHash(e)
}

// Call is a module call: the module index in the runtime, the call index
// in the module and the SCALE encoded call arguments.
type Call struct {
	Module   uint8
	Function uint8
	Args     []byte
}

// NewCall returns a call with the SCALE encoding of args as arguments.
func NewCall(module, function uint8, args ...any) (Call, error) {
	call := Call{Module: module, Function: function}
	for _, arg := range args {
		enc, err := scale.Marshal(arg)
		if err != nil {
			return Call{}, fmt.Errorf("encoding call argument: %w", err)
		}
		call.Args = append(call.Args, enc...)
	}
	if call.Args == nil {
		call.Args = []byte{}
	}
	return call, nil
}

func (c Call) String() string {
	return fmt.Sprintf("Call(%d,%d)", c.Module, c.Function)
}

// ExtrinsicSignature is the signature part of a signed extrinsic.
type ExtrinsicSignature struct {
	Signer    AccountID
	Signature [64]byte
	Nonce     uint64
}

// UncheckedExtrinsic is the decoded form of an Extrinsic: an optional
// signature and the call. Unsigned extrinsics are inherents.
type UncheckedExtrinsic struct {
	Signature scale.Option[ExtrinsicSignature]
	Function  Call
}

// NewUnsignedExtrinsic returns an unsigned extrinsic for the call.
func NewUnsignedExtrinsic(call Call) UncheckedExtrinsic {
	return UncheckedExtrinsic{
		Signature: scale.None[ExtrinsicSignature](),
		Function:  call,
	}
}

// SigningPayload returns the bytes signed by the sender of an extrinsic.
func SigningPayload(nonce uint64, call Call) ([]byte, error) {
	return scale.Marshal(struct {
		Nonce uint64
		Call  Call
	}{nonce, call})
}

// NewSignedExtrinsic signs the call with the given key and nonce.
func NewSignedExtrinsic(key ed25519.PrivateKey, nonce uint64, call Call) (UncheckedExtrinsic, error) {
	payload, err := SigningPayload(nonce, call)
	if err != nil {
		return UncheckedExtrinsic{}, err
	}

	var sig ExtrinsicSignature
	copy(sig.Signer[:], key.Public().(ed25519.PublicKey))
	copy(sig.Signature[:], ed25519.Sign(key, payload))
	sig.Nonce = nonce

	return UncheckedExtrinsic{
		Signature: scale.Some(sig),
		Function:  call,
	}, nil
}

// Encode implements the encodeable interface of the codec.
func (ux UncheckedExtrinsic) Encode(e scale.Encoder) error {
	err := ux.Signature.Encode(e)
	if err != nil {
		return err
	}
	return e.Encode(ux.Function)
}

// Decode implements the decodeable interface of the codec.
func (ux *UncheckedExtrinsic) Decode(d scale.Decoder) error {
	err := ux.Signature.Decode(d)
	if err != nil {
		return err
	}
	return d.Decode(&ux.Function)
}

// IsSigned returns true if the extrinsic carries a signature.
func (ux UncheckedExtrinsic) IsSigned() bool {
	return ux.Signature.Some
}

// Verify checks the signature of a signed extrinsic.
func (ux UncheckedExtrinsic) Verify() error {
	sig, ok := ux.Signature.Unwrap()
	if !ok {
		return nil
	}
	payload, err := SigningPayload(sig.Nonce, ux.Function)
	if err != nil {
		return err
	}
	if !ed25519.Verify(sig.Signer[:], payload, sig.Signature[:]) {
		return fmt.Errorf("%w: signer %s", ErrBadSignature, sig.Signer)
	}
	return nil
}

// Extrinsic returns the SCALE encoding of the extrinsic.
func (ux UncheckedExtrinsic) Extrinsic() (Extrinsic, error) {
	enc, err := scale.Marshal(ux)
	if err != nil {
		return nil, err
	}
	return Extrinsic(enc), nil
}

// DecodeExtrinsic decodes an opaque extrinsic.
func DecodeExtrinsic(ext Extrinsic) (ux UncheckedExtrinsic, err error) {
	err = scale.Unmarshal(ext, &ux)
	return ux, err
}
