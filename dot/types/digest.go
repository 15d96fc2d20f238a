// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// ConsensusEngineID is a 4-character identifier of the consensus engine that produced the digest.
type ConsensusEngineID [4]byte

// NewConsensusEngineID casts a byte slice to ConsensusEngineID
// if the input is longer than 4 bytes, it takes the first 4 bytes
func NewConsensusEngineID(in []byte) (res ConsensusEngineID) {
	copy(res[:], in)
	return res
}

// ToBytes turns ConsensusEngineID to a byte slice
func (h ConsensusEngineID) ToBytes() []byte {
	b := [4]byte(h)
	return b[:]
}

func (h ConsensusEngineID) String() string {
	return string(h[:])
}

// BabeEngineID is the hard-coded babe ID
var BabeEngineID = ConsensusEngineID{'B', 'A', 'B', 'E'}

// GrandpaEngineID is the hard-coded grandpa ID
var GrandpaEngineID = ConsensusEngineID{'F', 'R', 'N', 'K'}

// AuraEngineID is the hard-coded aura ID
var AuraEngineID = ConsensusEngineID{'a', 'u', 'r', 'a'}

const (
	// OtherDigestType is the byte representation of OtherDigest
	OtherDigestType = byte(0)
	// AuthoritiesChangeDigestType is the byte representation of AuthoritiesChangeDigest
	AuthoritiesChangeDigestType = byte(1)
	// ChangesTrieRootDigestType is the byte representation of ChangesTrieRootDigest
	ChangesTrieRootDigestType = byte(2)
	// ConsensusDigestType is the byte representation of ConsensusDigest
	ConsensusDigestType = byte(4)
	// SealDigestType is the byte representation of SealDigest
	SealDigestType = byte(5)
	// PreRuntimeDigestType is the byte representation of PreRuntimeDigest
	PreRuntimeDigestType = byte(6)
)

// ErrUnsupportedDigestValue is returned when setting a digest item to a value
// which is not one of the digest item types.
var ErrUnsupportedDigestValue = errors.New("unsupported digest item value")

// DigestItemValues is the set of types a DigestItem can hold.
type DigestItemValues interface {
	OtherDigest | AuthoritiesChangeDigest | ChangesTrieRootDigest |
		ConsensusDigest | SealDigest | PreRuntimeDigest | OpaqueDigest
}

// DigestItem is one log item of a block digest. It holds one of the
// DigestItemValues types.
type DigestItem struct {
	inner any
}

// NewDigestItem returns a digest item holding the given value.
func NewDigestItem[Value DigestItemValues](value Value) DigestItem {
	return DigestItem{inner: value}
}

// SetValue sets the value held by the digest item.
func (d *DigestItem) SetValue(value any) error {
	switch value.(type) {
	case OtherDigest, AuthoritiesChangeDigest, ChangesTrieRootDigest,
		ConsensusDigest, SealDigest, PreRuntimeDigest, OpaqueDigest:
		d.inner = value
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedDigestValue, value)
	}
}

// Value returns the value held by the digest item.
func (d DigestItem) Value() any {
	return d.inner
}

// Type returns the type byte of the digest item.
func (d DigestItem) Type() byte {
	switch v := d.inner.(type) {
	case OtherDigest:
		return OtherDigestType
	case AuthoritiesChangeDigest:
		return AuthoritiesChangeDigestType
	case ChangesTrieRootDigest:
		return ChangesTrieRootDigestType
	case ConsensusDigest:
		return ConsensusDigestType
	case SealDigest:
		return SealDigestType
	case PreRuntimeDigest:
		return PreRuntimeDigestType
	case OpaqueDigest:
		return v.Type
	}
	panic(fmt.Sprintf("digest item value not set: %T", d.inner))
}

// EngineID returns the consensus engine id of engine tagged items.
func (d DigestItem) EngineID() (ConsensusEngineID, bool) {
	switch v := d.inner.(type) {
	case ConsensusDigest:
		return v.ConsensusEngineID, true
	case SealDigest:
		return v.ConsensusEngineID, true
	case PreRuntimeDigest:
		return v.ConsensusEngineID, true
	}
	return ConsensusEngineID{}, false
}

func (d DigestItem) String() string {
	switch v := d.inner.(type) {
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Encode implements the encodeable interface of the codec.
func (d DigestItem) Encode(e scale.Encoder) error {
	if d.inner == nil {
		return fmt.Errorf("%w: nil", ErrUnsupportedDigestValue)
	}

	err := e.PushByte(d.Type())
	if err != nil {
		return err
	}

	switch v := d.inner.(type) {
	case OtherDigest:
		return scale.EncodeBytes(e, v)
	case AuthoritiesChangeDigest:
		return e.Encode([][32]byte(v))
	case ChangesTrieRootDigest:
		return e.Write(v.Hash[:])
	case ConsensusDigest:
		return encodeEngineData(e, v.ConsensusEngineID, v.Data)
	case SealDigest:
		return encodeEngineData(e, v.ConsensusEngineID, v.Data)
	case PreRuntimeDigest:
		return encodeEngineData(e, v.ConsensusEngineID, v.Data)
	case OpaqueDigest:
		return scale.EncodeBytes(e, v.Data)
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedDigestValue, d.inner)
}

// Decode implements the decodeable interface of the codec.
// Items with an unknown type byte are kept as OpaqueDigest, their body
// being a length prefixed byte slice.
func (d *DigestItem) Decode(dec scale.Decoder) error {
	typ, err := dec.ReadOneByte()
	if err != nil {
		return err
	}

	switch typ {
	case OtherDigestType:
		data, err := scale.DecodeBytes(dec)
		if err != nil {
			return err
		}
		d.inner = OtherDigest(data)
	case AuthoritiesChangeDigestType:
		auths, err := scale.DecodeSlice[[32]byte](dec)
		if err != nil {
			return err
		}
		d.inner = AuthoritiesChangeDigest(auths)
	case ChangesTrieRootDigestType:
		var root ChangesTrieRootDigest
		err = dec.Read(root.Hash[:])
		if err != nil {
			return err
		}
		d.inner = root
	case ConsensusDigestType:
		id, data, err := decodeEngineData(dec)
		if err != nil {
			return err
		}
		d.inner = ConsensusDigest{ConsensusEngineID: id, Data: data}
	case SealDigestType:
		id, data, err := decodeEngineData(dec)
		if err != nil {
			return err
		}
		d.inner = SealDigest{ConsensusEngineID: id, Data: data}
	case PreRuntimeDigestType:
		id, data, err := decodeEngineData(dec)
		if err != nil {
			return err
		}
		d.inner = PreRuntimeDigest{ConsensusEngineID: id, Data: data}
	default:
		data, err := scale.DecodeBytes(dec)
		if err != nil {
			return fmt.Errorf("decoding opaque digest item of type %d: %w", typ, err)
		}
		d.inner = OpaqueDigest{Type: typ, Data: data}
	}
	return nil
}

func encodeEngineData(e scale.Encoder, id ConsensusEngineID, data []byte) error {
	err := e.Write(id[:])
	if err != nil {
		return err
	}
	return scale.EncodeBytes(e, data)
}

func decodeEngineData(d scale.Decoder) (id ConsensusEngineID, data []byte, err error) {
	err = d.Read(id[:])
	if err != nil {
		return id, nil, err
	}
	data, err = scale.DecodeBytes(d)
	return id, data, err
}

// OtherDigest is an opaque log item not used by consensus.
type OtherDigest []byte

func (d OtherDigest) String() string {
	return fmt.Sprintf("OtherDigest Data=0x%x", []byte(d))
}

// AuthoritiesChangeDigest is put into the digest by the consensus module when
// the set of consensus authorities changed during the block.
type AuthoritiesChangeDigest [][32]byte

func (d AuthoritiesChangeDigest) String() string {
	return fmt.Sprintf("AuthoritiesChangeDigest Authorities=%d", len(d))
}

// ChangesTrieRootDigest contains the root of the changes trie at a given block, if the runtime supports it.
type ChangesTrieRootDigest struct {
	Hash common.Hash
}

func (d ChangesTrieRootDigest) String() string {
	return fmt.Sprintf("ChangesTrieRootDigest Hash=%s", d.Hash)
}

// PreRuntimeDigest contains messages from the consensus engine to the runtime.
type PreRuntimeDigest struct {
	ConsensusEngineID ConsensusEngineID
	Data              []byte
}

func (d PreRuntimeDigest) String() string {
	return fmt.Sprintf("PreRuntimeDigest ConsensusEngineID=%s Data=0x%x", d.ConsensusEngineID, d.Data)
}

// ConsensusDigest contains messages from the runtime to the consensus engine.
type ConsensusDigest struct {
	ConsensusEngineID ConsensusEngineID
	Data              []byte
}

func (d ConsensusDigest) String() string {
	return fmt.Sprintf("ConsensusDigest ConsensusEngineID=%s Data=0x%x", d.ConsensusEngineID, d.Data)
}

// SealDigest contains the seal or signature. This is only used by native code.
type SealDigest struct {
	ConsensusEngineID ConsensusEngineID
	Data              []byte
}

func (d SealDigest) String() string {
	return fmt.Sprintf("SealDigest ConsensusEngineID=%s Data=0x%x", d.ConsensusEngineID, d.Data)
}

// OpaqueDigest is a log item whose type is not known to this node.
// It is kept as is so that the header encoding is preserved.
type OpaqueDigest struct {
	Type byte
	Data []byte
}

func (d OpaqueDigest) String() string {
	return fmt.Sprintf("OpaqueDigest Type=%d Data=0x%x", d.Type, d.Data)
}

// LogTag selects digest items by type and, for engine tagged items,
// by consensus engine id.
type LogTag struct {
	Type      byte
	Engine    ConsensusEngineID
	HasEngine bool
}

// NewTypeTag returns a tag matching all items of the given type.
func NewTypeTag(typ byte) LogTag {
	return LogTag{Type: typ}
}

// NewEngineTag returns a tag matching items of the given type emitted by the given engine.
func NewEngineTag(typ byte, engine ConsensusEngineID) LogTag {
	return LogTag{Type: typ, Engine: engine, HasEngine: true}
}

// Matches returns true if the item carries the tag.
func (t LogTag) Matches(item DigestItem) bool {
	if item.inner == nil || item.Type() != t.Type {
		return false
	}
	if !t.HasEngine {
		return true
	}
	engine, ok := item.EngineID()
	return ok && engine == t.Engine
}

func (t LogTag) String() string {
	if t.HasEngine {
		return fmt.Sprintf("%d/%s", t.Type, t.Engine)
	}
	return fmt.Sprintf("%d", t.Type)
}

// Digest represents the block digest. It consists of digest items.
type Digest []DigestItem

// NewDigest returns a new Digest from the given DigestItems
func NewDigest(items ...DigestItem) Digest {
	return append(Digest{}, items...)
}

// Add appends items to the digest, preserving their order.
func (d *Digest) Add(items ...DigestItem) {
	*d = append(*d, items...)
}

// Encode implements the encodeable interface of the codec.
func (d Digest) Encode(e scale.Encoder) error {
	err := scale.EncodeCompact(e, uint64(len(d)))
	if err != nil {
		return err
	}
	for i, item := range d {
		err = item.Encode(e)
		if err != nil {
			return fmt.Errorf("encoding digest item %d: %w", i, err)
		}
	}
	return nil
}

// Decode implements the decodeable interface of the codec.
func (d *Digest) Decode(dec scale.Decoder) error {
	length, err := scale.DecodeCompact(dec)
	if err != nil {
		return fmt.Errorf("could not decode length of digest items: %w", err)
	}

	items := make(Digest, 0, min(length, 64))
	for i := uint64(0); i < length; i++ {
		var item DigestItem
		err = item.Decode(dec)
		if err != nil {
			return fmt.Errorf("could not decode digest item %d: %w", i, err)
		}
		items = append(items, item)
	}
	*d = items
	return nil
}
