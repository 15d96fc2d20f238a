// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/pkg/scale"
)

var (
	// ErrUnknownConsensusDigest is returned when decoding a consensus digest with an unknown index.
	ErrUnknownConsensusDigest = errors.New("unknown consensus digest index")
	// ErrUnsupportedConsensusValue is returned when setting a consensus digest to a value of the wrong type.
	ErrUnsupportedConsensusValue = errors.New("unsupported consensus digest value")
)

// GrandpaConsensusDigestValues is the set of types a GrandpaConsensusDigest can hold.
type GrandpaConsensusDigestValues interface {
	GrandpaScheduledChange | GrandpaForcedChange | GrandpaOnDisabled | GrandpaPause | GrandpaResume
}

// GrandpaConsensusDigest is the payload of a consensus digest emitted with
// the GrandpaEngineID.
type GrandpaConsensusDigest struct {
	inner any
}

// NewGrandpaConsensusDigest returns a grandpa consensus digest holding value.
func NewGrandpaConsensusDigest[Value GrandpaConsensusDigestValues](value Value) GrandpaConsensusDigest {
	return GrandpaConsensusDigest{inner: value}
}

// SetValue sets the value of the grandpa consensus digest.
func (g *GrandpaConsensusDigest) SetValue(value any) (err error) {
	switch value.(type) {
	case GrandpaScheduledChange, GrandpaForcedChange, GrandpaOnDisabled, GrandpaPause, GrandpaResume:
		g.inner = value
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedConsensusValue, value)
	}
}

// IndexValue returns the enum index and the value held.
func (g GrandpaConsensusDigest) IndexValue() (index byte, value any, err error) {
	switch g.inner.(type) {
	case GrandpaScheduledChange:
		return 1, g.inner, nil
	case GrandpaForcedChange:
		return 2, g.inner, nil
	case GrandpaOnDisabled:
		return 3, g.inner, nil
	case GrandpaPause:
		return 4, g.inner, nil
	case GrandpaResume:
		return 5, g.inner, nil
	}
	return 0, nil, fmt.Errorf("%w: %T", ErrUnsupportedConsensusValue, g.inner)
}

// Value returns the value held.
func (g GrandpaConsensusDigest) Value() any {
	return g.inner
}

// Encode implements the encodeable interface of the codec.
func (g GrandpaConsensusDigest) Encode(e scale.Encoder) error {
	index, value, err := g.IndexValue()
	if err != nil {
		return err
	}
	err = e.PushByte(index)
	if err != nil {
		return err
	}
	return e.Encode(value)
}

// Decode implements the decodeable interface of the codec.
func (g *GrandpaConsensusDigest) Decode(d scale.Decoder) error {
	index, err := d.ReadOneByte()
	if err != nil {
		return err
	}

	switch index {
	case 1:
		var v GrandpaScheduledChange
		err = d.Decode(&v)
		g.inner = v
	case 2:
		var v GrandpaForcedChange
		err = d.Decode(&v)
		g.inner = v
	case 3:
		var v GrandpaOnDisabled
		err = d.Decode(&v)
		g.inner = v
	case 4:
		var v GrandpaPause
		err = d.Decode(&v)
		g.inner = v
	case 5:
		var v GrandpaResume
		err = d.Decode(&v)
		g.inner = v
	default:
		return fmt.Errorf("%w: %d", ErrUnknownConsensusDigest, index)
	}
	return err
}

// GrandpaScheduledChange represents a GRANDPA scheduled authority change
type GrandpaScheduledChange struct {
	Auths []GrandpaAuthoritiesRaw
	Delay uint32
}

// GrandpaForcedChange represents a GRANDPA forced authority change
type GrandpaForcedChange struct {
	// BestFinalizedBlock is specified by the governance mechanism, defines
	// the starting block at which Delay is applied.
	BestFinalizedBlock uint32
	Auths              []GrandpaAuthoritiesRaw
	Delay              uint32
}

// Decode reads the authority list item by item.
func (c *GrandpaScheduledChange) Decode(d scale.Decoder) (err error) {
	c.Auths, err = scale.DecodeSlice[GrandpaAuthoritiesRaw](d)
	if err != nil {
		return err
	}
	return d.Decode(&c.Delay)
}

// Decode reads the authority list item by item.
func (c *GrandpaForcedChange) Decode(d scale.Decoder) (err error) {
	err = d.Decode(&c.BestFinalizedBlock)
	if err != nil {
		return err
	}
	c.Auths, err = scale.DecodeSlice[GrandpaAuthoritiesRaw](d)
	if err != nil {
		return err
	}
	return d.Decode(&c.Delay)
}

// GrandpaOnDisabled represents a GRANDPA authority being disabled
type GrandpaOnDisabled struct {
	ID uint64
}

// GrandpaPause represents an authority set pause
type GrandpaPause struct {
	Delay uint32
}

// GrandpaResume represents an authority set resume
type GrandpaResume struct {
	Delay uint32
}

// NewGrandpaScheduledChangeDigest wraps a scheduled change into a consensus digest item.
func NewGrandpaScheduledChangeDigest(change GrandpaScheduledChange) (DigestItem, error) {
	data, err := scale.Marshal(NewGrandpaConsensusDigest(change))
	if err != nil {
		return DigestItem{}, err
	}
	return NewDigestItem(ConsensusDigest{
		ConsensusEngineID: GrandpaEngineID,
		Data:              data,
	}), nil
}
