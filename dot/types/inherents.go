// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ChainSafe/rtapi/pkg/scale"
)

// InherentIdentifier is the 8 byte key of one kind of inherent data.
type InherentIdentifier [8]byte

func (id InherentIdentifier) String() string {
	return string(id[:])
}

var (
	// Timstap0 is the inherent key of the block timestamp.
	Timstap0 = InherentIdentifier{'t', 'i', 'm', 's', 't', 'a', 'p', '0'}
	// Offlinen is the inherent key of the authorities reported offline.
	Offlinen = InherentIdentifier{'o', 'f', 'f', 'l', 'i', 'n', 'e', 'n'}
)

// InherentData contains a mapping of inherent keys to values.
// Values are SCALE encoded.
type InherentData struct {
	data map[InherentIdentifier][]byte
}

// NewInherentData returns empty inherent data
func NewInherentData() *InherentData {
	return &InherentData{
		data: make(map[InherentIdentifier][]byte),
	}
}

func (d *InherentData) String() string {
	var sb strings.Builder
	for _, k := range d.keys() {
		fmt.Fprintf(&sb, "key=%s\tvalue=0x%x\n", k, d.data[k])
	}
	return sb.String()
}

// Put SCALE encodes value and stores it under key.
func (d *InherentData) Put(key InherentIdentifier, value any) error {
	enc, err := scale.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding inherent %s: %w", key, err)
	}
	d.data[key] = enc
	return nil
}

// Get decodes the value stored under key into dst. It returns false if
// there is no value for the key.
func (d *InherentData) Get(key InherentIdentifier, dst any) (ok bool, err error) {
	enc, ok := d.data[key]
	if !ok {
		return false, nil
	}
	err = scale.Unmarshal(enc, dst)
	if err != nil {
		return true, fmt.Errorf("decoding inherent %s: %w", key, err)
	}
	return true, nil
}

// Len returns the number of inherent kinds in the data.
func (d *InherentData) Len() int {
	return len(d.data)
}

func (d *InherentData) keys() []InherentIdentifier {
	keys := make([]InherentIdentifier, 0, len(d.data))
	for k := range d.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// Encode implements the encodeable interface of the codec. Keys are
// written in ascending order so that the encoding is deterministic.
func (d InherentData) Encode(e scale.Encoder) error {
	err := scale.EncodeCompact(e, uint64(len(d.data)))
	if err != nil {
		return err
	}
	for _, k := range d.keys() {
		err = e.Write(k[:])
		if err != nil {
			return err
		}
		err = scale.EncodeBytes(e, d.data[k])
		if err != nil {
			return err
		}
	}
	return nil
}

// Decode implements the decodeable interface of the codec.
func (d *InherentData) Decode(dec scale.Decoder) error {
	length, err := scale.DecodeCompact(dec)
	if err != nil {
		return err
	}
	d.data = make(map[InherentIdentifier][]byte, min(length, 16))
	for i := uint64(0); i < length; i++ {
		var key InherentIdentifier
		err = dec.Read(key[:])
		if err != nil {
			return err
		}
		value, err := scale.DecodeBytes(dec)
		if err != nil {
			return err
		}
		d.data[key] = value
	}
	return nil
}
