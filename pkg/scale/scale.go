// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package scale wraps the SCALE codec used on both sides of the runtime call
// boundary. Custom types implement Encode with a value receiver and Decode
// with a pointer receiver so nested fields are picked up by the reflective
// codec.
package scale

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	gsrpcscale "github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// Encoder writes SCALE encoded values.
type Encoder = gsrpcscale.Encoder

// Decoder reads SCALE encoded values.
type Decoder = gsrpcscale.Decoder

var (
	// ErrTrailingBytes is returned by Unmarshal when the input holds more
	// bytes than the destination type consumes.
	ErrTrailingBytes = errors.New("trailing bytes after decoding")
	// ErrCompactOverflow is returned when a compact integer does not fit
	// into 64 bits.
	ErrCompactOverflow = errors.New("compact integer overflows uint64")
	// ErrLengthTooLarge is returned when a length prefix exceeds what the
	// protocol allows.
	ErrLengthTooLarge = errors.New("length prefix too large")
	// ErrMalformedInput is returned by Unmarshal when decoding the input
	// panicked.
	ErrMalformedInput = errors.New("malformed input")
)

// readChunk bounds the memory allocated ahead of reading a length prefixed
// value, since the prefix is read from untrusted input.
const readChunk = 1 << 16

// maxPreallocatedItems bounds the capacity reserved ahead of decoding a
// length prefixed sequence.
const maxPreallocatedItems = 64

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return gsrpcscale.NewEncoder(w)
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return gsrpcscale.NewDecoder(r)
}

// Marshal SCALE encodes v.
func Marshal(v any) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	err := NewEncoder(buf).Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// MustMarshal is Marshal that panics on error. It is only meant for values
// whose encoding cannot fail, such as fixed size arrays and integers.
func MustMarshal(v any) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Unmarshal decodes data into dst, which must be a pointer. The whole input
// must be consumed.
func Unmarshal(data []byte, dst any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: decoding %T: %v", ErrMalformedInput, dst, r)
		}
	}()

	r := bytes.NewReader(data)
	err = NewDecoder(r).Decode(dst)
	if err != nil {
		return fmt.Errorf("decoding %T: %w", dst, err)
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d byte(s) left decoding %T", ErrTrailingBytes, r.Len(), dst)
	}
	return nil
}

// EncodeCompact writes n as a compact unsigned integer.
func EncodeCompact(e Encoder, n uint64) error {
	return e.EncodeUintCompact(*new(big.Int).SetUint64(n))
}

// DecodeCompact reads a compact unsigned integer that fits into 64 bits.
func DecodeCompact(d Decoder) (uint64, error) {
	n, err := d.DecodeUintCompact()
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrCompactOverflow, n)
	}
	return n.Uint64(), nil
}

// EncodeBytes writes b with its compact length prefix.
func EncodeBytes(e Encoder, b []byte) error {
	err := EncodeCompact(e, uint64(len(b)))
	if err != nil {
		return err
	}
	return e.Write(b)
}

// DecodeBytes reads a compact length prefixed byte slice. The input is read
// in bounded chunks, so a prefix larger than the input fails with an error
// once the input runs out.
func DecodeBytes(d Decoder) ([]byte, error) {
	length, err := DecodeCompact(d)
	if err != nil {
		return nil, err
	}
	if length > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrLengthTooLarge, length)
	}

	b := make([]byte, 0, min(length, readChunk))
	chunk := make([]byte, min(length, readChunk))
	for remaining := length; remaining > 0; {
		n := min(remaining, uint64(len(chunk)))
		err = d.Read(chunk[:n])
		if err != nil {
			return nil, fmt.Errorf("reading %d of %d bytes: %w", n, length, err)
		}
		b = append(b, chunk[:n]...)
		remaining -= n
	}
	return b, nil
}

// DecodeSlice reads a compact length prefixed sequence of T. The slice grows
// as items are read, so a length prefix larger than the input fails once the
// input runs out. An empty sequence decodes to nil.
func DecodeSlice[T any](d Decoder) ([]T, error) {
	length, err := DecodeCompact(d)
	if err != nil {
		return nil, err
	}
	if length > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d items", ErrLengthTooLarge, length)
	}
	if length == 0 {
		return nil, nil
	}

	items := make([]T, 0, min(length, maxPreallocatedItems))
	for i := uint64(0); i < length; i++ {
		var item T
		err = d.Decode(&item)
		if err != nil {
			return nil, fmt.Errorf("decoding item %d of %d: %w", i, length, err)
		}
		items = append(items, item)
	}
	return items, nil
}
