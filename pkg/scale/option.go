// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package scale

// Option is the SCALE Option type: a presence byte followed by the value
// when present.
type Option[T any] struct {
	Some  bool
	Value T
}

// Some returns a present option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{Some: true, Value: v}
}

// None returns an absent option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Unwrap returns the value and whether it is present.
func (o Option[T]) Unwrap() (T, bool) {
	return o.Value, o.Some
}

// Encode implements the encodeable interface of the codec.
func (o Option[T]) Encode(e Encoder) error {
	return e.EncodeOption(o.Some, o.Value)
}

// Decode implements the decodeable interface of the codec.
func (o *Option[T]) Decode(d Decoder) error {
	var zero T
	o.Value = zero
	return d.DecodeOption(&o.Some, &o.Value)
}
