// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package remote executes runtime calls in another process over gRPC. The
// runtime side reads and writes the state of the host through the call
// stream, so a call crosses the boundary exactly as it does in process.
//
// No protobuf code generation is involved: messages are SCALE encoded.
package remote

import (
	"fmt"

	"github.com/ChainSafe/rtapi/pkg/scale"
	"google.golang.org/grpc/encoding"
)

const codecName = "scale"

// Codec implements grpc/encoding.Codec with the SCALE codec.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := scale.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("scale marshal: %w", err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	err := scale.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("scale unmarshal: %w", err)
	}
	return nil
}

func (Codec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(Codec{})
}
