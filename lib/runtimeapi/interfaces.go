// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtimeapi

import (
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
)

// BlockState is the interface for the block headers known to the host.
type BlockState interface {
	GetHeader(id types.BlockID) (*types.Header, error)
}

// StorageState is the interface for the committed state of blocks.
type StorageState interface {
	StateAt(id types.BlockID) (storage.Backend, error)
}
