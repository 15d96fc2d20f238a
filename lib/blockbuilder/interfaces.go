// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package blockbuilder

import (
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
)

// BlockState is the block state needed to pick the parent of a new block.
type BlockState interface {
	BestBlockHeader() (*types.Header, error)
}

// Importer stores a built block with the changes of its post state.
type Importer interface {
	ImportBlock(block *types.Block, changes []storage.Change) error
}

// DigestHandler tracks the consensus digests of imported and finalised blocks.
type DigestHandler interface {
	HandleDigests(header *types.Header) error
	HandleFinalised(header *types.Header) error
}
