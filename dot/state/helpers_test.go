// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"testing"

	"github.com/ChainSafe/rtapi/dot/digest"
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/lib/runtimeapi"
	"github.com/stretchr/testify/require"
)

var (
	_ digest.GrandpaState     = (*GrandpaState)(nil)
	_ runtimeapi.BlockState   = (*BlockState)(nil)
	_ runtimeapi.StorageState = (*StorageState)(nil)
)

var genesisEntries = map[string][]byte{
	"a": {1},
	"b": {2},
}

// newTestService returns an initialised service over an in memory database.
func newTestService(t *testing.T) (*Service, *types.Header) {
	t.Helper()
	service, err := NewService(Config{Database: MemoryDatabase, LogLevel: log.Critical})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = service.Stop()
	})

	root, err := storage.StateRoot(genesisEntries)
	require.NoError(t, err)
	genesis := types.NewHeader(common.Hash{}, root, common.Hash{}, 0, types.NewDigest())
	err = service.Initialise(genesis, genesisEntries, []types.GrandpaAuthoritiesRaw{{Key: [32]byte{1}, ID: 1}})
	require.NoError(t, err)
	return service, genesis
}

// newTestBlock returns a child block of parent committing to the changes.
func newTestBlock(t *testing.T, s *Service, parent *types.Header, changes []storage.Change,
	digestItems ...types.DigestItem) *types.Block {
	t.Helper()
	parentState, err := s.Storage.stateAt(parent.Hash())
	require.NoError(t, err)
	entries, err := parentState.Apply(changes).Entries()
	require.NoError(t, err)
	root, err := storage.StateRoot(entries)
	require.NoError(t, err)

	header := types.NewHeader(parent.Hash(), root, common.Hash{}, parent.Number+1, types.NewDigest(digestItems...))
	block := types.NewBlock(*header, types.Body{})
	return &block
}
