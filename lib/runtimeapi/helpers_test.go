// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtimeapi

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"github.com/stretchr/testify/require"
)

var errUnknownBlock = errors.New("unknown block")

// testChain is an in memory chain of blocks and their post states.
type testChain struct {
	mtx       sync.RWMutex
	headers   map[common.Hash]*types.Header
	canonical map[uint64]common.Hash
	states    map[common.Hash]*storage.MemoryBackend
	genesis   common.Hash
}

func newTestChain(t *testing.T, build *native.Runtime) *testChain {
	t.Helper()
	entries, err := build.BuildStorage(native.GenesisConfig{
		Balances: []native.GenesisAccount{
			{Account: alice.id, Balance: 100},
			{Account: bob.id, Balance: 5},
		},
		Authorities:        []types.AccountID{alice.id},
		GrandpaAuthorities: []types.GrandpaAuthoritiesRaw{{Key: alice.id, ID: 1}},
		SudoKey:            &alice.id,
	})
	require.NoError(t, err)
	root, err := storage.StateRoot(entries)
	require.NoError(t, err)

	header := types.NewHeader(common.Hash{}, root, common.Hash{}, 0, types.NewDigest())
	hash := header.Hash()
	return &testChain{
		headers:   map[common.Hash]*types.Header{hash: header},
		canonical: map[uint64]common.Hash{0: hash},
		states:    map[common.Hash]*storage.MemoryBackend{hash: storage.NewMemoryBackend(entries)},
		genesis:   hash,
	}
}

func (c *testChain) resolve(id types.BlockID) (common.Hash, error) {
	if hash, ok := id.Hash(); ok {
		return hash, nil
	}
	number, _ := id.Number()
	hash, ok := c.canonical[number]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", errUnknownBlock, id)
	}
	return hash, nil
}

func (c *testChain) GetHeader(id types.BlockID) (*types.Header, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	hash, err := c.resolve(id)
	if err != nil {
		return nil, err
	}
	header, ok := c.headers[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownBlock, id)
	}
	return header.DeepCopy(), nil
}

func (c *testChain) StateAt(id types.BlockID) (storage.Backend, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	hash, err := c.resolve(id)
	if err != nil {
		return nil, err
	}
	state, ok := c.states[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownBlock, id)
	}
	return state, nil
}

// importBlock stores the header with the changes applied to its parent state.
func (c *testChain) importBlock(t *testing.T, header *types.Header, changes []storage.Change) common.Hash {
	t.Helper()
	c.mtx.Lock()
	defer c.mtx.Unlock()
	parent, ok := c.states[header.ParentHash]
	require.True(t, ok)
	hash := header.Hash()
	c.headers[hash] = header
	c.canonical[header.Number] = hash
	c.states[hash] = parent.Apply(changes)
	return hash
}

func (c *testChain) genesisID() types.BlockID {
	return types.NewBlockIDFromHash(c.genesis)
}

// recordingExecutor records the functions called through it.
type recordingExecutor struct {
	runtime.Executor
	mtx   sync.Mutex
	calls []string
}

func (r *recordingExecutor) Call(ctx context.Context, s runtime.Storage, function string, args []byte) (
	[]byte, error) {
	r.mtx.Lock()
	r.calls = append(r.calls, function)
	r.mtx.Unlock()
	return r.Executor.Call(ctx, s, function, args)
}

func (r *recordingExecutor) called() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]string(nil), r.calls...)
}

type testAccount struct {
	key ed25519.PrivateKey
	id  types.AccountID
}

func newTestAccount(seed byte) testAccount {
	key := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	return testAccount{key: key, id: types.NewAccountID(key.Public().(ed25519.PublicKey))}
}

var (
	alice = newTestAccount(1)
	bob   = newTestAccount(2)
)

func newTestClient(t *testing.T, build *native.Runtime) (*Client, *testChain, *recordingExecutor) {
	t.Helper()
	chain := newTestChain(t, build)
	executor := &recordingExecutor{Executor: native.NewExecutor(build)}
	client, err := NewClient(executor, chain, chain)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, chain, executor
}

func transfer(t *testing.T, from testAccount, nonce uint64, to testAccount, value uint64) types.Extrinsic {
	t.Helper()
	ux, err := types.NewSignedExtrinsic(from.key, nonce, native.Transfer(to.id, value))
	require.NoError(t, err)
	ext, err := ux.Extrinsic()
	require.NoError(t, err)
	return ext
}

func timestampData(t *testing.T, now uint64) types.InherentData {
	t.Helper()
	data := types.NewInherentData()
	require.NoError(t, data.Put(types.Timstap0, now))
	return *data
}

// buildBlock builds a block on top of at with the timestamp inherent and
// the extrinsics, through the handle.
func buildBlock(ctx context.Context, t *testing.T, api *API, at types.BlockID, now uint64,
	exts ...types.Extrinsic) (*types.Header, error) {
	t.Helper()
	parent, err := api.client.blockState.GetHeader(at)
	require.NoError(t, err)

	err = api.InitialiseBlock(ctx, at, types.NewHeader(parent.Hash(), common.Hash{}, common.Hash{},
		parent.Number+1, types.NewDigest()))
	if err != nil {
		return nil, err
	}
	inherents, err := api.InherentExtrinsics(ctx, at, timestampData(t, now))
	if err != nil {
		return nil, err
	}
	for _, ext := range append(inherents, exts...) {
		result, err := api.ApplyExtrinsic(ctx, at, ext)
		if err != nil {
			return nil, err
		}
		if !result.IsSuccess() {
			return nil, fmt.Errorf("applying %s: %s", ext, result)
		}
	}
	return api.FinaliseBlock(ctx, at)
}

// valueIn returns the decoded value of key in the changes.
func valueIn[T any](t *testing.T, changes []storage.Change, key []byte) (value T, ok bool) {
	t.Helper()
	for _, change := range changes {
		if bytes.Equal(change.Key, key) && !change.Deleted {
			require.NoError(t, scale.Unmarshal(change.Value, &value))
			return value, true
		}
	}
	return value, false
}
