// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package blockbuilder

import (
	"testing"
	"time"

	"github.com/ChainSafe/rtapi/dot/digest"
	"github.com/ChainSafe/rtapi/dot/state"
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/keyring"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/lib/runtimeapi"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	state   *state.Service
	client  *runtimeapi.Client
	pool    *Pool
	builder *Builder
	alice   *keyring.KeyPair
	bob     *keyring.KeyPair
}

// newTestNode returns a builder over an in memory chain where alice holds
// 100 and is the sudo key, and bob holds 5.
func newTestNode(t *testing.T) *testNode {
	t.Helper()
	kr, err := keyring.NewDevKeyring()
	require.NoError(t, err)
	alice, err := kr.Get("alice")
	require.NoError(t, err)
	bob, err := kr.Get("bob")
	require.NoError(t, err)

	build := native.New(native.CurrentVersion())
	sudo := alice.AccountID()
	entries, err := build.BuildStorage(native.GenesisConfig{
		Balances: []native.GenesisAccount{
			{Account: alice.AccountID(), Balance: 100},
			{Account: bob.AccountID(), Balance: 5},
		},
		Authorities:        []types.AccountID{alice.AccountID()},
		GrandpaAuthorities: []types.GrandpaAuthoritiesRaw{{Key: alice.AccountID(), ID: 1}},
		SudoKey:            &sudo,
	})
	require.NoError(t, err)
	root, err := storage.StateRoot(entries)
	require.NoError(t, err)

	service, err := state.NewService(state.Config{Database: state.MemoryDatabase, LogLevel: log.Critical})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = service.Stop()
	})
	genesis := types.NewHeader(common.Hash{}, root, common.Hash{}, 0, types.NewDigest())
	err = service.Initialise(genesis, entries, []types.GrandpaAuthoritiesRaw{{Key: alice.AccountID(), ID: 1}})
	require.NoError(t, err)

	client, err := runtimeapi.NewClient(native.NewExecutor(build), service.Block, service.Storage)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	pool := NewPool(client)
	builder := New(client, service.Block, service, digest.NewHandler(service.Grandpa), pool)
	now := time.UnixMilli(1_000)
	builder.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	return &testNode{
		state:   service,
		client:  client,
		pool:    pool,
		builder: builder,
		alice:   alice,
		bob:     bob,
	}
}

func (n *testNode) best(t *testing.T) types.BlockID {
	t.Helper()
	hash, err := n.state.Block.BestBlockHash()
	require.NoError(t, err)
	return types.NewBlockIDFromHash(hash)
}

func (n *testNode) balance(t *testing.T, who *keyring.KeyPair) uint64 {
	t.Helper()
	enc, err := n.state.Storage.GetStorage(n.best(t), native.FreeBalanceKey(who.AccountID()))
	require.NoError(t, err)
	var balance uint64
	if enc != nil {
		require.NoError(t, scale.Unmarshal(enc, &balance))
	}
	return balance
}

func sign(t *testing.T, from *keyring.KeyPair, nonce uint64, call types.Call) types.Extrinsic {
	t.Helper()
	ext, err := from.Sign(nonce, call)
	require.NoError(t, err)
	return ext
}
