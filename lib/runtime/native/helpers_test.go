// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"github.com/stretchr/testify/require"
)

type testAccount struct {
	key ed25519.PrivateKey
	id  types.AccountID
}

func newTestAccount(seed byte) testAccount {
	key := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	return testAccount{
		key: key,
		id:  types.NewAccountID(key.Public().(ed25519.PublicKey)),
	}
}

var (
	alice = newTestAccount(1)
	bob   = newTestAccount(2)
	eve   = newTestAccount(3)
)

func newTestGenesis() GenesisConfig {
	return GenesisConfig{
		Balances: []GenesisAccount{
			{Account: alice.id, Balance: 100},
			{Account: bob.id, Balance: 5},
		},
		Authorities: []types.AccountID{alice.id, bob.id},
		GrandpaAuthorities: []types.GrandpaAuthoritiesRaw{
			{Key: alice.id, ID: 1},
		},
		SudoKey: &alice.id,
	}
}

// newTestState returns an overlay on the genesis state of the runtime.
func newTestState(t *testing.T, r *Runtime, cfg GenesisConfig) *storage.Overlay {
	t.Helper()
	entries, err := r.BuildStorage(cfg)
	require.NoError(t, err)
	return storage.NewOverlay(storage.NewMemoryBackend(entries))
}

// callRuntime calls a runtime function and decodes its result into R.
func callRuntime[R any](t *testing.T, r *Runtime, s runtime.Storage, function string, arg any) (R, error) {
	t.Helper()
	var args []byte
	if arg != nil {
		args = scale.MustMarshal(arg)
	}
	var result R
	out, err := r.Call(context.Background(), s, function, args)
	if err != nil {
		return result, err
	}
	require.NoError(t, scale.Unmarshal(out, &result))
	return result, nil
}

func signedExtrinsic(t *testing.T, from testAccount, nonce uint64, c types.Call) types.Extrinsic {
	t.Helper()
	ux, err := types.NewSignedExtrinsic(from.key, nonce, c)
	require.NoError(t, err)
	ext, err := ux.Extrinsic()
	require.NoError(t, err)
	return ext
}

func unsignedExtrinsic(t *testing.T, c types.Call) types.Extrinsic {
	t.Helper()
	ext, err := types.NewUnsignedExtrinsic(c).Extrinsic()
	require.NoError(t, err)
	return ext
}

func timestampData(t *testing.T, now uint64) types.InherentData {
	t.Helper()
	data := types.NewInherentData()
	require.NoError(t, data.Put(types.Timstap0, now))
	return *data
}

func initialise(t *testing.T, r *Runtime, s runtime.Storage, parent common.Hash, number uint64) {
	t.Helper()
	header := types.NewHeader(parent, common.Hash{}, common.Hash{}, number, types.NewDigest())
	function := runtime.CoreInitializeBlock
	if revision, _ := r.Version().APIRevision(runtime.CoreAPIID); revision < 2 {
		function = runtime.CoreInitialiseBlock
	}
	_, err := callRuntime[unit](t, r, s, function, *header)
	require.NoError(t, err)
}

func apply(t *testing.T, r *Runtime, s runtime.Storage, ext types.Extrinsic) runtime.ApplyResult {
	t.Helper()
	result, err := callRuntime[runtime.ApplyResult](t, r, s, runtime.BlockBuilderApplyExtrinsic, ext)
	require.NoError(t, err)
	return result
}

func finalise(t *testing.T, r *Runtime, s runtime.Storage) types.Header {
	t.Helper()
	function := runtime.BlockBuilderFinalizeBlock
	if revision, _ := r.Version().APIRevision(runtime.BlockBuilderAPIID); revision < 2 {
		function = runtime.BlockBuilderFinaliseBlock
	}
	header, err := callRuntime[types.Header](t, r, s, function, nil)
	require.NoError(t, err)
	return header
}

// buildBlock builds a block with the timestamp inherent followed by the
// given extrinsics, and returns it with the apply results of the extrinsics.
func buildBlock(t *testing.T, r *Runtime, s runtime.Storage, parent common.Hash, number, now uint64,
	exts ...types.Extrinsic) (types.Block, []runtime.ApplyResult) {
	t.Helper()
	initialise(t, r, s, parent, number)

	inherents, err := callRuntime[[]types.Extrinsic](t, r, s, runtime.BlockBuilderInherentExtrinsics, timestampData(t, now))
	require.NoError(t, err)

	body := types.Body{}
	var results []runtime.ApplyResult
	for _, ext := range append(inherents, exts...) {
		result := apply(t, r, s, ext)
		results = append(results, result)
		if result.Validity == nil {
			body = append(body, ext)
		}
	}
	return types.NewBlock(finalise(t, r, s), body), results[len(inherents):]
}

func storedValue[T any](t *testing.T, s runtime.Storage, key []byte) T {
	t.Helper()
	value, err := getOr(newEnv(context.Background(), s), key, *new(T))
	require.NoError(t, err)
	return value
}

func balanceOf(t *testing.T, s runtime.Storage, who testAccount) uint64 {
	t.Helper()
	return storedValue[uint64](t, s, FreeBalanceKey(who.id))
}

func nonceOf(t *testing.T, s runtime.Storage, who testAccount) uint64 {
	t.Helper()
	return storedValue[uint64](t, s, AccountNonceKey(who.id))
}
