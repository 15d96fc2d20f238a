// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtimeapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errTest = errors.New("test error")

func count(calls []string, function string) (n int) {
	for _, call := range calls {
		if call == function {
			n++
		}
	}
	return n
}

func TestAPI_BuildBlock(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		version    runtime.Version
		initialise string
		finalise   string
	}{
		"legacy": {
			version:    native.LegacyVersion(),
			initialise: runtime.CoreInitialiseBlock,
			finalise:   runtime.BlockBuilderFinaliseBlock,
		},
		"current": {
			version:    native.CurrentVersion(),
			initialise: runtime.CoreInitializeBlock,
			finalise:   runtime.BlockBuilderFinalizeBlock,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			client, chain, executor := newTestClient(t, native.New(testCase.version))
			api := client.RuntimeAPI()
			ctx := context.Background()

			header, err := buildBlock(ctx, t, api, chain.genesisID(), 1000, transfer(t, alice, 0, bob, 10))
			require.NoError(t, err)
			assert.Equal(t, uint64(1), header.Number)
			assert.Equal(t, chain.genesis, header.ParentHash)

			called := executor.called()
			assert.Equal(t, 1, count(called, testCase.initialise))
			assert.Equal(t, 1, count(called, testCase.finalise))

			changes := api.Changes()
			balance, ok := valueIn[uint64](t, changes, native.FreeBalanceKey(alice.id))
			require.True(t, ok)
			assert.Equal(t, uint64(90), balance)
			balance, ok = valueIn[uint64](t, changes, native.FreeBalanceKey(bob.id))
			require.True(t, ok)
			assert.Equal(t, uint64(15), balance)

			// the changes make up the state the header commits to
			genesisState, err := chain.StateAt(chain.genesisID())
			require.NoError(t, err)
			entries, err := genesisState.(*storage.MemoryBackend).Apply(changes).Entries()
			require.NoError(t, err)
			root, err := storage.StateRoot(entries)
			require.NoError(t, err)
			assert.Equal(t, header.StateRoot, root)
		})
	}
}

func TestAPI_ExecuteBlock(t *testing.T) {
	t.Parallel()

	client, chain, _ := newTestClient(t, native.New(native.CurrentVersion()))
	ctx := context.Background()
	at := chain.genesisID()

	builder := client.RuntimeAPI()
	ext := transfer(t, alice, 0, bob, 10)
	header, err := buildBlock(ctx, t, builder, at, 1000, ext)
	require.NoError(t, err)
	inherents, err := builder.InherentExtrinsics(ctx, at, timestampData(t, 1000))
	require.NoError(t, err)
	body := append(inherents, ext)

	importer := client.RuntimeAPI()
	err = importer.ExecuteBlock(ctx, at, types.NewBlock(*header, body))
	require.NoError(t, err)

	genesisState, err := chain.StateAt(at)
	require.NoError(t, err)
	entries, err := genesisState.(*storage.MemoryBackend).Apply(importer.Changes()).Entries()
	require.NoError(t, err)
	root, err := storage.StateRoot(entries)
	require.NoError(t, err)
	assert.Equal(t, header.StateRoot, root)

	tampered := header.DeepCopy()
	tampered.StateRoot = common.Hash{1}
	rejecter := client.RuntimeAPI()
	err = rejecter.ExecuteBlock(ctx, at, types.NewBlock(*tampered, body))
	assert.ErrorIs(t, err, runtime.ErrInvalidBlock)
	assert.Empty(t, rejecter.Changes())
}

func TestAPI_ApplyExtrinsic_AutoInitialises(t *testing.T) {
	t.Parallel()

	client, chain, executor := newTestClient(t, native.New(native.CurrentVersion()))
	api := client.RuntimeAPI()
	ctx := context.Background()
	at := chain.genesisID()

	for nonce := uint64(0); nonce < 2; nonce++ {
		result, err := api.ApplyExtrinsic(ctx, at, transfer(t, alice, nonce, bob, 10))
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
	}

	called := executor.called()
	require.Equal(t, 1, count(called, runtime.CoreInitializeBlock))
	for i, call := range called {
		if call == runtime.BlockBuilderApplyExtrinsic {
			assert.Contains(t, called[:i], runtime.CoreInitializeBlock)
			break
		}
	}

	seed, err := api.RandomSeed(ctx, at)
	require.NoError(t, err)
	assert.False(t, seed.IsEmpty())
	assert.Equal(t, 1, count(executor.called(), runtime.CoreInitializeBlock))
}

func TestAPI_ApplyExtrinsic_Stale(t *testing.T) {
	t.Parallel()

	client, chain, _ := newTestClient(t, native.New(native.CurrentVersion()))
	api := client.RuntimeAPI()
	ctx := context.Background()

	header, err := buildBlock(ctx, t, api, chain.genesisID(), 1000, transfer(t, alice, 0, bob, 10))
	require.NoError(t, err)
	hash := chain.importBlock(t, header, api.Changes())
	api.ResetChanges()

	at := types.NewBlockIDFromHash(hash)
	err = api.InitialiseBlock(ctx, at, types.NewHeader(hash, common.Hash{}, common.Hash{}, 2, types.NewDigest()))
	require.NoError(t, err)
	before := api.Changes()

	result, err := api.ApplyExtrinsic(ctx, at, transfer(t, alice, 0, bob, 10))
	require.NoError(t, err)
	require.NotNil(t, result.Validity)
	assert.Equal(t, runtime.ApplyErrorStale, *result.Validity)
	assert.Equal(t, before, api.Changes())
}

func TestAPI_ApplyAfterFinalise(t *testing.T) {
	t.Parallel()

	client, chain, _ := newTestClient(t, native.New(native.CurrentVersion()))
	api := client.RuntimeAPI()
	ctx := context.Background()
	at := chain.genesisID()

	_, err := buildBlock(ctx, t, api, at, 1000)
	require.NoError(t, err)
	before := api.Changes()

	_, err = api.ApplyExtrinsic(ctx, at, transfer(t, alice, 0, bob, 10))
	assert.ErrorIs(t, err, runtime.ErrBlockNotInitialised)
	assert.False(t, runtime.IsFatal(err))
	var callErr *runtime.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, runtime.BlockBuilderApplyExtrinsic, callErr.Function)

	_, err = api.FinaliseBlock(ctx, at)
	assert.ErrorIs(t, err, runtime.ErrBlockNotInitialised)
	assert.Equal(t, before, api.Changes())
}

func TestAPI_DiscardOnError(t *testing.T) {
	t.Parallel()

	client, chain, _ := newTestClient(t, native.New(native.CurrentVersion()))
	api := client.RuntimeAPI()
	ctx := context.Background()
	at := chain.genesisID()
	header := types.NewHeader(chain.genesis, common.Hash{}, common.Hash{}, 1, types.NewDigest())

	require.NoError(t, api.InitialiseBlock(ctx, at, header))
	before := api.Changes()
	require.NotEmpty(t, before)

	err := api.InitialiseBlock(ctx, at, header)
	assert.ErrorIs(t, err, runtime.ErrBlockAlreadyInitialised)
	assert.Equal(t, before, api.Changes())

	result, err := api.ApplyExtrinsic(ctx, at, transfer(t, alice, 0, bob, 10))
	require.NoError(t, err)
	assert.True(t, result.IsSuccess())
}

func TestAPI_RunGrouped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		t.Parallel()

		client, chain, _ := newTestClient(t, native.New(native.CurrentVersion()))
		api := client.RuntimeAPI()

		err := api.RunGrouped(func(group *API) error {
			_, err := buildBlock(ctx, t, group, chain.genesisID(), 1000, transfer(t, alice, 0, bob, 10))
			if err != nil {
				return err
			}
			// nothing is committed before the group ends
			assert.Empty(t, api.Changes())
			return nil
		})
		require.NoError(t, err)

		balance, ok := valueIn[uint64](t, api.Changes(), native.FreeBalanceKey(alice.id))
		require.True(t, ok)
		assert.Equal(t, uint64(90), balance)
	})

	t.Run("discard", func(t *testing.T) {
		t.Parallel()

		client, chain, executor := newTestClient(t, native.New(native.CurrentVersion()))
		api := client.RuntimeAPI()
		at := chain.genesisID()

		err := api.RunGrouped(func(group *API) error {
			_, err := buildBlock(ctx, t, group, at, 1000, transfer(t, alice, 0, bob, 10))
			require.NoError(t, err)
			return errTest
		})
		assert.ErrorIs(t, err, errTest)
		assert.Empty(t, api.Changes())

		// the initialised block was discarded with the group
		result, err := api.ApplyExtrinsic(ctx, at, transfer(t, alice, 0, bob, 10))
		require.NoError(t, err)
		assert.True(t, result.IsSuccess())
		assert.Equal(t, 2, count(executor.called(), runtime.CoreInitializeBlock))
	})

	t.Run("failed_call", func(t *testing.T) {
		t.Parallel()

		client, chain, _ := newTestClient(t, native.New(native.CurrentVersion()))
		api := client.RuntimeAPI()
		at := chain.genesisID()
		header := types.NewHeader(chain.genesis, common.Hash{}, common.Hash{}, 1, types.NewDigest())

		err := api.RunGrouped(func(group *API) error {
			err := group.InitialiseBlock(ctx, at, header)
			require.NoError(t, err)
			err = group.InitialiseBlock(ctx, at, header)
			assert.ErrorIs(t, err, runtime.ErrBlockAlreadyInitialised)
			_, err = group.ApplyExtrinsic(ctx, at, transfer(t, alice, 0, bob, 10))
			return err
		})
		require.NoError(t, err)

		nonce, ok := valueIn[uint64](t, api.Changes(), native.AccountNonceKey(alice.id))
		require.True(t, ok)
		assert.Equal(t, uint64(1), nonce)
	})
}

// newMockedAPI returns an API over a single block whose executor is mocked.
func newMockedAPI(t *testing.T, ctrl *gomock.Controller) (*API, *MockExecutor, types.BlockID) {
	t.Helper()
	header := types.NewEmptyHeader()
	at := types.NewBlockIDFromHash(header.Hash())

	blockState := NewMockBlockState(ctrl)
	blockState.EXPECT().GetHeader(at).Return(header, nil).AnyTimes()
	storageState := NewMockStorageState(ctrl)
	storageState.EXPECT().StateAt(at).Return(storage.NewMemoryBackend(nil), nil).AnyTimes()
	executor := NewMockExecutor(ctrl)

	client, err := NewClient(executor, blockState, storageState)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client.RuntimeAPI(), executor, at
}

// writeAndReturn returns a mocked call writing key before returning.
func writeAndReturn(key string, out []byte, err error) func(context.Context, runtime.Storage, string, []byte) (
	[]byte, error) {
	return func(_ context.Context, s runtime.Storage, _ string, _ []byte) ([]byte, error) {
		putErr := s.Put([]byte(key), []byte{1})
		if putErr != nil {
			return nil, putErr
		}
		return out, err
	}
}

func keysOf(changes []storage.Change) (keys []string) {
	for _, change := range changes {
		keys = append(keys, string(change.Key))
	}
	return keys
}

func TestAPI_RunGrouped_Nested(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	testCases := map[string]struct {
		outer, inner error
		keys         []string
		errWrapped   error
	}{
		"both_succeed": {
			keys: []string{"a", "b", "c"},
		},
		"inner_fails": {
			inner: errTest,
			keys:  []string{"a", "c"},
		},
		"outer_fails": {
			outer:      errTest,
			errWrapped: errTest,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			api, executor, at := newMockedAPI(t, ctrl)
			for _, key := range []string{"a", "b", "c"} {
				executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_"+key, gomock.Any()).
					DoAndReturn(writeAndReturn(key, nil, nil))
			}

			err := api.RunGrouped(func(outer *API) error {
				require.NoError(t, outer.CallAt(ctx, at, "Test_a", nil, nil))
				err := outer.RunGrouped(func(inner *API) error {
					require.NoError(t, inner.CallAt(ctx, at, "Test_b", nil, nil))
					return testCase.inner
				})
				assert.ErrorIs(t, err, testCase.inner)
				assert.Empty(t, api.Changes())
				require.NoError(t, outer.CallAt(ctx, at, "Test_c", nil, nil))
				return testCase.outer
			})
			assert.ErrorIs(t, err, testCase.errWrapped)
			assert.Equal(t, testCase.keys, keysOf(api.Changes()))
		})
	}
}

func TestAPI_CallAt_FailedCallLeavesNoChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	api, executor, at := newMockedAPI(t, ctrl)

	executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_ok", gomock.Any()).
		DoAndReturn(writeAndReturn("ok", nil, nil)).Times(2)
	executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_fail", gomock.Any()).
		DoAndReturn(writeAndReturn("fail", nil, runtime.NewCallError("Test_fail", errTest))).Times(2)

	// unary calls
	require.NoError(t, api.CallAt(ctx, at, "Test_ok", nil, nil))
	err := api.CallAt(ctx, at, "Test_fail", nil, nil)
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, []string{"ok"}, keysOf(api.Changes()))
	api.ResetChanges()

	// grouped calls, the failing one being ignored
	err = api.RunGrouped(func(group *API) error {
		err := group.CallAt(ctx, at, "Test_fail", nil, nil)
		assert.ErrorIs(t, err, errTest)
		return group.CallAt(ctx, at, "Test_ok", nil, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, keysOf(api.Changes()))
}

func TestAPI_RunGrouped_OpenTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// a call writing before and inside a nested transaction it leaves open
	leaveOpen := func(err error) func(context.Context, runtime.Storage, string, []byte) ([]byte, error) {
		return func(_ context.Context, s runtime.Storage, _ string, _ []byte) ([]byte, error) {
			require.NoError(t, s.Put([]byte("before"), []byte{1}))
			s.StartTransaction()
			require.NoError(t, s.Put([]byte("inside"), []byte{1}))
			return nil, err
		}
	}

	testCases := map[string]struct {
		callErr  error
		errIs    error
		groupErr error
		keys     []string
	}{
		"call_error": {
			callErr: runtime.NewCallError("Test_open", errTest),
			errIs:   errTest,
			keys:    []string{"ok"},
		},
		"trap": {
			callErr:  fmt.Errorf("%w: trapped", runtime.ErrInstanceUnavailable),
			errIs:    runtime.ErrInstanceUnavailable,
			groupErr: runtime.ErrInstanceUnavailable,
		},
		"success": {
			keys: []string{"before", "inside", "ok"},
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			api, executor, at := newMockedAPI(t, ctrl)
			executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_open", gomock.Any()).
				DoAndReturn(leaveOpen(testCase.callErr))
			executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_ok", gomock.Any()).
				DoAndReturn(writeAndReturn("ok", nil, nil))

			// the group function ignores the error of the first call
			err := api.RunGrouped(func(group *API) error {
				err := group.CallAt(ctx, at, "Test_open", nil, nil)
				if testCase.errIs != nil {
					assert.ErrorIs(t, err, testCase.errIs)
				} else {
					assert.NoError(t, err)
				}
				return group.CallAt(ctx, at, "Test_ok", nil, nil)
			})
			if testCase.groupErr != nil {
				assert.ErrorIs(t, err, testCase.groupErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, testCase.keys, keysOf(api.Changes()))
			assert.Equal(t, 0, api.state.overlay.TransactionDepth())
		})
	}
}

func TestAPI_RunGrouped_CallClosesGroupTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	api, executor, at := newMockedAPI(t, ctrl)

	executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_ok", gomock.Any()).
		DoAndReturn(writeAndReturn("ok", nil, nil))
	executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_unbalanced", gomock.Any()).
		DoAndReturn(func(_ context.Context, s runtime.Storage, _ string, _ []byte) ([]byte, error) {
			err := s.Put([]byte("unbalanced"), []byte{1})
			if err != nil {
				return nil, err
			}
			s.CommitTransaction()
			return nil, nil
		})

	var callErr error
	err := api.RunGrouped(func(group *API) error {
		require.NoError(t, group.CallAt(ctx, at, "Test_ok", nil, nil))
		callErr = group.CallAt(ctx, at, "Test_unbalanced", nil, nil)
		return nil
	})
	assert.ErrorIs(t, callErr, runtime.ErrInstanceUnavailable)
	assert.True(t, runtime.IsFatal(callErr))
	assert.ErrorIs(t, err, runtime.ErrInstanceUnavailable)
	assert.Empty(t, api.Changes())
	assert.Zero(t, api.state.overlay.TransactionDepth())
	assert.False(t, api.state.overlay.HasProspective())
}

func TestAPI_RunGrouped_UnsupportedAPIAborts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	api, executor, at := newMockedAPI(t, ctrl)

	version := runtime.Version{SpecName: "core-only", SpecVersion: 1}
	executor.EXPECT().Call(gomock.Any(), gomock.Any(), runtime.CoreVersion, gomock.Any()).
		Return(scale.MustMarshal(version), nil)
	executor.EXPECT().Call(gomock.Any(), gomock.Any(), "Test_ok", gomock.Any()).
		DoAndReturn(writeAndReturn("ok", nil, nil)).Times(2)

	err := api.RunGrouped(func(group *API) error {
		_, err := group.GrandpaAuthorities(ctx, at)
		assert.ErrorIs(t, err, runtime.ErrUnsupportedAPI)
		return group.CallAt(ctx, at, "Test_ok", nil, nil)
	})
	assert.ErrorIs(t, err, runtime.ErrUnsupportedAPI)
	assert.Empty(t, api.Changes())

	// the next logical transaction starts afresh
	require.NoError(t, api.CallAt(ctx, at, "Test_ok", nil, nil))
	assert.Equal(t, []string{"ok"}, keysOf(api.Changes()))
}

func TestAPI_CallResultDecode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	api, executor, at := newMockedAPI(t, ctrl)

	executor.EXPECT().Call(gomock.Any(), gomock.Any(), runtime.CoreVersion, gomock.Any()).
		Return(scale.MustMarshal(native.CurrentVersion()), nil)
	// an empty list followed by a stray byte
	executor.EXPECT().Call(gomock.Any(), gomock.Any(), runtime.CoreAuthorities, gomock.Any()).
		DoAndReturn(writeAndReturn("authorities", []byte{0, 1}, nil))

	authorities, err := api.Authorities(ctx, at)
	assert.ErrorIs(t, err, runtime.ErrCallResultDecode)
	assert.ErrorIs(t, err, scale.ErrTrailingBytes)
	assert.True(t, runtime.IsFatal(err))
	assert.Nil(t, authorities)
	assert.Empty(t, api.Changes())
}

func TestAPI_FinaliseBlock_MalformedDigest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	api, executor, at := newMockedAPI(t, ctrl)

	// a header whose single digest item has an unknown type and a length
	// prefix far beyond the output
	encoded := scale.MustMarshal(*types.NewEmptyHeader())
	require.Equal(t, byte(0), encoded[len(encoded)-1])
	malformed := append(encoded[:len(encoded)-1:len(encoded)-1],
		0x04, 0x07, 0x13, 0, 0, 0, 0, 0, 0, 0, 0x40)

	executor.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ runtime.Storage, function string, _ []byte) ([]byte, error) {
			switch function {
			case runtime.CoreVersion:
				return scale.MustMarshal(native.CurrentVersion()), nil
			case runtime.CoreInitialiseBlock, runtime.CoreInitializeBlock:
				return nil, nil
			}
			return malformed, nil
		}).AnyTimes()

	var header *types.Header
	var err error
	require.NotPanics(t, func() {
		header, err = api.FinaliseBlock(ctx, at)
	})
	assert.ErrorIs(t, err, runtime.ErrCallResultDecode)
	assert.ErrorIs(t, err, scale.ErrLengthTooLarge)
	assert.Nil(t, header)
	assert.Empty(t, api.Changes())
}

func TestAPI_UnsupportedAPI(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	api, executor, at := newMockedAPI(t, ctrl)

	version := runtime.Version{SpecName: "core-only", SpecVersion: 1}
	executor.EXPECT().Call(gomock.Any(), gomock.Any(), runtime.CoreVersion, gomock.Any()).
		Return(scale.MustMarshal(version), nil)

	_, err := api.GrandpaAuthorities(ctx, at)
	assert.ErrorIs(t, err, runtime.ErrUnsupportedAPI)
	assert.True(t, runtime.IsFatal(err))

	_, err = api.ApplyExtrinsic(ctx, at, types.Extrinsic{})
	assert.ErrorIs(t, err, runtime.ErrUnsupportedAPI)

	// Core is implemented even when not listed
	executor.EXPECT().Call(gomock.Any(), gomock.Any(), runtime.CoreAuthorities, gomock.Any()).
		Return(scale.MustMarshal([]types.AccountID{alice.id}), nil)
	authorities, err := api.Authorities(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, []types.AccountID{alice.id}, authorities)
}

func TestAPI_Queries(t *testing.T) {
	t.Parallel()

	client, chain, _ := newTestClient(t, native.New(native.CurrentVersion()))
	api := client.RuntimeAPI()
	ctx := context.Background()
	at := chain.genesisID()

	version, err := api.Version(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, native.CurrentVersion(), version)

	authorities, err := api.Authorities(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, []types.AccountID{alice.id}, authorities)

	grandpaAuthorities, err := api.GrandpaAuthorities(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, []types.GrandpaAuthoritiesRaw{{Key: alice.id, ID: 1}}, grandpaAuthorities)

	metadata, err := api.Metadata(ctx, at)
	require.NoError(t, err)
	assert.NotEmpty(t, metadata)

	change := types.GrandpaScheduledChange{
		Auths: []types.GrandpaAuthoritiesRaw{{Key: bob.id, ID: 2}},
		Delay: 2,
	}
	item, err := types.NewGrandpaScheduledChangeDigest(change)
	require.NoError(t, err)
	pending, err := api.GrandpaPendingChange(ctx, at, types.NewDigest(item))
	require.NoError(t, err)
	assert.Equal(t, &change, pending)

	pending, err = api.GrandpaPendingChange(ctx, at, types.NewDigest())
	require.NoError(t, err)
	assert.Nil(t, pending)

	inherents, err := api.InherentExtrinsics(ctx, at, timestampData(t, 1000))
	require.NoError(t, err)
	require.Len(t, inherents, 1)

	block := types.NewBlock(*types.NewEmptyHeader(), types.Body(inherents))
	result, err := api.CheckInherents(ctx, at, block, timestampData(t, 1000))
	require.NoError(t, err)
	assert.True(t, result.Okay)

	// queries do not change state
	assert.Empty(t, api.Changes())
}
