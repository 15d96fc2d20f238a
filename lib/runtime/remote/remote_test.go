// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package remote

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type executorFunc func(ctx context.Context, s runtime.Storage, function string, args []byte) ([]byte, error)

func (f executorFunc) Call(ctx context.Context, s runtime.Storage, function string, args []byte) ([]byte, error) {
	return f(ctx, s, function, args)
}

// newTestExecutor serves executor over an in memory connection and returns
// a remote executor calling it, along with the server.
func newTestExecutor(t *testing.T, executor runtime.Executor) (*Executor, *grpc.Server) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterRuntimeServer(srv, NewServer(executor))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	x, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = x.Close()
	})
	return x, srv
}

func newGenesisState(t *testing.T, build *native.Runtime) *storage.Overlay {
	t.Helper()
	entries, err := build.BuildStorage(native.GenesisConfig{})
	require.NoError(t, err)
	return storage.NewOverlay(storage.NewMemoryBackend(entries))
}

func TestExecutor_NativeRuntime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	build := native.New(native.CurrentVersion())
	x, _ := newTestExecutor(t, native.NewExecutor(build))
	s := newGenesisState(t, build)

	out, err := x.Call(ctx, s, runtime.CoreVersion, nil)
	require.NoError(t, err)
	var version runtime.Version
	require.NoError(t, scale.Unmarshal(out, &version))
	assert.Equal(t, native.CurrentVersion(), version)

	header := types.NewHeader(common.Hash{1}, common.Hash{}, common.Hash{}, 1, types.NewDigest())
	args := scale.MustMarshal(*header)
	_, err = x.Call(ctx, s, runtime.CoreInitializeBlock, args)
	require.NoError(t, err)
	assert.True(t, s.HasProspective())

	_, err = x.Call(ctx, s, runtime.CoreInitializeBlock, args)
	require.ErrorIs(t, err, runtime.ErrBlockAlreadyInitialised)
	assert.False(t, runtime.IsFatal(err))
	var callErr *runtime.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, runtime.CoreInitializeBlock, callErr.Function)
	assert.EqualError(t, err, "runtime call Core_initialize_block: block already initialised")

	_, err = x.Call(ctx, s, runtime.CoreInitialiseBlock, args)
	require.ErrorIs(t, err, runtime.ErrUnknownFunction)
	assert.True(t, runtime.IsFatal(err))
}

func TestExecutor_Storage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	x, _ := newTestExecutor(t, executorFunc(func(_ context.Context, s runtime.Storage, _ string, _ []byte) ([]byte, error) {
		value, err := s.Get([]byte("a"))
		if err != nil {
			return nil, err
		}
		err = s.Put([]byte("b"), value)
		if err != nil {
			return nil, err
		}

		s.StartTransaction()
		err = s.Delete([]byte("a"))
		if err != nil {
			return nil, err
		}
		s.RollbackTransaction()

		err = s.ClearPrefix([]byte("c"))
		if err != nil {
			return nil, err
		}

		missing, err := s.Get([]byte("missing"))
		if err != nil {
			return nil, err
		}
		if missing != nil {
			return nil, errors.New("missing key has a value")
		}

		next, err := s.NextKey([]byte("a"))
		if err != nil {
			return nil, err
		}
		root, err := s.Root()
		if err != nil {
			return nil, err
		}
		return append(next, root[:]...), nil
	}))

	s := storage.NewOverlay(storage.NewMemoryBackend(map[string][]byte{
		"a":  {1},
		"c1": {2},
		"c2": {3},
	}))
	out, err := x.Call(ctx, s, "anything", nil)
	require.NoError(t, err)

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": {1}, "b": {1}}, entries)

	root, err := s.Root()
	require.NoError(t, err)
	assert.Equal(t, append([]byte("b"), root[:]...), out)
}

func TestExecutor_Errors(t *testing.T) {
	t.Parallel()

	errStorage := errors.New("storage failure")

	testCases := map[string]struct {
		executor runtime.Executor
		storage  runtime.Storage
		errIs    error
		errMsg   string
		fatal    bool
	}{
		"usage error": {
			executor: executorFunc(func(context.Context, runtime.Storage, string, []byte) ([]byte, error) {
				return nil, runtime.NewCallError("f", errors.New("some reason"))
			}),
			errMsg: "runtime call f: some reason",
		},
		"bad arguments": {
			executor: executorFunc(func(context.Context, runtime.Storage, string, []byte) ([]byte, error) {
				return nil, runtime.NewCallError("f", runtime.ErrBadArguments)
			}),
			errIs:  runtime.ErrBadArguments,
			errMsg: "runtime call f: cannot decode call arguments",
		},
		"instance unavailable": {
			executor: executorFunc(func(context.Context, runtime.Storage, string, []byte) ([]byte, error) {
				return nil, errors.New("crashed")
			}),
			errIs:  runtime.ErrInstanceUnavailable,
			errMsg: "crashed",
			fatal:  true,
		},
		"storage error": {
			executor: executorFunc(func(_ context.Context, s runtime.Storage, _ string, _ []byte) ([]byte, error) {
				_, err := s.Root()
				if err != nil {
					return nil, runtime.NewCallError("f", err)
				}
				return nil, nil
			}),
			storage: failingStorage{err: errStorage},
			errMsg:  "runtime call f: storage failure",
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			x, _ := newTestExecutor(t, testCase.executor)
			s := testCase.storage
			if s == nil {
				s = storage.NewOverlay(nil)
			}
			_, err := x.Call(context.Background(), s, "f", nil)
			if testCase.errIs != nil {
				assert.ErrorIs(t, err, testCase.errIs)
			}
			assert.EqualError(t, err, testCase.errMsg)
			assert.Equal(t, testCase.fatal, runtime.IsFatal(err))
		})
	}
}

func TestExecutor_ServerGone(t *testing.T) {
	t.Parallel()

	build := native.New(native.CurrentVersion())
	x, srv := newTestExecutor(t, native.NewExecutor(build))
	srv.Stop()

	_, err := x.Call(context.Background(), newGenesisState(t, build), runtime.CoreVersion, nil)
	assert.ErrorIs(t, err, runtime.ErrInstanceUnavailable)
}

func TestServeStorage_Transactions(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		ops           []uint8
		expectedErrs  []string
		expectedDepth int
	}{
		"balanced": {
			ops:          []uint8{opStartTransaction, opStartTransaction, opCommitTransaction, opRollbackTransaction},
			expectedErrs: []string{"", "", "", ""},
		},
		"commit_without_start": {
			ops:          []uint8{opCommitTransaction},
			expectedErrs: []string{errNoTransaction.Error()},
		},
		"rollback_without_start": {
			ops:          []uint8{opRollbackTransaction},
			expectedErrs: []string{errNoTransaction.Error()},
		},
		"one_close_too_many": {
			ops:          []uint8{opStartTransaction, opCommitTransaction, opRollbackTransaction},
			expectedErrs: []string{"", "", errNoTransaction.Error()},
		},
		"left_open": {
			ops:           []uint8{opStartTransaction, opStartTransaction, opCommitTransaction},
			expectedErrs:  []string{"", "", ""},
			expectedDepth: 1,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// the caller keeps a transaction of its own open around the call
			s := storage.NewOverlay(nil)
			s.StartTransaction()

			var depth int
			var errs []string
			require.NotPanics(t, func() {
				for _, op := range testCase.ops {
					errs = append(errs, serveStorage(s, &runtimeMessage{Op: op}, &depth).Err)
				}
			})
			assert.Equal(t, testCase.expectedErrs, errs)
			assert.Equal(t, testCase.expectedDepth, depth)
			assert.Equal(t, 1+testCase.expectedDepth, s.TransactionDepth())
		})
	}
}

func TestExecutor_UnbalancedTransaction(t *testing.T) {
	t.Parallel()

	var putErr error
	x, _ := newTestExecutor(t, executorFunc(func(_ context.Context, s runtime.Storage, _ string, _ []byte) ([]byte, error) {
		s.StartTransaction()
		err := s.Put([]byte("a"), []byte{1})
		if err != nil {
			return nil, err
		}
		s.CommitTransaction()
		s.CommitTransaction()
		putErr = s.Put([]byte("b"), []byte{2})
		return []byte{1}, nil
	}))

	s := storage.NewOverlay(nil)
	s.StartTransaction()

	out, err := x.Call(context.Background(), s, "f", nil)
	assert.ErrorIs(t, err, runtime.ErrInstanceUnavailable)
	assert.ErrorContains(t, err, "cannot commit storage transaction")
	assert.True(t, runtime.IsFatal(err))
	assert.Nil(t, out)
	assert.ErrorIs(t, putErr, runtime.ErrInstanceUnavailable)

	assert.Equal(t, 1, s.TransactionDepth())
	value, err := s.Get([]byte("b"))
	require.NoError(t, err)
	assert.Nil(t, value)
}

type failingStorage struct {
	runtime.Storage
	err error
}

func (f failingStorage) Root() (common.Hash, error) {
	return common.Hash{}, f.err
}
