// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtimeapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/dgraph-io/ristretto/v2"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "runtimeapi"))

// ErrNilState is returned by NewClient when a state dependency is missing.
var ErrNilState = errors.New("nil state")

const versionCacheSize = 1 << 10

// Client gives typed access to the runtime apis on top of the chain state.
type Client struct {
	executor     runtime.Executor
	blockState   BlockState
	storageState StorageState

	// versions caches the runtime version by code hash. A runtime build
	// reports a fixed version, so entries never go stale.
	versions *ristretto.Cache[[]byte, runtime.Version]
}

// NewClient returns a client calling into the executor.
func NewClient(executor runtime.Executor, blockState BlockState, storageState StorageState) (*Client, error) {
	if executor == nil {
		return nil, fmt.Errorf("%w: executor", ErrNilState)
	}
	if blockState == nil {
		return nil, fmt.Errorf("%w: block state", ErrNilState)
	}
	if storageState == nil {
		return nil, fmt.Errorf("%w: storage state", ErrNilState)
	}

	versions, err := ristretto.NewCache[[]byte, runtime.Version](&ristretto.Config[[]byte, runtime.Version]{
		NumCounters:        versionCacheSize * 10,
		MaxCost:            versionCacheSize,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating version cache: %w", err)
	}

	return &Client{
		executor:     executor,
		blockState:   blockState,
		storageState: storageState,
		versions:     versions,
	}, nil
}

// Close releases the version cache.
func (c *Client) Close() {
	c.versions.Close()
}

// RuntimeAPI returns a new handle with its own pending changes. Changes
// made through the handle are kept until read with Changes, and a failing
// call discards the changes of that call only.
func (c *Client) RuntimeAPI() *API {
	return &API{
		client: c,
		state:  &apiState{overlay: storage.NewOverlay(nil)},
	}
}

// Version returns the version of the runtime at the block. Versions are
// cached by runtime code, so a build is asked at most once.
func (c *Client) Version(ctx context.Context, at types.BlockID) (runtime.Version, error) {
	backend, err := c.storageState.StateAt(at)
	if err != nil {
		return runtime.Version{}, fmt.Errorf("getting state at %s: %w", at, err)
	}
	code, err := backend.Get(common.CodeKey)
	if err != nil {
		return runtime.Version{}, fmt.Errorf("reading runtime code at %s: %w", at, err)
	}
	codeHash, err := common.Blake2bHash(code)
	if err != nil {
		return runtime.Version{}, err
	}

	if version, ok := c.versions.Get(codeHash[:]); ok {
		return version, nil
	}

	versionCacheMisses.Inc()
	version, err := callExecutor[runtime.Version](ctx, c.executor, storage.NewOverlay(backend),
		runtime.CoreVersion, nil)
	if err != nil {
		return runtime.Version{}, err
	}

	c.versions.Set(codeHash[:], version, 1)
	c.versions.Wait()
	logger.Debugf("runtime at %s is %s", at, version)
	return version, nil
}

// ValidateTransaction checks an extrinsic against the state at the block.
// The changes made by the runtime during validation are always discarded.
func (c *Client) ValidateTransaction(ctx context.Context, at types.BlockID, ext types.Extrinsic) (
	runtime.TransactionValidity, error) {
	api := &API{
		client: c,
		state:  &apiState{overlay: storage.NewOverlay(nil), readOnly: true},
	}
	return api.ValidateTransaction(ctx, at, ext)
}

// callExecutor runs a single call on the storage and decodes its result.
func callExecutor[R any](ctx context.Context, executor runtime.Executor, s runtime.Storage,
	function string, args any) (result R, err error) {
	var encoded []byte
	if args != nil {
		encoded, err = scaleMarshal(args)
		if err != nil {
			return result, err
		}
	}
	out, err := executor.Call(ctx, s, function, encoded)
	if err != nil {
		return result, err
	}
	err = decodeResult(function, out, &result)
	return result, err
}
