// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/config"
	"github.com/ChainSafe/rtapi/dot/digest"
	"github.com/ChainSafe/rtapi/dot/state"
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/blockbuilder"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/ChainSafe/rtapi/lib/runtime/remote"
	wazero_runtime "github.com/ChainSafe/rtapi/lib/runtime/wazero"
	"github.com/ChainSafe/rtapi/lib/runtimeapi"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// node is an opened chain: its state, the runtime api client on top of it
// and the block production components.
type node struct {
	state   *state.Service
	client  *runtimeapi.Client
	pool    *blockbuilder.Pool
	builder *blockbuilder.Builder
	closers []func() error
}

// openNode opens the initialised chain of the configuration.
func openNode(ctx context.Context, cfg *config.Config) (n *node, err error) {
	n = &node{}
	defer func() {
		if err != nil {
			_ = n.close()
		}
	}()

	n.state, err = state.NewService(state.Config{
		Path:     cfg.DatabasePath(),
		Database: cfg.Database,
		LogLevel: cfg.Log.State(),
	})
	if err != nil {
		return nil, err
	}
	n.closers = append(n.closers, n.state.Stop)
	err = n.state.Start()
	if err != nil {
		return nil, err
	}

	executor, closeExecutor, err := newExecutor(ctx, cfg.Runtime)
	if err != nil {
		return nil, err
	}
	n.closers = append(n.closers, closeExecutor)

	n.client, err = runtimeapi.NewClient(executor, n.state.Block, n.state.Storage)
	if err != nil {
		return nil, err
	}
	n.closers = append(n.closers, func() error {
		n.client.Close()
		return nil
	})

	n.pool = blockbuilder.NewPool(n.client)
	n.builder = blockbuilder.New(n.client, n.state.Block, n.state,
		digest.NewHandler(n.state.Grandpa), n.pool)
	return n, nil
}

// close releases the node components in reverse opening order.
func (n *node) close() error {
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = append(errs, n.closers[i]())
	}
	n.closers = nil
	return errors.Join(errs...)
}

func (n *node) best() (types.BlockID, error) {
	hash, err := n.state.Block.BestBlockHash()
	if err != nil {
		return types.BlockID{}, fmt.Errorf("getting best block: %w", err)
	}
	return types.NewBlockIDFromHash(hash), nil
}

// accountNonce reads the nonce of the account at the block.
func (n *node) accountNonce(at types.BlockID, who types.AccountID) (uint64, error) {
	enc, err := n.state.Storage.GetStorage(at, native.AccountNonceKey(who))
	if err != nil {
		return 0, err
	}
	var nonce uint64
	if enc == nil {
		return nonce, nil
	}
	err = scale.Unmarshal(enc, &nonce)
	if err != nil {
		return 0, fmt.Errorf("decoding nonce of %s: %w", who, err)
	}
	return nonce, nil
}

// newExecutor returns the runtime executor of the configuration and a
// function releasing it.
func newExecutor(ctx context.Context, cfg config.RuntimeConfig) (runtime.Executor, func() error, error) {
	switch cfg.Executor {
	case config.NativeExecutor:
		return nativeExecutor(), func() error { return nil }, nil
	case config.WasmExecutor:
		executor, err := wazero_runtime.NewExecutor(ctx)
		if err != nil {
			return nil, nil, err
		}
		return executor, func() error {
			return executor.Close(context.Background())
		}, nil
	case config.RemoteExecutor:
		executor, err := remote.Dial(cfg.Remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, err
		}
		return executor, executor.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown runtime executor: %q", cfg.Executor)
}

// nativeExecutor runs every runtime build shipped with the binary.
func nativeExecutor() *native.Executor {
	return native.NewExecutor(
		native.New(native.CurrentVersion()),
		native.New(native.LegacyVersion()),
	)
}
