// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package blockbuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtimeapi"
	"github.com/ChainSafe/rtapi/lib/transaction"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "blockbuilder"))

var errInherentFailed = errors.New("inherent extrinsic failed")

// Builder authors blocks on top of the best block, with the timestamp
// inherent and the transactions of the pool.
type Builder struct {
	client     *runtimeapi.Client
	blockState BlockState
	importer   Importer
	digests    DigestHandler
	pool       *Pool
	now        func() time.Time
}

// New returns a block builder. Built blocks are imported and finalised
// immediately.
func New(client *runtimeapi.Client, blockState BlockState, importer Importer,
	digests DigestHandler, pool *Pool) *Builder {
	return &Builder{
		client:     client,
		blockState: blockState,
		importer:   importer,
		digests:    digests,
		pool:       pool,
		now:        time.Now,
	}
}

// BuildBlock builds a block on top of the best block, imports it and
// finalises it. Block construction runs as one group of runtime calls, so
// a failure leaves neither the pool nor the chain changed.
func (b *Builder) BuildBlock(ctx context.Context) (*types.Block, error) {
	parent, err := b.blockState.BestBlockHeader()
	if err != nil {
		return nil, fmt.Errorf("getting best block: %w", err)
	}
	at := types.NewBlockIDFromHash(parent.Hash())
	logger.Tracef("building block on top of #%d (%s)", parent.Number, parent.Hash())

	var block *types.Block
	var included, dropped []types.Extrinsic
	api := b.client.RuntimeAPI()
	err = api.RunGrouped(func(group *runtimeapi.API) error {
		header := types.NewHeader(parent.Hash(), common.Hash{}, common.Hash{}, parent.Number+1, types.NewDigest())
		err := group.InitialiseBlock(ctx, at, header)
		if err != nil {
			return fmt.Errorf("initialising block: %w", err)
		}

		inherents, err := b.applyInherents(ctx, group, at)
		if err != nil {
			return err
		}
		included, dropped, err = b.applyTransactions(ctx, group, at)
		if err != nil {
			return err
		}

		header, err = group.FinaliseBlock(ctx, at)
		if err != nil {
			return fmt.Errorf("finalising block: %w", err)
		}
		built := types.NewBlock(*header, append(inherents, included...))
		block = &built
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = b.importer.ImportBlock(block, api.Changes())
	if err != nil {
		return nil, fmt.Errorf("importing block: %w", err)
	}
	err = b.digests.HandleDigests(&block.Header)
	if err != nil {
		return nil, err
	}
	err = b.digests.HandleFinalised(&block.Header)
	if err != nil {
		return nil, err
	}

	for _, ext := range append(included, dropped...) {
		b.pool.Remove(ext)
	}
	logger.Infof("built block #%d (%s) with %d transactions",
		block.Header.Number, block.Header.Hash(), len(included))
	return block, nil
}

func (b *Builder) applyInherents(ctx context.Context, group *runtimeapi.API, at types.BlockID) (
	[]types.Extrinsic, error) {
	data := types.NewInherentData()
	err := data.Put(types.Timstap0, uint64(b.now().UnixMilli()))
	if err != nil {
		return nil, err
	}
	inherents, err := group.InherentExtrinsics(ctx, at, *data)
	if err != nil {
		return nil, fmt.Errorf("getting inherent extrinsics: %w", err)
	}
	for _, ext := range inherents {
		result, err := group.ApplyExtrinsic(ctx, at, ext)
		if err != nil {
			return nil, fmt.Errorf("applying inherent: %w", err)
		}
		if !result.IsSuccess() {
			return nil, fmt.Errorf("%w: %s", errInherentFailed, result)
		}
	}
	return inherents, nil
}

// applyTransactions applies the pending transactions in passes, so that a
// transaction popped before the one it depends on is retried once the
// dependency is in. Transactions failing validity for another reason are
// dropped. A failed dispatch still goes in the block.
func (b *Builder) applyTransactions(ctx context.Context, group *runtimeapi.API, at types.BlockID) (
	included, dropped []types.Extrinsic, err error) {
	pending := b.pool.Pending()
	for len(pending) > 0 {
		var deferred []*transaction.ValidTransaction
		for _, tx := range pending {
			result, err := group.ApplyExtrinsic(ctx, at, tx.Extrinsic)
			switch {
			case runtime.IsFatal(err):
				return nil, nil, fmt.Errorf("applying extrinsic %s: %w", tx.Extrinsic, err)
			case err != nil:
				logger.Warnf("dropping extrinsic %s: %s", tx.Extrinsic, err)
				dropped = append(dropped, tx.Extrinsic)
			case result.Validity != nil && *result.Validity == runtime.ApplyErrorFuture:
				deferred = append(deferred, tx)
			case result.Validity != nil:
				logger.Debugf("dropping extrinsic %s: %s", tx.Extrinsic, result)
				dropped = append(dropped, tx.Extrinsic)
			default:
				if result.Dispatch != nil {
					logger.Debugf("extrinsic %s dispatch failed: %s", tx.Extrinsic, result)
				}
				included = append(included, tx.Extrinsic)
			}
		}
		if len(deferred) == len(pending) {
			break
		}
		pending = deferred
	}
	return included, dropped, nil
}
