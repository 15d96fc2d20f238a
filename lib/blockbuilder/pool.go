// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package blockbuilder

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtimeapi"
	"github.com/ChainSafe/rtapi/lib/transaction"
)

// ErrTransactionRejected is returned when the runtime does not consider a
// transaction valid.
var ErrTransactionRejected = errors.New("transaction rejected")

// Pool holds the transactions waiting for inclusion, highest priority first.
type Pool struct {
	client *runtimeapi.Client
	queue  *transaction.PriorityQueue
}

// NewPool returns an empty pool validating transactions with the client.
func NewPool(client *runtimeapi.Client) *Pool {
	return &Pool{
		client: client,
		queue:  transaction.NewPriorityQueue(),
	}
}

// Admit validates the extrinsic against the state at the block and queues
// it. Validation never changes state.
func (p *Pool) Admit(ctx context.Context, at types.BlockID, ext types.Extrinsic) (common.Hash, error) {
	validity, err := p.client.ValidateTransaction(ctx, at, ext)
	if err != nil {
		return common.Hash{}, fmt.Errorf("validating transaction: %w", err)
	}
	err = validity.Err()
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", ErrTransactionRejected, err)
	}

	hash, err := p.queue.Push(transaction.NewValidTransaction(ext, validity.Valid))
	if err != nil {
		return hash, err
	}
	logger.Debugf("admitted transaction %s with %s", hash, validity.Valid)
	return hash, nil
}

// Pending returns the queued transactions, highest priority first.
func (p *Pool) Pending() []*transaction.ValidTransaction {
	return p.queue.Pending()
}

// Remove drops the extrinsic from the pool.
func (p *Pool) Remove(ext types.Extrinsic) {
	p.queue.RemoveExtrinsic(ext)
}

// Len returns the number of queued transactions.
func (p *Pool) Len() int {
	return p.queue.Len()
}
