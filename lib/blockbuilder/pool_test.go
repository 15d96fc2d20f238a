// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package blockbuilder

import (
	"context"
	"testing"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/ChainSafe/rtapi/lib/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Admit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	node := newTestNode(t)
	genesis := node.best(t)

	ext := sign(t, node.alice, 0, native.Transfer(node.bob.AccountID(), 1))
	hash, err := node.pool.Admit(ctx, genesis, ext)
	require.NoError(t, err)
	assert.Equal(t, ext.Hash(), hash)

	_, err = node.pool.Admit(ctx, genesis, ext)
	assert.ErrorIs(t, err, transaction.ErrTransactionExists)

	pending := node.pool.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, ext, pending[0].Extrinsic)
	assert.Empty(t, pending[0].Validity.Requires)

	node.pool.Remove(ext)
	assert.Equal(t, 0, node.pool.Len())
}

func TestPool_Admit_Rejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	node := newTestNode(t)

	ext := sign(t, node.alice, 0, native.Remark(nil))
	_, err := node.pool.Admit(ctx, node.best(t), ext)
	require.NoError(t, err)
	_, err = node.builder.BuildBlock(ctx)
	require.NoError(t, err)

	testCases := map[string]struct {
		ext   types.Extrinsic
		errIs error
	}{
		"stale": {
			ext:   sign(t, node.alice, 0, native.Remark([]byte{1})),
			errIs: runtime.InvalidTransaction{Kind: runtime.Stale},
		},
		"undecodable": {
			ext:   types.Extrinsic{0xff},
			errIs: runtime.InvalidTransaction{Kind: runtime.Call},
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := node.pool.Admit(ctx, node.best(t), testCase.ext)
			assert.ErrorIs(t, err, ErrTransactionRejected)
			assert.ErrorIs(t, err, testCase.errIs)
		})
	}
}

func TestPool_Admit_UnknownBlock(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	ext := sign(t, node.alice, 0, native.Remark(nil))
	_, err := node.pool.Admit(context.Background(), types.NewBlockIDFromNumber(7), ext)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTransactionRejected)
	assert.Equal(t, 0, node.pool.Len())
}
