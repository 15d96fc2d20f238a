// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"math"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/transaction"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// nonceTag is the tag a signed extrinsic provides, and its successor requires.
func nonceTag(who types.AccountID, nonce uint64) []byte {
	return scale.MustMarshal(struct {
		Who   types.AccountID
		Nonce uint64
	}{who, nonce})
}

// validateTransaction checks an extrinsic for the transaction queue. It
// does not change state.
func validateTransaction(e *env, ext types.Extrinsic) (runtime.TransactionValidity, error) {
	ux, err := types.DecodeExtrinsic(ext)
	if err != nil {
		return runtime.NewInvalidTransactionValidity(runtime.Call), nil
	}
	_, err = lookupCall(ux.Function)
	if err != nil {
		return runtime.NewInvalidTransactionValidity(runtime.Call), nil
	}

	sig, signed := ux.Signature.Unwrap()
	if !signed {
		return runtime.NewUnknownTransactionValidity(runtime.NoUnsignedValidator), nil
	}
	if ux.Verify() != nil {
		return runtime.NewInvalidTransactionValidity(runtime.BadProof), nil
	}

	nonce, err := accountNonce(e, sig.Signer)
	if err != nil {
		return runtime.TransactionValidity{}, err
	}
	if sig.Nonce < nonce {
		return runtime.NewInvalidTransactionValidity(runtime.Stale), nil
	}

	fee, err := transactionFee(e, len(ext))
	if err != nil {
		return runtime.TransactionValidity{}, err
	}
	balance, err := freeBalance(e, sig.Signer)
	if err != nil {
		return runtime.TransactionValidity{}, err
	}
	if balance < fee {
		return runtime.NewInvalidTransactionValidity(runtime.Payment), nil
	}

	requires := [][]byte{}
	if sig.Nonce > nonce {
		requires = append(requires, nonceTag(sig.Signer, sig.Nonce-1))
	}

	return runtime.NewValidTransactionValidity(transaction.Validity{
		Priority:  fee,
		Requires:  requires,
		Provides:  [][]byte{nonceTag(sig.Signer, sig.Nonce)},
		Longevity: math.MaxUint64,
		Propagate: true,
	}), nil
}
