// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// MaxExtrinsicsPerBlock is the number of extrinsics a block can hold.
const MaxExtrinsicsPerBlock = 1024

// inherentPositions maps the inherent calls to the index they must have
// in the block body.
var inherentPositions = map[[2]uint8]int{
	{TimestampModule, TimestampSet}:         runtime.TimestampSetPosition,
	{ConsensusModule, ConsensusNoteOffline}: runtime.NoteOfflinePosition,
}

func inherentPosition(c types.Call) (int, bool) {
	position, ok := inherentPositions[[2]uint8{c.Module, c.Function}]
	return position, ok
}

func ensureInitialised(e *env) (phase, error) {
	p, err := currentPhase(e)
	if err != nil {
		return p, err
	}
	if p != phaseInitialised && p != phaseApplying {
		return p, runtime.ErrBlockNotInitialised
	}
	return p, nil
}

// initialiseBlock starts the execution of a block. Only the digest items
// deposited before execution are expected in the header.
func initialiseBlock(e *env, header types.Header) error {
	p, err := currentPhase(e)
	if err != nil {
		return err
	}
	if p != phaseUninitialised {
		return runtime.ErrBlockAlreadyInitialised
	}

	digest := header.Digest
	if digest == nil {
		digest = types.NewDigest()
	}

	err = e.put(keyNumber, header.Number)
	if err != nil {
		return err
	}
	err = e.put(keyParentHash, header.ParentHash)
	if err != nil {
		return err
	}
	err = e.put(keyDigest, digest)
	if err != nil {
		return err
	}
	err = e.delete(keyEvents, keyExtrinsics)
	if err != nil {
		return err
	}
	err = noteParentHash(e, header.Number, header.ParentHash)
	if err != nil {
		return err
	}
	err = e.put(keyPhase, phaseInitialised)
	if err != nil {
		return err
	}

	return onInitialise(e, header.Number)
}

// applyExtrinsic applies an extrinsic to the block being built. Extrinsics
// failing their validity checks have no effect. The changes of a failing
// call are rolled back, but the fees and nonce bump remain.
func applyExtrinsic(e *env, ext types.Extrinsic) (runtime.ApplyResult, error) {
	_, err := ensureInitialised(e)
	if err != nil {
		return runtime.ApplyResult{}, err
	}

	applyErr, sender, err := checkExtrinsic(e, ext)
	if err != nil {
		return runtime.ApplyResult{}, err
	}
	if applyErr != nil {
		return runtime.ApplyInvalid(*applyErr), nil
	}

	extrinsics, err := getOr(e, keyExtrinsics, []types.Extrinsic{})
	if err != nil {
		return runtime.ApplyResult{}, err
	}
	index := uint32(len(extrinsics))
	ux, err := types.DecodeExtrinsic(ext)
	if err != nil {
		return runtime.ApplyResult{}, err
	}

	o := origin{kind: originNone}
	if sig, ok := ux.Signature.Unwrap(); ok {
		o = signedOrigin(sig.Signer)
		err = incAccountNonce(e, sig.Signer)
		if err != nil {
			return runtime.ApplyResult{}, err
		}
		err = withdrawFee(e, sig.Signer, sender.fee)
		if err != nil {
			return runtime.ApplyResult{}, err
		}
	}

	err = e.put(keyExtrinsics, append(extrinsics, ext))
	if err != nil {
		return runtime.ApplyResult{}, err
	}
	err = e.put(keyPhase, phaseApplying)
	if err != nil {
		return runtime.ApplyResult{}, err
	}

	e.extrinsic = index
	defer func() { e.extrinsic = noExtrinsic }()

	err = e.transactional(func() error {
		return dispatch(e, o, ux.Function)
	})
	var modErr *moduleError
	switch {
	case err == nil:
		err = depositEvent(e, SystemModule, EventExtrinsicSuccess, nil)
		if err != nil {
			return runtime.ApplyResult{}, err
		}
		return runtime.ApplySuccess(), nil
	case errors.As(err, &modErr):
		dispatchErr := runtime.DispatchError{
			Module:  ux.Function.Module,
			Error:   modErr.code,
			Message: modErr.message,
		}
		err = depositEvent(e, SystemModule, EventExtrinsicFailed, dispatchErr)
		if err != nil {
			return runtime.ApplyResult{}, err
		}
		return runtime.ApplyFail(dispatchErr), nil
	default:
		return runtime.ApplyResult{}, err
	}
}

type checkedSender struct {
	fee uint64
}

// checkExtrinsic runs the validity checks of an extrinsic, without
// changing state.
func checkExtrinsic(e *env, ext types.Extrinsic) (*runtime.ApplyError, checkedSender, error) {
	invalid := func(applyErr runtime.ApplyError) (*runtime.ApplyError, checkedSender, error) {
		return &applyErr, checkedSender{}, nil
	}

	ux, err := types.DecodeExtrinsic(ext)
	if err != nil {
		return invalid(runtime.ApplyErrorBadFormat)
	}
	_, err = lookupCall(ux.Function)
	if err != nil {
		return invalid(runtime.ApplyErrorBadFormat)
	}

	extrinsics, err := getOr(e, keyExtrinsics, []types.Extrinsic{})
	if err != nil {
		return nil, checkedSender{}, err
	}
	if len(extrinsics) >= MaxExtrinsicsPerBlock {
		return invalid(runtime.ApplyErrorFullBlock)
	}

	sig, signed := ux.Signature.Unwrap()
	if !signed {
		position, ok := inherentPosition(ux.Function)
		if !ok {
			return invalid(runtime.ApplyErrorBadSignature)
		}
		if position != len(extrinsics) {
			return invalid(runtime.ApplyErrorBadInherentPosition)
		}
		return nil, checkedSender{}, nil
	}

	if ux.Verify() != nil {
		return invalid(runtime.ApplyErrorBadSignature)
	}

	nonce, err := accountNonce(e, sig.Signer)
	if err != nil {
		return nil, checkedSender{}, err
	}
	switch {
	case sig.Nonce < nonce:
		return invalid(runtime.ApplyErrorStale)
	case sig.Nonce > nonce:
		return invalid(runtime.ApplyErrorFuture)
	}

	fee, err := transactionFee(e, len(ext))
	if err != nil {
		return nil, checkedSender{}, err
	}
	balance, err := freeBalance(e, sig.Signer)
	if err != nil {
		return nil, checkedSender{}, err
	}
	if balance < fee {
		return invalid(runtime.ApplyErrorCantPay)
	}
	return nil, checkedSender{fee: fee}, nil
}

// finaliseBlock runs the finalisation hooks and returns the header of the
// block. The per block state is cleared, so the next call must initialise
// a new block.
func finaliseBlock(e *env) (types.Header, error) {
	_, err := ensureInitialised(e)
	if err != nil {
		return types.Header{}, err
	}

	number, err := blockNumber(e)
	if err != nil {
		return types.Header{}, err
	}
	err = onFinalise(e, number)
	if err != nil {
		return types.Header{}, err
	}

	parentHash, err := getOr(e, keyParentHash, common.Hash{})
	if err != nil {
		return types.Header{}, err
	}
	digest, err := getOr(e, keyDigest, types.NewDigest())
	if err != nil {
		return types.Header{}, err
	}
	extrinsics, err := getOr(e, keyExtrinsics, []types.Extrinsic{})
	if err != nil {
		return types.Header{}, err
	}
	extrinsicsRoot, err := types.Body(extrinsics).ExtrinsicsRoot()
	if err != nil {
		return types.Header{}, err
	}

	err = e.delete(keyPhase, keyDigest, keyExtrinsics)
	if err != nil {
		return types.Header{}, err
	}
	stateRoot, err := e.storage.Root()
	if err != nil {
		return types.Header{}, err
	}

	return *types.NewHeader(parentHash, stateRoot, extrinsicsRoot, number, digest), nil
}

// executeBlock executes a complete block and checks the resulting header
// against the header of the block.
func executeBlock(e *env, block types.Block) error {
	number, err := blockNumber(e)
	if err != nil {
		return err
	}
	header := block.Header
	if header.Number != number+1 {
		return fmt.Errorf("%w: block number %d does not follow %d", runtime.ErrInvalidBlock, header.Number, number)
	}

	preRuntime := types.NewDigest()
	for _, item := range header.Digest {
		if item.Type() == types.PreRuntimeDigestType {
			preRuntime.Add(item)
		}
	}
	err = initialiseBlock(e, *types.NewHeader(header.ParentHash, common.Hash{}, common.Hash{}, header.Number, preRuntime))
	if err != nil {
		return err
	}

	for i, ext := range block.Body {
		result, err := applyExtrinsic(e, ext)
		if err != nil {
			return err
		}
		if result.Validity != nil {
			return fmt.Errorf("%w: extrinsic %d: %s", runtime.ErrInvalidBlock, i, result.Validity)
		}
		if _, inherent := isInherent(ext); inherent && result.Dispatch != nil {
			return fmt.Errorf("%w: inherent %d failed: %s", runtime.ErrInvalidBlock, i, result.Dispatch)
		}
	}

	final, err := finaliseBlock(e)
	if err != nil {
		return err
	}

	if final.ExtrinsicsRoot != header.ExtrinsicsRoot {
		return fmt.Errorf("%w: extrinsics root %s, expected %s", runtime.ErrInvalidBlock, header.ExtrinsicsRoot, final.ExtrinsicsRoot)
	}
	if final.StateRoot != header.StateRoot {
		return fmt.Errorf("%w: state root %s, expected %s", runtime.ErrInvalidBlock, header.StateRoot, final.StateRoot)
	}

	unsealed := types.NewDigest()
	for _, item := range header.Digest {
		if item.Type() != types.SealDigestType {
			unsealed.Add(item)
		}
	}
	expected, err := scale.Marshal(final.Digest)
	if err != nil {
		return err
	}
	actual, err := scale.Marshal(unsealed)
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, actual) {
		return fmt.Errorf("%w: digest mismatch", runtime.ErrInvalidBlock)
	}
	return nil
}

// isInherent returns the inherent position of an unsigned inherent extrinsic.
func isInherent(ext types.Extrinsic) (int, bool) {
	ux, err := types.DecodeExtrinsic(ext)
	if err != nil || ux.IsSigned() {
		return 0, false
	}
	return inherentPosition(ux.Function)
}

// randomSeed returns the hash of the parent hashes of the last blocks.
func randomSeed(e *env) (common.Hash, error) {
	_, err := ensureInitialised(e)
	if err != nil {
		return common.Hash{}, err
	}
	material, err := getOr(e, keyRandomMaterial, []common.Hash{})
	if err != nil {
		return common.Hash{}, err
	}
	enc, err := scale.Marshal(material)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2bHash(enc)
}
