// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtimeapi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"github.com/prometheus/client_golang/prometheus"
)

// apiState is shared by an API and the grouped handles derived from it.
type apiState struct {
	mtx     sync.Mutex
	overlay *storage.Overlay
	// bound is the block the overlay reads through to.
	bound *common.Hash
	// initialised is the block on top of which a block was last
	// initialised through this API.
	initialised *common.Hash
	readOnly    bool
	// aborted is the first boundary error met inside a group. It discards
	// the outermost group even if the group function ignores it.
	aborted error
}

// API is a logical transaction over the runtime apis. By default every
// call commits its changes on success and discards them on error. Calls
// made inside RunGrouped commit or discard together.
//
// An API serialises its calls. Separate APIs, obtained from
// Client.RuntimeAPI, can be used concurrently.
type API struct {
	client  *Client
	state   *apiState
	grouped bool
}

type empty struct{}

// functions which run inside a block and therefore need one initialised
var needsInitialisedBlock = map[string]bool{
	runtime.BlockBuilderApplyExtrinsic: true,
	runtime.BlockBuilderFinaliseBlock:  true,
	runtime.BlockBuilderFinalizeBlock:  true,
	runtime.BlockBuilderRandomSeed:     true,
}

var initialiseNames = map[string]bool{
	runtime.CoreInitialiseBlock: true,
	runtime.CoreInitializeBlock: true,
}

// RunGrouped runs fn with a handle whose calls are committed only once fn
// returns nil, and are all discarded if it returns an error. A call failing
// inside the group leaves no changes of its own, whether or not fn then
// fails. A boundary error (see runtime.IsFatal) inside the group discards
// the whole group and is returned by the outermost RunGrouped. Groups nest:
// only the outermost group commits.
//
// fn must make its calls through the handle it is given. The API is locked
// for the duration of the group.
func (a *API) RunGrouped(fn func(group *API) error) error {
	if a.grouped {
		return a.transact(func() error { return fn(a) })
	}
	group := &API{client: a.client, state: a.state, grouped: true}
	return a.transact(func() error { return fn(group) })
}

// transact runs fn as one unit of change: a storage transaction inside a
// group, the whole logical transaction otherwise.
func (a *API) transact(fn func() error) error {
	s := a.state
	if a.grouped {
		initialised := s.initialised
		depth := s.overlay.TransactionDepth()
		s.overlay.StartTransaction()
		err := fn()
		if s.overlay.TransactionDepth() <= depth {
			err = errors.Join(errTransactionClosed, err)
		}
		if err != nil {
			s.overlay.RollbackTo(min(depth, s.overlay.TransactionDepth()))
			s.initialised = initialised
			a.abortOnFatal(err)
			return err
		}
		s.overlay.CommitTo(depth)
		return nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	initialised := s.initialised
	s.aborted = nil
	err := fn()
	if err == nil && s.aborted != nil {
		err = fmt.Errorf("group aborted: %w", s.aborted)
	}
	s.aborted = nil
	if err != nil || s.readOnly {
		s.overlay.DiscardProspective()
		s.initialised = initialised
		if err != nil {
			discardsCounter.Inc()
			logger.Debugf("discarded pending changes: %s", err)
		}
		return err
	}
	s.overlay.CommitProspective()
	commitsCounter.Inc()
	return nil
}

var errTransactionClosed = fmt.Errorf("%w: storage transaction of the group closed by the call",
	runtime.ErrInstanceUnavailable)

// abortOnFatal marks the group as failed when err is a boundary error.
func (a *API) abortOnFatal(err error) {
	if a.grouped && a.state.aborted == nil && runtime.IsFatal(err) {
		a.state.aborted = err
	}
}

// CallAt calls the runtime function at the block and decodes its result
// into result, which may be nil for functions returning nothing. It does
// not check the api version of the runtime.
func (a *API) CallAt(ctx context.Context, at types.BlockID, function string, args, result any) error {
	return a.transact(func() error {
		out, err := a.execute(ctx, at, function, args)
		if err != nil {
			return err
		}
		if result == nil {
			result = &empty{}
		}
		return decodeResult(function, out, result)
	})
}

// execute runs the call on the overlay, first initialising a block on top
// of at when the function needs one.
func (a *API) execute(ctx context.Context, at types.BlockID, function string, args any) ([]byte, error) {
	s := a.state
	header, err := a.bind(at)
	if err != nil {
		return nil, err
	}
	hash := header.Hash()

	if needsInitialisedBlock[function] && (s.initialised == nil || *s.initialised != hash) {
		initialise, err := a.resolve(ctx, at, runtime.CoreAPIID,
			runtime.CoreInitialiseBlock, runtime.CoreInitializeBlock)
		if err != nil {
			return nil, err
		}
		next := types.NewHeader(hash, common.Hash{}, common.Hash{}, header.Number+1, types.NewDigest())
		logger.Debugf("initialising block #%d on top of %s before %s", next.Number, hash.Short(), function)
		_, err = a.execute(ctx, at, initialise, *next)
		if err != nil {
			return nil, err
		}
	}

	var encoded []byte
	if args != nil {
		encoded, err = scaleMarshal(args)
		if err != nil {
			return nil, err
		}
	}

	callsCounter.WithLabelValues(function).Inc()
	timer := prometheus.NewTimer(callDuration.WithLabelValues(function))
	out, err := a.client.executor.Call(ctx, s.overlay, function, encoded)
	timer.ObserveDuration()
	if err != nil {
		kind := "runtime"
		if runtime.IsFatal(err) {
			kind = "fatal"
		}
		failuresCounter.WithLabelValues(function, kind).Inc()
		logger.Debugf("call %s at %s failed: %s", function, at, err)
		return nil, err
	}

	if initialiseNames[function] {
		s.initialised = &hash
	}
	return out, nil
}

// bind points the overlay at the state of the block and returns its header.
func (a *API) bind(at types.BlockID) (*types.Header, error) {
	header, err := a.client.blockState.GetHeader(at)
	if err != nil {
		return nil, fmt.Errorf("getting header of %s: %w", at, err)
	}
	hash := header.Hash()
	if a.state.bound != nil && *a.state.bound == hash {
		return header, nil
	}

	backend, err := a.client.storageState.StateAt(types.NewBlockIDFromHash(hash))
	if err != nil {
		return nil, fmt.Errorf("getting state at %s: %w", at, err)
	}
	a.state.overlay.SetBase(backend)
	a.state.bound = &hash
	return header, nil
}

// resolve returns the name of the function for the revision of the api
// group implemented by the runtime at the block. names lists the function
// name of each revision, starting at revision 1; later revisions keep the
// last name.
func (a *API) resolve(ctx context.Context, at types.BlockID, group runtime.APIID, names ...string) (string, error) {
	version, err := a.client.Version(ctx, at)
	if err != nil {
		return "", err
	}
	revision, ok := version.APIRevision(group)
	if !ok || revision == 0 {
		return "", fmt.Errorf("%w: %s in %s", runtime.ErrUnsupportedAPI, group, version)
	}
	return names[min(int(revision), len(names))-1], nil
}

// callAPIAt negotiates the function name and calls it, decoding the result into R.
func callAPIAt[R any](ctx context.Context, a *API, at types.BlockID, group runtime.APIID,
	names []string, args any) (result R, err error) {
	function, err := a.resolve(ctx, at, group, names...)
	if err != nil {
		a.abortOnFatal(err)
		return result, err
	}
	err = a.CallAt(ctx, at, function, args, &result)
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

func scaleMarshal(args any) ([]byte, error) {
	encoded, err := scale.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding: %w", runtime.ErrBadArguments, err)
	}
	return encoded, nil
}

func decodeResult(function string, out []byte, dst any) error {
	err := scale.Unmarshal(out, dst)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", runtime.ErrCallResultDecode, function, err)
	}
	return nil
}

// Changes returns the committed changes, sorted by key, for the host to
// persist.
func (a *API) Changes() []storage.Change {
	return a.state.overlay.Changes()
}

// ResetChanges drops the committed changes once the host persisted them.
func (a *API) ResetChanges() {
	a.state.overlay.ResetCommitted()
}

// Version returns the version of the runtime, as seen by this API.
func (a *API) Version(ctx context.Context, at types.BlockID) (version runtime.Version, err error) {
	err = a.CallAt(ctx, at, runtime.CoreVersion, nil, &version)
	return version, err
}

// Authorities returns the current set of block authorities.
func (a *API) Authorities(ctx context.Context, at types.BlockID) ([]types.AccountID, error) {
	return callAPIAt[[]types.AccountID](ctx, a, at, runtime.CoreAPIID,
		[]string{runtime.CoreAuthorities}, nil)
}

// ExecuteBlock executes a complete block on top of at.
func (a *API) ExecuteBlock(ctx context.Context, at types.BlockID, block types.Block) error {
	_, err := callAPIAt[empty](ctx, a, at, runtime.CoreAPIID,
		[]string{runtime.CoreExecuteBlock}, block)
	return err
}

// InitialiseBlock starts building a block on top of at.
func (a *API) InitialiseBlock(ctx context.Context, at types.BlockID, header *types.Header) error {
	_, err := callAPIAt[empty](ctx, a, at, runtime.CoreAPIID,
		[]string{runtime.CoreInitialiseBlock, runtime.CoreInitializeBlock}, *header)
	return err
}

// ApplyExtrinsic applies an extrinsic to the block being built on top of at.
func (a *API) ApplyExtrinsic(ctx context.Context, at types.BlockID, ext types.Extrinsic) (runtime.ApplyResult, error) {
	return callAPIAt[runtime.ApplyResult](ctx, a, at, runtime.BlockBuilderAPIID,
		[]string{runtime.BlockBuilderApplyExtrinsic}, ext)
}

// FinaliseBlock finishes the block being built and returns its header.
func (a *API) FinaliseBlock(ctx context.Context, at types.BlockID) (*types.Header, error) {
	header, err := callAPIAt[types.Header](ctx, a, at, runtime.BlockBuilderAPIID,
		[]string{runtime.BlockBuilderFinaliseBlock, runtime.BlockBuilderFinalizeBlock}, nil)
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// InherentExtrinsics returns the inherent extrinsics to place at the start
// of a block.
func (a *API) InherentExtrinsics(ctx context.Context, at types.BlockID, data types.InherentData) (
	[]types.Extrinsic, error) {
	return callAPIAt[[]types.Extrinsic](ctx, a, at, runtime.BlockBuilderAPIID,
		[]string{runtime.BlockBuilderInherentExtrinsics}, data)
}

// CheckInherents checks the inherent extrinsics of a block against the
// inherent data.
func (a *API) CheckInherents(ctx context.Context, at types.BlockID, block types.Block, data types.InherentData) (
	runtime.CheckInherentsResult, error) {
	return callAPIAt[runtime.CheckInherentsResult](ctx, a, at, runtime.BlockBuilderAPIID,
		[]string{runtime.BlockBuilderCheckInherents}, runtime.CheckInherentsArgs{Block: block, Data: data})
}

// RandomSeed returns the random seed of the block being built.
func (a *API) RandomSeed(ctx context.Context, at types.BlockID) (common.Hash, error) {
	return callAPIAt[common.Hash](ctx, a, at, runtime.BlockBuilderAPIID,
		[]string{runtime.BlockBuilderRandomSeed}, nil)
}

// ValidateTransaction checks an extrinsic for the transaction queue.
func (a *API) ValidateTransaction(ctx context.Context, at types.BlockID, ext types.Extrinsic) (
	runtime.TransactionValidity, error) {
	return callAPIAt[runtime.TransactionValidity](ctx, a, at, runtime.TaggedTransactionQueueAPIID,
		[]string{runtime.TaggedTransactionQueueValidateTransaction}, ext)
}

// Metadata returns the encoded runtime metadata.
func (a *API) Metadata(ctx context.Context, at types.BlockID) ([]byte, error) {
	return callAPIAt[[]byte](ctx, a, at, runtime.MetadataAPIID, []string{runtime.Metadata}, nil)
}

// GrandpaPendingChange returns the authority set change scheduled in the
// digest, or nil if there is none.
func (a *API) GrandpaPendingChange(ctx context.Context, at types.BlockID, digest types.Digest) (
	*types.GrandpaScheduledChange, error) {
	pending, err := callAPIAt[scale.Option[types.GrandpaScheduledChange]](ctx, a, at, runtime.GrandpaAPIID,
		[]string{runtime.GrandpaPendingChange}, digest)
	if err != nil {
		return nil, err
	}
	change, ok := pending.Unwrap()
	if !ok {
		return nil, nil //nolint:nilnil
	}
	return &change, nil
}

// GrandpaAuthorities returns the current grandpa authority set.
func (a *API) GrandpaAuthorities(ctx context.Context, at types.BlockID) ([]types.GrandpaAuthoritiesRaw, error) {
	return callAPIAt[[]types.GrandpaAuthoritiesRaw](ctx, a, at, runtime.GrandpaAPIID,
		[]string{runtime.GrandpaAuthorities}, nil)
}
