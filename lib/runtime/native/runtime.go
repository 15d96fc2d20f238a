// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"context"
	"fmt"

	"github.com/ChainSafe/rtapi/dot/digest"
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "runtime/native"))

// entry is an exported runtime function: SCALE encoded arguments in,
// SCALE encoded result out.
type entry func(e *env, args []byte) ([]byte, error)

func entry0[R any](fn func(*env) (R, error)) entry {
	return func(e *env, args []byte) ([]byte, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: unexpected %d bytes", runtime.ErrBadArguments, len(args))
		}
		result, err := fn(e)
		if err != nil {
			return nil, err
		}
		return scale.Marshal(result)
	}
}

func entry1[A, R any](fn func(*env, A) (R, error)) entry {
	return func(e *env, args []byte) ([]byte, error) {
		var arg A
		err := scale.Unmarshal(args, &arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", runtime.ErrBadArguments, err)
		}
		result, err := fn(e, arg)
		if err != nil {
			return nil, err
		}
		return scale.Marshal(result)
	}
}

// unit is the empty result of functions returning nothing.
type unit struct{}

// LegacyVersion returns the version of the runtime build exposing the
// first revision of the Core and BlockBuilder apis.
func LegacyVersion() runtime.Version {
	return runtime.Version{
		SpecName:         "rtapi",
		ImplName:         "rtapi-native",
		AuthoringVersion: 1,
		SpecVersion:      1,
		ImplVersion:      0,
		APIItems: []runtime.APIItem{
			{Name: runtime.CoreAPIID, Ver: 1},
			{Name: runtime.BlockBuilderAPIID, Ver: 1},
			{Name: runtime.TaggedTransactionQueueAPIID, Ver: 1},
			{Name: runtime.MetadataAPIID, Ver: 1},
			{Name: runtime.GrandpaAPIID, Ver: 1},
		},
	}
}

// CurrentVersion returns the version of the current runtime build.
func CurrentVersion() runtime.Version {
	return runtime.Version{
		SpecName:         "rtapi",
		ImplName:         "rtapi-native",
		AuthoringVersion: 1,
		SpecVersion:      2,
		ImplVersion:      0,
		APIItems: []runtime.APIItem{
			{Name: runtime.CoreAPIID, Ver: 2},
			{Name: runtime.BlockBuilderAPIID, Ver: 2},
			{Name: runtime.TaggedTransactionQueueAPIID, Ver: 1},
			{Name: runtime.MetadataAPIID, Ver: 1},
			{Name: runtime.GrandpaAPIID, Ver: 1},
		},
	}
}

// Runtime is a runtime build implemented in Go and executed in process.
// Every call runs against the storage it is given and keeps no state
// between calls.
type Runtime struct {
	version runtime.Version
	entries map[string]entry
}

// New returns the runtime build with the given version. The names of the
// exported functions follow the api revisions of the version.
func New(version runtime.Version) *Runtime {
	r := &Runtime{version: version}

	initialise := runtime.CoreInitialiseBlock
	if revision, _ := version.APIRevision(runtime.CoreAPIID); revision >= 2 {
		initialise = runtime.CoreInitializeBlock
	}
	finalise := runtime.BlockBuilderFinaliseBlock
	if revision, _ := version.APIRevision(runtime.BlockBuilderAPIID); revision >= 2 {
		finalise = runtime.BlockBuilderFinalizeBlock
	}

	r.entries = map[string]entry{
		runtime.CoreVersion:      entry0(r.coreVersion),
		runtime.CoreAuthorities:  entry0(consensusAuthorities),
		runtime.CoreExecuteBlock: entry1(coreExecuteBlock),
		initialise:               entry1(coreInitialiseBlock),
	}
	r.entries[runtime.BlockBuilderApplyExtrinsic] = entry1(applyExtrinsic)
	r.entries[finalise] = entry0(finaliseBlock)
	r.entries[runtime.BlockBuilderInherentExtrinsics] = entry1(inherentExtrinsics)
	r.entries[runtime.BlockBuilderCheckInherents] = entry1(checkInherents)
	r.entries[runtime.BlockBuilderRandomSeed] = entry0(randomSeed)
	r.entries[runtime.TaggedTransactionQueueValidateTransaction] = entry1(validateTransaction)
	r.entries[runtime.Metadata] = entry0(metadata)
	r.entries[runtime.GrandpaPendingChange] = entry1(grandpaPendingChange)
	r.entries[runtime.GrandpaAuthorities] = entry0(grandpaAuthorities)
	return r
}

func (r *Runtime) coreVersion(*env) (runtime.Version, error) {
	return r.version, nil
}

func coreExecuteBlock(e *env, block types.Block) (unit, error) {
	return unit{}, executeBlock(e, block)
}

func coreInitialiseBlock(e *env, header types.Header) (unit, error) {
	return unit{}, initialiseBlock(e, header)
}

func metadata(*env) ([]byte, error) {
	return scale.Marshal(Metadata())
}

// grandpaPendingChange returns the first authority set change scheduled
// in the digest.
func grandpaPendingChange(_ *env, d types.Digest) (scale.Option[types.GrandpaScheduledChange], error) {
	change, ok := digest.GrandpaPendingChange(d)
	if !ok {
		return scale.None[types.GrandpaScheduledChange](), nil
	}
	return scale.Some(change), nil
}

// Version returns the version of the runtime build.
func (r *Runtime) Version() runtime.Version {
	return r.version
}

// Code returns the marker stored at the code key of chains running the build.
func (r *Runtime) Code() []byte {
	return []byte(fmt.Sprintf("native:%s:%d:%d", r.version.SpecName, r.version.SpecVersion, r.version.ImplVersion))
}

// Call executes the runtime function against the storage. A panic in the
// runtime is reported as the instance being unavailable.
func (r *Runtime) Call(ctx context.Context, s runtime.Storage, function string, args []byte) (out []byte, err error) {
	fn, ok := r.entries[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s", runtime.ErrUnknownFunction, function)
	}
	err = ctx.Err()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrInstanceUnavailable, err)
	}

	defer func() {
		if trap := recover(); trap != nil {
			logger.Errorf("runtime trapped in %s: %v", function, trap)
			out, err = nil, fmt.Errorf("%w: trapped in %s: %v", runtime.ErrInstanceUnavailable, function, trap)
		}
	}()

	logger.Tracef("calling %s with %d bytes of arguments", function, len(args))
	out, err = fn(newEnv(ctx, s), args)
	if err != nil {
		return nil, runtime.NewCallError(function, err)
	}
	return out, nil
}

// Executor runs the runtime build matching the code stored in state, so
// that a chain can switch builds with a code upgrade.
type Executor struct {
	builds map[string]*Runtime
}

// NewExecutor returns an executor for the given builds.
func NewExecutor(builds ...*Runtime) *Executor {
	executor := &Executor{builds: make(map[string]*Runtime, len(builds))}
	for _, build := range builds {
		executor.builds[string(build.Code())] = build
	}
	return executor
}

// Call executes the runtime function with the build matching the state code.
func (x *Executor) Call(ctx context.Context, s runtime.Storage, function string, args []byte) ([]byte, error) {
	code, err := s.Get(common.CodeKey)
	if err != nil {
		return nil, fmt.Errorf("%w: reading code: %w", runtime.ErrInstanceUnavailable, err)
	}
	build, ok := x.builds[string(code)]
	if !ok {
		return nil, fmt.Errorf("%w: no runtime build for code %q", runtime.ErrInstanceUnavailable, code)
	}
	return build.Call(ctx, s, function, args)
}
