// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// inherentExtrinsics creates the inherent extrinsics of a block from the
// inherent data, ordered by inherent position.
func inherentExtrinsics(_ *env, data types.InherentData) ([]types.Extrinsic, error) {
	var now uint64
	ok, err := data.Get(types.Timstap0, &now)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrBadArguments, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: timestamp inherent data missing", runtime.ErrBadArguments)
	}

	calls := []types.Call{SetTimestamp(now)}

	var offline []uint32
	ok, err = data.Get(types.Offlinen, &offline)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrBadArguments, err)
	}
	if ok && len(offline) > 0 {
		calls = append(calls, NoteOffline(offline))
	}

	extrinsics := make([]types.Extrinsic, len(calls))
	for i, c := range calls {
		ext, err := types.NewUnsignedExtrinsic(c).Extrinsic()
		if err != nil {
			return nil, err
		}
		extrinsics[i] = ext
	}
	return extrinsics, nil
}

// inherentCall returns the call of the unsigned extrinsic at the given
// position of the body, if it is the expected inherent call.
func inherentCall(body types.Body, position int, module, function uint8) (types.Call, bool) {
	if len(body) <= position {
		return types.Call{}, false
	}
	ux, err := types.DecodeExtrinsic(body[position])
	if err != nil || ux.IsSigned() {
		return types.Call{}, false
	}
	if ux.Function.Module != module || ux.Function.Function != function {
		return types.Call{}, false
	}
	return ux.Function, true
}

// checkInherents checks the inherents of a block against fresh inherent
// data, at the state of the parent block.
func checkInherents(e *env, args runtime.CheckInherentsArgs) (runtime.CheckInherentsResult, error) {
	result := runtime.NewCheckInherentsResult()
	body := args.Block.Body

	err := checkTimestamp(e, body, args.Data, &result)
	if err != nil {
		return runtime.CheckInherentsResult{}, err
	}

	c, ok := inherentCall(body, runtime.NoteOfflinePosition, ConsensusModule, ConsensusNoteOffline)
	if !ok {
		return result, nil
	}
	var indices []uint32
	if scale.Unmarshal(c.Args, &indices) != nil {
		result.PutError(types.Offlinen, true, "cannot decode offline indices")
		return result, nil
	}
	valid, err := validAuthorityIndices(e, indices)
	if err != nil {
		return runtime.CheckInherentsResult{}, err
	}
	if !valid {
		result.PutError(types.Offlinen, true, "invalid authority index")
	}
	return result, nil
}

func checkTimestamp(e *env, body types.Body, data types.InherentData, result *runtime.CheckInherentsResult) error {
	c, ok := inherentCall(body, runtime.TimestampSetPosition, TimestampModule, TimestampSet)
	if !ok {
		result.PutError(types.Timstap0, true, "timestamp inherent missing")
		return nil
	}
	var timestamp uint64
	if scale.Unmarshal(c.Args, &timestamp) != nil {
		result.PutError(types.Timstap0, true, "cannot decode timestamp")
		return nil
	}

	var now uint64
	ok, err := data.Get(types.Timstap0, &now)
	if err != nil || !ok {
		result.PutError(types.Timstap0, true, "timestamp inherent data missing")
		return nil
	}

	if timestamp > now+MaxTimestampDrift {
		result.PutError(types.Timstap0, false,
			fmt.Sprintf("timestamp %d too far in the future, valid at %d", timestamp, timestamp-MaxTimestampDrift))
		return nil
	}

	earliest, err := earliestTimestamp(e)
	if err != nil {
		return err
	}
	if timestamp < earliest {
		result.PutError(types.Timstap0, true,
			fmt.Sprintf("timestamp %d before the earliest timestamp %d", timestamp, earliest))
	}
	return nil
}
