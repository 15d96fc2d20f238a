// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
)

// MaxTimestampDrift is how far ahead of the local time, in milliseconds,
// the timestamp of a block may be.
const MaxTimestampDrift = 60_000

var (
	keyNow           = common.StorageKey("Timestamp", "Now")
	keyDidUpdate     = common.StorageKey("Timestamp", "DidUpdate")
	keyMinimumPeriod = common.StorageKey("Timestamp", "MinimumPeriod")
)

var (
	errTimestampUpdated  = newModuleError(0, "timestamp must be updated only once in the block")
	errTimestampTooEarly = newModuleError(1, "timestamp must increment by at least the minimum period")
)

type timestamp struct{}

func (timestamp) name() string { return "Timestamp" }

func (timestamp) calls() []call {
	return []call{
		{name: "set", dispatch: timestampSet},
	}
}

func timestampSet(e *env, o origin, args []byte) error {
	err := o.ensureNone()
	if err != nil {
		return err
	}
	var now uint64
	err = decodeArgs(args, &now)
	if err != nil {
		return err
	}

	didUpdate, err := getOr(e, keyDidUpdate, false)
	if err != nil {
		return err
	}
	if didUpdate {
		return errTimestampUpdated
	}

	earliest, err := earliestTimestamp(e)
	if err != nil {
		return err
	}
	if now < earliest {
		return errTimestampTooEarly
	}

	err = e.put(keyNow, now)
	if err != nil {
		return err
	}
	return e.put(keyDidUpdate, true)
}

// earliestTimestamp returns the smallest timestamp the current block may have.
func earliestTimestamp(e *env) (uint64, error) {
	prev, err := getOr(e, keyNow, uint64(0))
	if err != nil {
		return 0, err
	}
	minimumPeriod, err := getOr(e, keyMinimumPeriod, uint64(0))
	if err != nil {
		return 0, err
	}
	return prev + minimumPeriod, nil
}

func (timestamp) onFinalise(e *env, _ uint64) error {
	didUpdate, err := getOr(e, keyDidUpdate, false)
	if err != nil {
		return err
	}
	if !didUpdate {
		return fmt.Errorf("%w: timestamp must be updated once in the block", runtime.ErrInvalidBlock)
	}
	return e.delete(keyDidUpdate)
}
