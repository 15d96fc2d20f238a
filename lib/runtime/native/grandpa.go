// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
)

// GrandpaAuthoritiesKey is the storage key of the current grandpa authority set.
var GrandpaAuthoritiesKey = common.StorageKey("Grandpa", "Authorities")

var (
	keyGrandpaSetID         = common.StorageKey("Grandpa", "CurrentSetId")
	keyGrandpaPendingChange = common.StorageKey("Grandpa", "PendingChange")
)

// Grandpa events
const (
	EventNewAuthorities uint8 = iota
)

var errChangePending = newModuleError(0, "an authority set change is already pending")

// storedPendingChange is an authority set change scheduled by the runtime.
type storedPendingChange struct {
	ScheduledAt     uint64
	Delay           uint32
	NextAuthorities []types.GrandpaAuthoritiesRaw
}

type grandpa struct{}

func (grandpa) name() string { return "Grandpa" }

func (grandpa) calls() []call {
	return []call{
		{name: "schedule_change", dispatch: grandpaScheduleChange},
	}
}

func grandpaScheduleChange(e *env, o origin, args []byte) error {
	err := o.ensureRoot()
	if err != nil {
		return err
	}
	var change types.GrandpaScheduledChange
	err = decodeArgs(args, &change)
	if err != nil {
		return err
	}

	pending, err := e.get(keyGrandpaPendingChange, new(storedPendingChange))
	if err != nil {
		return err
	}
	if pending {
		return errChangePending
	}

	number, err := blockNumber(e)
	if err != nil {
		return err
	}
	return e.put(keyGrandpaPendingChange, storedPendingChange{
		ScheduledAt:     number,
		Delay:           change.Delay,
		NextAuthorities: change.Auths,
	})
}

func grandpaAuthorities(e *env) ([]types.GrandpaAuthoritiesRaw, error) {
	return getOr(e, GrandpaAuthoritiesKey, []types.GrandpaAuthoritiesRaw{})
}

// onFinalise signals a change scheduled in the block with a consensus log,
// and enacts the pending change once its delay elapsed.
func (grandpa) onFinalise(e *env, number uint64) error {
	var pending storedPendingChange
	ok, err := e.get(keyGrandpaPendingChange, &pending)
	if err != nil || !ok {
		return err
	}

	if pending.ScheduledAt == number {
		item, err := types.NewGrandpaScheduledChangeDigest(types.GrandpaScheduledChange{
			Auths: pending.NextAuthorities,
			Delay: pending.Delay,
		})
		if err != nil {
			return err
		}
		err = depositLog(e, item)
		if err != nil {
			return err
		}
	}

	if number < pending.ScheduledAt+uint64(pending.Delay) {
		return nil
	}

	setID, err := getOr(e, keyGrandpaSetID, uint64(0))
	if err != nil {
		return err
	}
	err = e.put(GrandpaAuthoritiesKey, pending.NextAuthorities)
	if err != nil {
		return err
	}
	err = e.put(keyGrandpaSetID, setID+1)
	if err != nil {
		return err
	}
	err = e.delete(keyGrandpaPendingChange)
	if err != nil {
		return err
	}
	return depositEvent(e, GrandpaModule, EventNewAuthorities, types.GrandpaSet{
		SetID:       setID + 1,
		Authorities: pending.NextAuthorities,
	})
}
