// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"github.com/ChainSafe/rtapi/dot/types"
)

// Call indices
const (
	SystemRemark uint8 = iota
	SystemSetStorage
	SystemSetCode
)

const (
	TimestampSet uint8 = iota
)

const (
	ConsensusNoteOffline uint8 = iota
	ConsensusSetAuthorities
)

const (
	BalancesTransfer uint8 = iota
	BalancesSetBalance
)

const (
	GrandpaScheduleChange uint8 = iota
)

const (
	SudoSudo uint8 = iota
	SudoSetKey
)

func mustCall(module, function uint8, args ...any) types.Call {
	c, err := types.NewCall(module, function, args...)
	if err != nil {
		panic(err)
	}
	return c
}

// Remark returns a System remark call.
func Remark(data []byte) types.Call {
	return mustCall(SystemModule, SystemRemark, data)
}

// SetStorage returns a System set_storage call. It requires the root origin.
func SetStorage(items []KeyValue) types.Call {
	return mustCall(SystemModule, SystemSetStorage, items)
}

// SetCode returns a System set_code call. It requires the root origin.
func SetCode(code []byte) types.Call {
	return mustCall(SystemModule, SystemSetCode, code)
}

// SetTimestamp returns the Timestamp set inherent call.
func SetTimestamp(now uint64) types.Call {
	return mustCall(TimestampModule, TimestampSet, now)
}

// NoteOffline returns the Consensus note_offline inherent call.
func NoteOffline(indices []uint32) types.Call {
	return mustCall(ConsensusModule, ConsensusNoteOffline, indices)
}

// SetAuthorities returns a Consensus set_authorities call. It requires the root origin.
func SetAuthorities(authorities []types.AccountID) types.Call {
	return mustCall(ConsensusModule, ConsensusSetAuthorities, authorities)
}

// Transfer returns a Balances transfer call.
func Transfer(dest types.AccountID, value uint64) types.Call {
	return mustCall(BalancesModule, BalancesTransfer, dest, value)
}

// SetBalance returns a Balances set_balance call. It requires the root origin.
func SetBalance(who types.AccountID, free uint64) types.Call {
	return mustCall(BalancesModule, BalancesSetBalance, who, free)
}

// ScheduleChange returns a Grandpa schedule_change call. It requires the root origin.
func ScheduleChange(next []types.GrandpaAuthoritiesRaw, delay uint32) types.Call {
	return mustCall(GrandpaModule, GrandpaScheduleChange, types.GrandpaScheduledChange{
		Auths: next,
		Delay: delay,
	})
}

// Sudo returns a Sudo call dispatching inner with the root origin.
func Sudo(inner types.Call) types.Call {
	return mustCall(SudoModule, SudoSudo, inner)
}

// SetKey returns a Sudo set_key call.
func SetKey(key types.AccountID) types.Call {
	return mustCall(SudoModule, SudoSetKey, key)
}
