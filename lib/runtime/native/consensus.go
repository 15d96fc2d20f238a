// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
)

var (
	keyAuthorities        = common.StorageKey("Consensus", "Authorities")
	keyAuthoritiesChanged = common.StorageKey("Consensus", "AuthoritiesChanged")
	keyOfflineReported    = common.StorageKey("Consensus", "OfflineReported")
)

// Consensus events
const (
	EventOfflineReported uint8 = iota
)

var (
	errInvalidAuthorityIndex = newModuleError(0, "invalid authority index")
	errOfflineReported       = newModuleError(1, "offline authorities already reported in the block")
)

type consensus struct{}

func (consensus) name() string { return "Consensus" }

func (consensus) calls() []call {
	return []call{
		{name: "note_offline", dispatch: consensusNoteOffline},
		{name: "set_authorities", dispatch: consensusSetAuthorities},
	}
}

func consensusNoteOffline(e *env, o origin, args []byte) error {
	err := o.ensureNone()
	if err != nil {
		return err
	}
	var indices []uint32
	err = decodeArgs(args, &indices)
	if err != nil {
		return err
	}

	reported, err := getOr(e, keyOfflineReported, false)
	if err != nil {
		return err
	}
	if reported {
		return errOfflineReported
	}

	valid, err := validAuthorityIndices(e, indices)
	if err != nil {
		return err
	}
	if !valid {
		return errInvalidAuthorityIndex
	}

	err = e.put(keyOfflineReported, true)
	if err != nil {
		return err
	}
	return depositEvent(e, ConsensusModule, EventOfflineReported, indices)
}

func validAuthorityIndices(e *env, indices []uint32) (bool, error) {
	authorities, err := consensusAuthorities(e)
	if err != nil {
		return false, err
	}
	for _, index := range indices {
		if int(index) >= len(authorities) {
			return false, nil
		}
	}
	return true, nil
}

func consensusSetAuthorities(e *env, o origin, args []byte) error {
	err := o.ensureRoot()
	if err != nil {
		return err
	}
	var authorities []types.AccountID
	err = decodeArgs(args, &authorities)
	if err != nil {
		return err
	}

	err = e.put(keyAuthorities, authorities)
	if err != nil {
		return err
	}
	return e.put(keyAuthoritiesChanged, true)
}

func consensusAuthorities(e *env) ([]types.AccountID, error) {
	return getOr(e, keyAuthorities, []types.AccountID{})
}

func (consensus) onInitialise(e *env, _ uint64) error {
	return e.delete(keyOfflineReported)
}

// onFinalise deposits an authorities change log when the authorities were
// changed in the block.
func (consensus) onFinalise(e *env, _ uint64) error {
	changed, err := getOr(e, keyAuthoritiesChanged, false)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	authorities, err := consensusAuthorities(e)
	if err != nil {
		return err
	}
	keys := make(types.AuthoritiesChangeDigest, len(authorities))
	for i, authority := range authorities {
		keys[i] = authority
	}

	err = depositLog(e, types.NewDigestItem(keys))
	if err != nil {
		return err
	}
	return e.delete(keyAuthoritiesChanged)
}
