// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"errors"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
)

var keySudoKey = common.StorageKey("Sudo", "Key")

// Sudo events
const (
	EventSudid uint8 = iota
	EventKeyChanged
)

var errRequireSudo = newModuleError(0, "sender must be the sudo key")

type sudo struct{}

func (sudo) name() string { return "Sudo" }

func (sudo) calls() []call {
	return []call{
		{name: "sudo", dispatch: sudoSudo},
		{name: "set_key", dispatch: sudoSetKey},
	}
}

func ensureSudo(e *env, o origin) error {
	signer, err := o.ensureSigned()
	if err != nil {
		return err
	}
	var key types.AccountID
	ok, err := e.get(keySudoKey, &key)
	if err != nil {
		return err
	}
	if !ok || key != signer {
		return errRequireSudo
	}
	return nil
}

// sudoSudo dispatches the inner call with the root origin. The outcome of
// the inner call is reported in a Sudid event; its changes are rolled back
// if it fails.
func sudoSudo(e *env, o origin, args []byte) error {
	err := ensureSudo(e, o)
	if err != nil {
		return err
	}
	var inner types.Call
	err = decodeArgs(args, &inner)
	if err != nil {
		return err
	}

	err = e.transactional(func() error {
		return dispatch(e, origin{kind: originRoot}, inner)
	})
	var modErr *moduleError
	switch {
	case err == nil:
		return depositEvent(e, SudoModule, EventSudid, true)
	case errors.As(err, &modErr), errors.Is(err, errUnknownCall):
		return depositEvent(e, SudoModule, EventSudid, false)
	default:
		return err
	}
}

func sudoSetKey(e *env, o origin, args []byte) error {
	err := ensureSudo(e, o)
	if err != nil {
		return err
	}
	var key types.AccountID
	err = decodeArgs(args, &key)
	if err != nil {
		return err
	}

	old, err := getOr(e, keySudoKey, types.AccountID{})
	if err != nil {
		return err
	}
	err = e.put(keySudoKey, key)
	if err != nil {
		return err
	}
	return depositEvent(e, SudoModule, EventKeyChanged, old)
}
