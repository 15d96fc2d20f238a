// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// Module indices. The registry order is the order lifecycle hooks run
// in, and the order reap hooks are called in when an account is removed.
const (
	SystemModule uint8 = iota
	TimestampModule
	ConsensusModule
	BalancesModule
	GrandpaModule
	SudoModule
)

var modules = []module{
	system{},
	timestamp{},
	consensus{},
	balances{},
	grandpa{},
	sudo{},
}

type module interface {
	name() string
	// calls are indexed by call index.
	calls() []call
}

type initialiser interface {
	onInitialise(e *env, number uint64) error
}

type finaliser interface {
	onFinalise(e *env, number uint64) error
}

type reaper interface {
	onReap(e *env, who types.AccountID) error
}

type call struct {
	name     string
	dispatch func(e *env, o origin, args []byte) error
}

type originKind uint8

const (
	originNone originKind = iota
	originSigned
	originRoot
)

// origin is the origin of a dispatched call.
type origin struct {
	kind   originKind
	signer types.AccountID
}

func signedOrigin(signer types.AccountID) origin {
	return origin{kind: originSigned, signer: signer}
}

func (o origin) ensureSigned() (types.AccountID, error) {
	if o.kind != originSigned {
		return types.AccountID{}, errBadOrigin
	}
	return o.signer, nil
}

func (o origin) ensureRoot() error {
	if o.kind != originRoot {
		return errBadOrigin
	}
	return nil
}

func (o origin) ensureNone() error {
	if o.kind != originNone {
		return errBadOrigin
	}
	return nil
}

// moduleError is an error of a dispatched call. The executive reports it
// as a dispatch error of the extrinsic.
type moduleError struct {
	code    uint8
	message string
}

func newModuleError(code uint8, message string) *moduleError {
	return &moduleError{code: code, message: message}
}

func (e *moduleError) Error() string {
	return e.message
}

var (
	errBadOrigin   = newModuleError(255, "bad origin")
	errBadCallArgs = newModuleError(254, "cannot decode call arguments")
)

var errUnknownCall = errors.New("unknown call")

func lookupCall(c types.Call) (call, error) {
	if int(c.Module) >= len(modules) {
		return call{}, fmt.Errorf("%w: module %d", errUnknownCall, c.Module)
	}
	calls := modules[c.Module].calls()
	if int(c.Function) >= len(calls) {
		return call{}, fmt.Errorf("%w: %s call %d", errUnknownCall, modules[c.Module].name(), c.Function)
	}
	return calls[c.Function], nil
}

func dispatch(e *env, o origin, c types.Call) error {
	handler, err := lookupCall(c)
	if err != nil {
		return err
	}
	return handler.dispatch(e, o, c.Args)
}

// decodeArgs decodes call arguments, reporting failures as a dispatch error.
func decodeArgs(args []byte, dst any) error {
	err := scale.Unmarshal(args, dst)
	if err != nil {
		return errBadCallArgs
	}
	return nil
}

func onInitialise(e *env, number uint64) error {
	for _, m := range modules {
		hook, ok := m.(initialiser)
		if !ok {
			continue
		}
		err := hook.onInitialise(e, number)
		if err != nil {
			return fmt.Errorf("initialising %s: %w", m.name(), err)
		}
	}
	return nil
}

func onFinalise(e *env, number uint64) error {
	for _, m := range modules {
		hook, ok := m.(finaliser)
		if !ok {
			continue
		}
		err := hook.onFinalise(e, number)
		if err != nil {
			return fmt.Errorf("finalising %s: %w", m.name(), err)
		}
	}
	return nil
}

func onReap(e *env, who types.AccountID) error {
	for _, m := range modules {
		hook, ok := m.(reaper)
		if !ok {
			continue
		}
		err := hook.onReap(e, who)
		if err != nil {
			return fmt.Errorf("reaping %s in %s: %w", who, m.name(), err)
		}
	}
	return nil
}

// ModuleMetadata describes a module of the runtime.
type ModuleMetadata struct {
	Name  string
	Calls []string
}

// Metadata returns the metadata of the runtime modules in registry order.
func Metadata() []ModuleMetadata {
	metadata := make([]ModuleMetadata, len(modules))
	for i, m := range modules {
		calls := m.calls()
		names := make([]string, len(calls))
		for j, c := range calls {
			names[j] = c.name
		}
		metadata[i] = ModuleMetadata{Name: m.name(), Calls: names}
	}
	return metadata
}
