// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"context"
	"fmt"
	"math"

	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// noExtrinsic is the extrinsic index of events deposited outside of
// extrinsic application.
const noExtrinsic = math.MaxUint32

// env is the execution environment of one runtime call.
type env struct {
	ctx     context.Context
	storage runtime.Storage
	// extrinsic is the index of the extrinsic being applied.
	extrinsic uint32
}

func newEnv(ctx context.Context, s runtime.Storage) *env {
	return &env{
		ctx:       ctx,
		storage:   s,
		extrinsic: noExtrinsic,
	}
}

// get decodes the value stored at key into dst, and returns false if
// there is no value.
func (e *env) get(key []byte, dst any) (bool, error) {
	enc, err := e.storage.Get(key)
	if err != nil {
		return false, err
	}
	if enc == nil {
		return false, nil
	}
	err = scale.Unmarshal(enc, dst)
	if err != nil {
		return true, fmt.Errorf("decoding value at 0x%x: %w", key, err)
	}
	return true, nil
}

func (e *env) put(key []byte, value any) error {
	enc, err := scale.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value at 0x%x: %w", key, err)
	}
	return e.storage.Put(key, enc)
}

func (e *env) delete(keys ...[]byte) error {
	for _, key := range keys {
		err := e.storage.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}

// getOr returns the value stored at key, or def if there is none.
func getOr[T any](e *env, key []byte, def T) (T, error) {
	var value T
	ok, err := e.get(key, &value)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return value, nil
}

// transactional runs fn in a nested storage transaction, which is
// committed if fn succeeds and rolled back otherwise.
func (e *env) transactional(fn func() error) error {
	e.storage.StartTransaction()
	err := fn()
	if err != nil {
		e.storage.RollbackTransaction()
		return err
	}
	e.storage.CommitTransaction()
	return nil
}
