// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"encoding/binary"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// randomMaterialLength is the number of parent hashes the random seed is
// computed from.
const randomMaterialLength = 81

var (
	keyPhase          = []byte(":phase")
	keyNumber         = common.StorageKey("System", "Number")
	keyParentHash     = common.StorageKey("System", "ParentHash")
	keyDigest         = common.StorageKey("System", "Digest")
	keyExtrinsics     = common.StorageKey("System", "ExtrinsicData")
	keyEvents         = common.StorageKey("System", "Events")
	keyRandomMaterial = common.StorageKey("System", "RandomMaterial")
)

// AccountNonceKey returns the storage key of the nonce of an account.
func AccountNonceKey(who types.AccountID) []byte {
	return common.StorageMapKey("System", "AccountNonce", who[:])
}

func blockHashKey(number uint64) []byte {
	var enc [8]byte
	binary.LittleEndian.PutUint64(enc[:], number)
	return common.StorageMapKey("System", "BlockHash", enc[:])
}

// phase is the block execution phase.
type phase uint8

const (
	phaseUninitialised phase = iota
	phaseInitialised
	phaseApplying
)

// System events
const (
	EventExtrinsicSuccess uint8 = iota
	EventExtrinsicFailed
	EventRemarked
)

// EventRecord is an event deposited during block execution. Events of a
// block are kept in storage until the next block is initialised.
type EventRecord struct {
	// Extrinsic is the index of the extrinsic which deposited the event,
	// or math.MaxUint32 for events deposited by lifecycle hooks.
	Extrinsic uint32
	Module    uint8
	Event     uint8
	Data      []byte
}

// KeyValue is a storage entry.
type KeyValue struct {
	Key   []byte
	Value []byte
}

type system struct{}

func (system) name() string { return "System" }

func (system) calls() []call {
	return []call{
		{name: "remark", dispatch: systemRemark},
		{name: "set_storage", dispatch: systemSetStorage},
		{name: "set_code", dispatch: systemSetCode},
	}
}

func systemRemark(e *env, _ origin, args []byte) error {
	var remark []byte
	err := decodeArgs(args, &remark)
	if err != nil {
		return err
	}
	hash, err := common.Blake2bHash(remark)
	if err != nil {
		return err
	}
	return depositEvent(e, SystemModule, EventRemarked, hash)
}

func systemSetStorage(e *env, o origin, args []byte) error {
	err := o.ensureRoot()
	if err != nil {
		return err
	}
	var items []KeyValue
	err = decodeArgs(args, &items)
	if err != nil {
		return err
	}
	for _, item := range items {
		err = e.storage.Put(item.Key, item.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func systemSetCode(e *env, o origin, args []byte) error {
	err := o.ensureRoot()
	if err != nil {
		return err
	}
	var code []byte
	err = decodeArgs(args, &code)
	if err != nil {
		return err
	}
	return e.storage.Put(common.CodeKey, code)
}

func (system) onReap(e *env, who types.AccountID) error {
	return e.delete(AccountNonceKey(who))
}

func currentPhase(e *env) (phase, error) {
	return getOr(e, keyPhase, phaseUninitialised)
}

func blockNumber(e *env) (uint64, error) {
	return getOr(e, keyNumber, uint64(0))
}

func accountNonce(e *env, who types.AccountID) (uint64, error) {
	return getOr(e, AccountNonceKey(who), uint64(0))
}

func incAccountNonce(e *env, who types.AccountID) error {
	nonce, err := accountNonce(e, who)
	if err != nil {
		return err
	}
	return e.put(AccountNonceKey(who), nonce+1)
}

// depositEvent appends an event to the events of the block. data is SCALE
// encoded.
func depositEvent(e *env, module, event uint8, data any) error {
	record := EventRecord{
		Extrinsic: e.extrinsic,
		Module:    module,
		Event:     event,
		Data:      []byte{},
	}
	if data != nil {
		enc, err := scale.Marshal(data)
		if err != nil {
			return err
		}
		record.Data = enc
	}

	events, err := getOr(e, keyEvents, []EventRecord{})
	if err != nil {
		return err
	}
	return e.put(keyEvents, append(events, record))
}

// depositLog appends an item to the digest of the block.
func depositLog(e *env, item types.DigestItem) error {
	digest, err := getOr(e, keyDigest, types.NewDigest())
	if err != nil {
		return err
	}
	digest.Add(item)
	return e.put(keyDigest, digest)
}

// events returns the events deposited by the last executed block.
func events(e *env) ([]EventRecord, error) {
	return getOr(e, keyEvents, []EventRecord{})
}

// noteParentHash records the parent hash in the block hash history and
// the random material ring.
func noteParentHash(e *env, number uint64, parent common.Hash) error {
	if number > 0 {
		err := e.put(blockHashKey(number-1), parent)
		if err != nil {
			return err
		}
	}

	material, err := getOr(e, keyRandomMaterial, []common.Hash{})
	if err != nil {
		return err
	}
	material = append(material, parent)
	if len(material) > randomMaterialLength {
		material = material[len(material)-randomMaterialLength:]
	}
	return e.put(keyRandomMaterial, material)
}
