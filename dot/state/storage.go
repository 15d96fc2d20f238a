// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/database"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

const storagePrefix = "storage"

var (
	// ErrBadStateRoot is returned when importing a block whose header does
	// not commit to its post state.
	ErrBadStateRoot = errors.New("bad state root")
	// ErrBadBlockNumber is returned when adding a block whose number does
	// not follow its parent number.
	ErrBadBlockNumber = errors.New("bad block number")
)

type keyValue struct {
	Key   []byte
	Value []byte
}

// StorageState stores the full post state of every block, keyed by block hash.
type StorageState struct {
	db         database.Table
	blockState *BlockState
}

// NewStorageState returns the storage state stored in the database.
func NewStorageState(db database.Database, blockState *BlockState) *StorageState {
	return &StorageState{
		db:         db.NewTable(storagePrefix),
		blockState: blockState,
	}
}

// StateAt returns the post state of the block the id refers to.
func (s *StorageState) StateAt(id types.BlockID) (storage.Backend, error) {
	hash, err := s.blockState.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", id, err)
	}
	return s.stateAt(hash)
}

func (s *StorageState) stateAt(hash common.Hash) (*storage.MemoryBackend, error) {
	entries, err := s.entries(hash)
	if err != nil {
		return nil, err
	}
	return storage.NewMemoryBackend(entries), nil
}

func (s *StorageState) entries(hash common.Hash) (map[string][]byte, error) {
	enc, err := s.db.Get(hash[:])
	if err != nil {
		return nil, fmt.Errorf("getting state of %s: %w", hash, err)
	}
	var kvs []keyValue
	err = scale.Unmarshal(enc, &kvs)
	if err != nil {
		return nil, fmt.Errorf("decoding state of %s: %w", hash, err)
	}
	entries := make(map[string][]byte, len(kvs))
	for _, kv := range kvs {
		entries[string(kv.Key)] = kv.Value
	}
	return entries, nil
}

// GetStorage returns the value of key in the post state of the block, or
// nil if the key is not set.
func (s *StorageState) GetStorage(id types.BlockID, key []byte) ([]byte, error) {
	backend, err := s.StateAt(id)
	if err != nil {
		return nil, err
	}
	return backend.Get(key)
}

// StoreChanges stores the state of the block as the changes applied to the
// parent state, and returns its root.
func (s *StorageState) StoreChanges(parent, hash common.Hash, changes []storage.Change) (common.Hash, error) {
	parentState, err := s.stateAt(parent)
	if err != nil {
		return common.Hash{}, err
	}
	entries, err := parentState.Apply(changes).Entries()
	if err != nil {
		return common.Hash{}, err
	}
	root, err := storage.StateRoot(entries)
	if err != nil {
		return common.Hash{}, err
	}
	return root, s.storeEntries(hash, entries)
}

func (s *StorageState) storeEntries(hash common.Hash, entries map[string][]byte) error {
	kvs := make([]keyValue, 0, len(entries))
	for key, value := range entries {
		kvs = append(kvs, keyValue{Key: []byte(key), Value: value})
	}
	sort.Slice(kvs, func(i, j int) bool {
		return bytes.Compare(kvs[i].Key, kvs[j].Key) < 0
	})
	enc, err := scale.Marshal(kvs)
	if err != nil {
		return err
	}
	return s.db.Set(hash[:], enc)
}
