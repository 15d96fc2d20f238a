// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package storage

import (
	"maps"
	"sort"
	"sync"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// Backend is a read only committed state snapshot an Overlay is layered on.
type Backend interface {
	// Get returns the value of key, or nil if the key is not set.
	Get(key []byte) ([]byte, error)
	// Entries returns all the key value pairs of the snapshot.
	Entries() (map[string][]byte, error)
}

// Change is one committed write. Deleted changes have a nil value.
type Change struct {
	Key     []byte
	Value   []byte
	Deleted bool
}

// MemoryBackend is a Backend holding its entries in memory.
type MemoryBackend struct {
	mtx     sync.RWMutex
	entries map[string][]byte
}

// NewMemoryBackend returns a backend holding a copy of entries.
func NewMemoryBackend(entries map[string][]byte) *MemoryBackend {
	if entries == nil {
		entries = make(map[string][]byte)
	}
	return &MemoryBackend{entries: maps.Clone(entries)}
}

// Get returns the value of key, or nil if the key is not set.
func (m *MemoryBackend) Get(key []byte) ([]byte, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.entries[string(key)], nil
}

// Entries returns a copy of all the entries.
func (m *MemoryBackend) Entries() (map[string][]byte, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return maps.Clone(m.entries), nil
}

// Apply returns a new backend with the changes applied on top of the receiver.
func (m *MemoryBackend) Apply(changes []Change) *MemoryBackend {
	m.mtx.RLock()
	entries := maps.Clone(m.entries)
	m.mtx.RUnlock()

	for _, change := range changes {
		if change.Deleted {
			delete(entries, string(change.Key))
			continue
		}
		entries[string(change.Key)] = change.Value
	}
	return &MemoryBackend{entries: entries}
}

type keyValue struct {
	Key   []byte
	Value []byte
}

// StateRoot returns the blake2b hash of the SCALE encoded key value pairs
// sorted by key.
func StateRoot(entries map[string][]byte) (common.Hash, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]keyValue, len(keys))
	for i, k := range keys {
		kvs[i] = keyValue{Key: []byte(k), Value: entries[k]}
	}

	enc, err := scale.Marshal(kvs)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2bHash(enc)
}
