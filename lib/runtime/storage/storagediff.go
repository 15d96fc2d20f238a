// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package storage

import (
	"maps"
)

// storageDiff is a set of pending writes. A key is either upserted,
// deleted, or untouched.
type storageDiff struct {
	upserts map[string][]byte
	deletes map[string]bool
}

func newStorageDiff() *storageDiff {
	return &storageDiff{
		upserts: make(map[string][]byte),
		deletes: make(map[string]bool),
	}
}

// get returns the pending value of key, and whether the key is pending
// deletion. A nil value and false means the diff does not know the key.
func (cs *storageDiff) get(key string) ([]byte, bool) {
	// Check in recent upserts if not found check if we want to delete it
	if val, ok := cs.upserts[key]; ok {
		return val, false
	} else if deleted := cs.deletes[key]; deleted {
		return nil, true
	}

	return nil, false
}

func (cs *storageDiff) upsert(key string, value []byte) {
	// If we previously deleted this key we have to undo that deletion
	delete(cs.deletes, key)
	cs.upserts[key] = value
}

func (cs *storageDiff) delete(key string) {
	delete(cs.upserts, key)
	cs.deletes[key] = true
}

// mergeFrom applies the changes of other on top of the receiver.
func (cs *storageDiff) mergeFrom(other *storageDiff) {
	for k := range other.deletes {
		cs.delete(k)
	}
	for k, v := range other.upserts {
		cs.upsert(k, v)
	}
}

func (cs *storageDiff) isEmpty() bool {
	return len(cs.upserts) == 0 && len(cs.deletes) == 0
}

func (cs *storageDiff) snapshot() *storageDiff {
	return &storageDiff{
		upserts: maps.Clone(cs.upserts),
		deletes: maps.Clone(cs.deletes),
	}
}
