// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package storage

import (
	"bytes"
	"container/list"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ChainSafe/rtapi/lib/common"
)

// Overlay layers pending writes over a read only Backend. Writes made by
// runtime calls go to the prospective changes, a stack of nested storage
// transactions. CommitProspective moves them into the committed changes,
// DiscardProspective drops them. The backend is never written to.
//
// An Overlay belongs to one logical transaction at a time.
type Overlay struct {
	mtx          sync.RWMutex
	base         Backend
	committed    *storageDiff
	transactions *list.List
}

// NewOverlay returns an overlay without pending changes over base.
func NewOverlay(base Backend) *Overlay {
	transactions := list.New()
	transactions.PushBack(newStorageDiff())
	return &Overlay{
		base:         base,
		committed:    newStorageDiff(),
		transactions: transactions,
	}
}

// SetBase sets the backend the overlay reads through to.
func (o *Overlay) SetBase(base Backend) {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	o.base = base
}

func (o *Overlay) current() *storageDiff {
	return o.transactions.Back().Value.(*storageDiff)
}

// StartTransaction begins a new nested storage transaction
// which will either be committed or rolled back at a later time.
func (o *Overlay) StartTransaction() {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.transactions.PushBack(newStorageDiff())
}

// RollbackTransaction rolls back all storage changes made since StartTransaction was called.
func (o *Overlay) RollbackTransaction() {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if o.transactions.Len() <= 1 {
		panic("no transactions to rollback")
	}

	o.transactions.Remove(o.transactions.Back())
}

// CommitTransaction commits all storage changes made since StartTransaction was called.
func (o *Overlay) CommitTransaction() {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if o.transactions.Len() <= 1 {
		panic("no transactions to commit")
	}

	top := o.transactions.Remove(o.transactions.Back()).(*storageDiff)
	o.current().mergeFrom(top)
}

// TransactionDepth returns the number of open nested transactions.
func (o *Overlay) TransactionDepth() int {
	o.mtx.RLock()
	defer o.mtx.RUnlock()

	return o.transactions.Len() - 1
}

// RollbackTo rolls back the nested transactions opened above depth,
// including any left open by the runtime.
func (o *Overlay) RollbackTo(depth int) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if depth < 0 || depth >= o.transactions.Len() {
		panic(fmt.Sprintf("cannot rollback to transaction depth %d of %d", depth, o.transactions.Len()-1))
	}
	for o.transactions.Len()-1 > depth {
		o.transactions.Remove(o.transactions.Back())
	}
}

// CommitTo commits the nested transactions opened above depth, including
// any left open by the runtime, into the transaction at depth.
func (o *Overlay) CommitTo(depth int) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if depth < 0 || depth >= o.transactions.Len() {
		panic(fmt.Sprintf("cannot commit to transaction depth %d of %d", depth, o.transactions.Len()-1))
	}
	for o.transactions.Len()-1 > depth {
		top := o.transactions.Remove(o.transactions.Back()).(*storageDiff)
		o.current().mergeFrom(top)
	}
}

// CommitProspective merges all prospective changes, including open nested
// transactions, into the committed changes.
func (o *Overlay) CommitProspective() {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	for e := o.transactions.Front(); e != nil; e = e.Next() {
		o.committed.mergeFrom(e.Value.(*storageDiff))
	}
	o.resetProspective()
}

// DiscardProspective drops all prospective changes.
func (o *Overlay) DiscardProspective() {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.resetProspective()
}

func (o *Overlay) resetProspective() {
	o.transactions.Init()
	o.transactions.PushBack(newStorageDiff())
}

// HasProspective returns true if there are uncommitted changes.
func (o *Overlay) HasProspective() bool {
	o.mtx.RLock()
	defer o.mtx.RUnlock()

	for e := o.transactions.Front(); e != nil; e = e.Next() {
		if !e.Value.(*storageDiff).isEmpty() {
			return true
		}
	}
	return false
}

// Get returns the value of key: prospective changes first, from the
// innermost transaction out, then committed changes, then the backend.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mtx.RLock()
	defer o.mtx.RUnlock()

	return o.get(string(key))
}

func (o *Overlay) get(key string) ([]byte, error) {
	for e := o.transactions.Back(); e != nil; e = e.Prev() {
		val, deleted := e.Value.(*storageDiff).get(key)
		if deleted {
			return nil, nil
		}
		if val != nil {
			return val, nil
		}
	}

	val, deleted := o.committed.get(key)
	if deleted {
		return nil, nil
	}
	if val != nil {
		return val, nil
	}

	if o.base == nil {
		return nil, nil
	}
	val, err := o.base.Get([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("reading backend: %w", err)
	}
	return val, nil
}

// Put puts a key-value pair in the current transaction
func (o *Overlay) Put(key, value []byte) error {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if value == nil {
		value = []byte{}
	}
	o.current().upsert(string(key), bytes.Clone(value))
	return nil
}

// Delete deletes a key in the current transaction
func (o *Overlay) Delete(key []byte) error {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.current().delete(string(key))
	return nil
}

// ClearPrefix deletes all the keys starting with prefix
func (o *Overlay) ClearPrefix(prefix []byte) error {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	entries, err := o.entries()
	if err != nil {
		return err
	}

	current := o.current()
	for k := range entries {
		if strings.HasPrefix(k, string(prefix)) {
			current.delete(k)
		}
	}
	return nil
}

// NextKey returns the smallest key strictly greater than key, or nil.
func (o *Overlay) NextKey(key []byte) ([]byte, error) {
	o.mtx.RLock()
	defer o.mtx.RUnlock()

	entries, err := o.entries()
	if err != nil {
		return nil, err
	}

	var next []byte
	for k := range entries {
		kb := []byte(k)
		if bytes.Compare(kb, key) <= 0 {
			continue
		}
		if next == nil || bytes.Compare(kb, next) < 0 {
			next = kb
		}
	}
	return next, nil
}

// Entries returns the merged view of the backend and all the changes.
func (o *Overlay) Entries() (map[string][]byte, error) {
	o.mtx.RLock()
	defer o.mtx.RUnlock()

	return o.entries()
}

func (o *Overlay) entries() (map[string][]byte, error) {
	entries := make(map[string][]byte)
	if o.base != nil {
		var err error
		entries, err = o.base.Entries()
		if err != nil {
			return nil, fmt.Errorf("reading backend entries: %w", err)
		}
	}

	apply := func(cs *storageDiff) {
		for k := range cs.deletes {
			delete(entries, k)
		}
		for k, v := range cs.upserts {
			entries[k] = v
		}
	}

	apply(o.committed)
	for e := o.transactions.Front(); e != nil; e = e.Next() {
		apply(e.Value.(*storageDiff))
	}
	return entries, nil
}

// Root returns the state root of the merged view.
func (o *Overlay) Root() (common.Hash, error) {
	entries, err := o.Entries()
	if err != nil {
		return common.Hash{}, err
	}
	return StateRoot(entries)
}

// Changes returns the committed changes sorted by key.
func (o *Overlay) Changes() []Change {
	o.mtx.RLock()
	defer o.mtx.RUnlock()

	cs := o.committed.snapshot()
	changes := make([]Change, 0, len(cs.upserts)+len(cs.deletes))
	for k, v := range cs.upserts {
		changes = append(changes, Change{Key: []byte(k), Value: v})
	}
	for k := range cs.deletes {
		changes = append(changes, Change{Key: []byte(k), Deleted: true})
	}
	sort.Slice(changes, func(i, j int) bool {
		return bytes.Compare(changes[i].Key, changes[j].Key) < 0
	})
	return changes
}

// ResetCommitted drops the committed changes, typically after the host
// persisted them.
func (o *Overlay) ResetCommitted() {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.committed = newStorageDiff()
}
