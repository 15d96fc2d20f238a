// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package badger

import (
	"github.com/ChainSafe/rtapi/internal/database"
	badger "github.com/dgraph-io/badger/v3"
)

// writeBatch prefixes the keys it writes to a badger write batch.
type writeBatch struct {
	prefix           []byte
	badgerWriteBatch *badger.WriteBatch
}

func newWriteBatch(prefix []byte, badgerWriteBatch *badger.WriteBatch) *writeBatch {
	return &writeBatch{prefix: prefix, badgerWriteBatch: badgerWriteBatch}
}

func (wb *writeBatch) Set(key, value []byte) error {
	return wb.badgerWriteBatch.Set(database.PrefixedKey(wb.prefix, key), value)
}

func (wb *writeBatch) Delete(key []byte) error {
	return wb.badgerWriteBatch.Delete(database.PrefixedKey(wb.prefix, key))
}

func (wb *writeBatch) Flush() error {
	return transformError(wb.badgerWriteBatch.Flush())
}

func (wb *writeBatch) Cancel() {
	wb.badgerWriteBatch.Cancel()
}
