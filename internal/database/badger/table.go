// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package badger

import (
	"github.com/ChainSafe/rtapi/internal/database"
)

type table struct {
	prefix   []byte
	database *Database
}

func (t *table) Get(key []byte) ([]byte, error) {
	return t.database.Get(database.PrefixedKey(t.prefix, key))
}

func (t *table) Set(key, value []byte) error {
	return t.database.Set(database.PrefixedKey(t.prefix, key), value)
}

func (t *table) Delete(key []byte) error {
	return t.database.Delete(database.PrefixedKey(t.prefix, key))
}

func (t *table) NewWriteBatch() database.WriteBatch {
	return newWriteBatch(t.prefix, t.database.badgerDatabase.NewWriteBatch())
}
