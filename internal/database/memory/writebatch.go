// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package memory

import "github.com/ChainSafe/rtapi/internal/database"

type operation struct {
	key   string
	value []byte
	// deleted is true for a delete operation.
	deleted bool
}

// writeBatch records operations and applies them in order on Flush.
type writeBatch struct {
	prefix     string
	database   *Database
	operations []operation
}

func newWriteBatch(prefix string, db *Database) *writeBatch {
	return &writeBatch{prefix: prefix, database: db}
}

func (wb *writeBatch) Set(key, value []byte) error {
	wb.operations = append(wb.operations, operation{
		key:   wb.prefix + string(key),
		value: copyBytes(value),
	})
	return nil
}

func (wb *writeBatch) Delete(key []byte) error {
	wb.operations = append(wb.operations, operation{
		key:     wb.prefix + string(key),
		deleted: true,
	})
	return nil
}

// Flush applies the operations atomically.
func (wb *writeBatch) Flush() error {
	db := wb.database
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if db.closed {
		return database.ErrClosed
	}

	for _, op := range wb.operations {
		if op.deleted {
			delete(db.keyValues, op.key)
			continue
		}
		db.keyValues[op.key] = op.value
	}
	wb.operations = nil
	return nil
}

func (wb *writeBatch) Cancel() {
	wb.operations = nil
}
