// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package memory provides an in-memory database implementation.
package memory

import (
	"fmt"
	"sync"

	"github.com/ChainSafe/rtapi/internal/database"
)

var _ database.Database = (*Database)(nil)

// Database is an in-memory database implementation.
type Database struct {
	closed    bool
	keyValues map[string][]byte
	mutex     sync.RWMutex
}

// New returns a new in-memory database.
func New() *Database {
	return &Database{keyValues: make(map[string][]byte)}
}

// Get returns a copy of the value at key. It returns an error wrapping
// database.ErrKeyNotFound if the key is not set.
func (db *Database) Get(key []byte) (value []byte, err error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	if db.closed {
		return nil, database.ErrClosed
	}

	value, ok := db.keyValues[string(key)]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", database.ErrKeyNotFound, key)
	}
	return copyBytes(value), nil
}

// Set sets a copy of the value at key.
func (db *Database) Set(key, value []byte) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if db.closed {
		return database.ErrClosed
	}

	db.keyValues[string(key)] = copyBytes(value)
	return nil
}

// Delete deletes the key.
func (db *Database) Delete(key []byte) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if db.closed {
		return database.ErrClosed
	}

	delete(db.keyValues, string(key))
	return nil
}

// NewWriteBatch returns a new write batch for the database.
func (db *Database) NewWriteBatch() database.WriteBatch {
	return newWriteBatch("", db)
}

// NewTable returns a view of the database with all keys prefixed by prefix.
func (db *Database) NewTable(prefix string) database.Table {
	return &table{prefix: prefix, database: db}
}

// DropAll deletes all the data of the database.
func (db *Database) DropAll() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if db.closed {
		return database.ErrClosed
	}

	db.keyValues = make(map[string][]byte)
	return nil
}

// Close closes the database and drops its data.
func (db *Database) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.closed = true
	db.keyValues = nil
	return nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	bCopy := make([]byte, len(b))
	copy(bCopy, b)
	return bCopy
}
