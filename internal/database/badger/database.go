// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package badger provides a database implementation using badger v3.
package badger

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/internal/database"
	badger "github.com/dgraph-io/badger/v3"
)

var _ database.Database = (*Database)(nil)

// Database is a database implementation using a badger/v3 database.
type Database struct {
	badgerDatabase *badger.DB
}

// New opens the badger database described by the settings.
func New(settings Settings) (db *Database, err error) {
	settings.SetDefaults()
	err = settings.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}

	options := badger.DefaultOptions(settings.Path).
		WithLogger(nil).
		WithInMemory(*settings.InMemory)
	if *settings.InMemory {
		options = options.WithDir("").WithValueDir("")
	}

	badgerDatabase, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return &Database{badgerDatabase: badgerDatabase}, nil
}

// Get returns the value at key. It returns an error wrapping
// database.ErrKeyNotFound if the key is not set.
func (db *Database) Get(key []byte) (value []byte, err error) {
	err = db.badgerDatabase.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copying value: %w", err)
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: 0x%x", database.ErrKeyNotFound, key)
	}
	return value, transformError(err)
}

// Set sets the value at key.
func (db *Database) Set(key, value []byte) error {
	err := db.badgerDatabase.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return transformError(err)
}

// Delete deletes the key.
func (db *Database) Delete(key []byte) error {
	err := db.badgerDatabase.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	return transformError(err)
}

// NewWriteBatch returns a new write batch for the database.
func (db *Database) NewWriteBatch() database.WriteBatch {
	return newWriteBatch(nil, db.badgerDatabase.NewWriteBatch())
}

// NewTable returns a view of the database with all keys prefixed by prefix.
func (db *Database) NewTable(prefix string) database.Table {
	return &table{prefix: []byte(prefix), database: db}
}

// DropAll deletes all the data of the database.
func (db *Database) DropAll() error {
	return transformError(db.badgerDatabase.DropAll())
}

// Close closes the database.
func (db *Database) Close() error {
	return transformError(db.badgerDatabase.Close())
}

// transformError wraps badger errors having a database package equivalent.
func transformError(badgerErr error) error {
	if errors.Is(badgerErr, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %w", database.ErrClosed, badgerErr)
	}
	return badgerErr
}
