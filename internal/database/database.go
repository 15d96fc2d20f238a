// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package database defines the key value store the chain state is kept in.
package database

import "errors"

var (
	// ErrKeyNotFound is returned by Get when the key is not set.
	ErrKeyNotFound = errors.New("key not found")
	// ErrClosed is returned when operating on a closed database.
	ErrClosed = errors.New("database closed")
)

// Reader reads values by key.
type Reader interface {
	// Get returns the value at key, or an error wrapping
	// ErrKeyNotFound if the key is not set.
	Get(key []byte) (value []byte, err error)
}

// Writer writes values by key.
type Writer interface {
	Set(key, value []byte) error
	// Delete deletes the key. Deleting a key not set is not an error.
	Delete(key []byte) error
}

// WriteBatch buffers writes until Flush writes them at once.
// It is not safe for concurrent use.
type WriteBatch interface {
	Writer
	Flush() error
	Cancel()
}

// Table is a view of the database where all keys are prefixed.
type Table interface {
	Reader
	Writer
	NewWriteBatch() WriteBatch
}

// Database is a key value store. All methods are safe for concurrent use.
type Database interface {
	Reader
	Writer
	NewWriteBatch() WriteBatch
	NewTable(prefix string) Table
	DropAll() error
	Close() error
}

// PrefixedKey returns a new slice holding the prefix followed by the key.
func PrefixedKey(prefix, key []byte) []byte {
	// appending to prefix directly could write into its spare capacity
	prefixed := make([]byte, 0, len(prefix)+len(key))
	prefixed = append(prefixed, prefix...)
	return append(prefixed, key...)
}
