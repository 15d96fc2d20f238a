// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"context"

	"github.com/ChainSafe/rtapi/lib/common"
)

// Trie storage interface.
type Trie interface {
	Root() (common.Hash, error)
	Put(key []byte, value []byte) (err error)
	Get(key []byte) ([]byte, error)
	Delete(key []byte) (err error)
	NextKey(key []byte) ([]byte, error)
	ClearPrefix(prefix []byte) (err error)
}

// Transactional storage interface.
type Transactional interface {
	StartTransaction()
	CommitTransaction()
	RollbackTransaction()
}

// Storage is the state a runtime call reads and writes.
type Storage interface {
	Trie
	Transactional
}

// Executor executes runtime calls. Each call is an isolated crossing of
// the runtime boundary: the runtime only sees the storage it is given
// and the encoded arguments.
type Executor interface {
	Call(ctx context.Context, s Storage, function string, args []byte) ([]byte, error)
}
