// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package remote

import (
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// Operations of runtime messages. Every operation but opResult is a
// storage request answered by the host.
const (
	opResult uint8 = iota
	opGet
	opPut
	opDelete
	opNextKey
	opClearPrefix
	opRoot
	opStartTransaction
	opCommitTransaction
	opRollbackTransaction
)

// Status of a call result.
const (
	statusOK uint8 = iota
	statusCallError
	statusUnknownFunction
	statusUnavailable
)

// hostMessage is sent by the host. The first message of a stream names the
// call; the following ones answer the storage requests of the runtime.
type hostMessage struct {
	Function string
	Args     []byte
	Value    scale.Option[[]byte]
	Root     common.Hash
	Err      string
}

// runtimeMessage is sent by the runtime: storage requests while the call
// executes, then the result.
type runtimeMessage struct {
	Op      uint8
	Key     []byte
	Value   []byte
	Status  uint8
	Code    uint8
	Message string
}

// remoteError is an error reported by the other side of the stream. It
// keeps the reported message and wraps the matching local error.
type remoteError struct {
	err     error
	message string
}

func (e *remoteError) Error() string {
	return e.message
}

func (e *remoteError) Unwrap() error {
	return e.err
}
