// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"google.golang.org/grpc"
)

var errNoTransaction = errors.New("no storage transaction opened by this call")

// Executor executes runtime calls on a remote server. It answers the
// storage requests of the runtime from the storage given to Call.
type Executor struct {
	cc *grpc.ClientConn
}

var _ runtime.Executor = (*Executor)(nil)

// Dial connects to a remote runtime server.
func Dial(target string, opts ...grpc.DialOption) (*Executor, error) {
	opts = append([]grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	}, opts...)

	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to runtime at %s: %w", target, err)
	}
	return NewExecutor(cc), nil
}

// NewExecutor returns an executor calling through an existing connection.
func NewExecutor(cc *grpc.ClientConn) *Executor {
	return &Executor{cc: cc}
}

// Close closes the connection.
func (x *Executor) Close() error {
	return x.cc.Close()
}

// Call executes the runtime function on the server. Transport failures are
// reported as the instance being unavailable. The runtime may only commit or
// roll back storage transactions it opened during the call; transactions
// it leaves open stay open on s.
func (x *Executor) Call(ctx context.Context, s runtime.Storage, function string, args []byte) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := x.cc.NewStream(ctx, &callStreamDesc, fullMethod(callMethod), grpc.ForceCodec(Codec{}))
	if err != nil {
		return nil, fmt.Errorf("%w: opening call stream: %w", runtime.ErrInstanceUnavailable, err)
	}
	err = stream.SendMsg(&hostMessage{Function: function, Args: args})
	if err != nil {
		return nil, fmt.Errorf("%w: sending call: %w", runtime.ErrInstanceUnavailable, err)
	}

	var depth int
	for {
		var msg runtimeMessage
		err = stream.RecvMsg(&msg)
		if err != nil {
			return nil, fmt.Errorf("%w: receiving from runtime: %w", runtime.ErrInstanceUnavailable, err)
		}
		if msg.Op == opResult {
			_ = stream.CloseSend()
			return callResult(function, &msg)
		}

		err = stream.SendMsg(serveStorage(s, &msg, &depth))
		if err != nil {
			return nil, fmt.Errorf("%w: answering storage request: %w", runtime.ErrInstanceUnavailable, err)
		}
	}
}

func callResult(function string, msg *runtimeMessage) ([]byte, error) {
	switch msg.Status {
	case statusOK:
		return msg.Value, nil
	case statusCallError:
		return nil, runtime.NewCallError(function, &remoteError{
			err:     runtime.ErrorFromCode(msg.Code, msg.Message),
			message: msg.Message,
		})
	case statusUnknownFunction:
		return nil, &remoteError{err: runtime.ErrUnknownFunction, message: msg.Message}
	default:
		return nil, &remoteError{err: runtime.ErrInstanceUnavailable, message: msg.Message}
	}
}

// serveStorage answers a storage request of the runtime. depth counts the
// transactions the runtime opened and has not closed yet.
func serveStorage(s runtime.Storage, msg *runtimeMessage, depth *int) *hostMessage {
	var (
		reply hostMessage
		err   error
	)
	switch msg.Op {
	case opGet:
		var value []byte
		value, err = s.Get(msg.Key)
		if value != nil {
			reply.Value = scale.Some(value)
		}
	case opPut:
		err = s.Put(msg.Key, msg.Value)
	case opDelete:
		err = s.Delete(msg.Key)
	case opNextKey:
		var next []byte
		next, err = s.NextKey(msg.Key)
		if next != nil {
			reply.Value = scale.Some(next)
		}
	case opClearPrefix:
		err = s.ClearPrefix(msg.Key)
	case opRoot:
		reply.Root, err = s.Root()
	case opStartTransaction:
		s.StartTransaction()
		*depth++
	case opCommitTransaction:
		if *depth == 0 {
			err = errNoTransaction
			break
		}
		s.CommitTransaction()
		*depth--
	case opRollbackTransaction:
		if *depth == 0 {
			err = errNoTransaction
			break
		}
		s.RollbackTransaction()
		*depth--
	default:
		err = fmt.Errorf("unknown storage operation %d", msg.Op)
	}
	if err != nil {
		reply.Err = err.Error()
	}
	return &reply
}
