// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package remote

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"google.golang.org/grpc"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "runtime/remote"))

// Server hosts an executor and serves its calls to remote hosts.
type Server struct {
	executor runtime.Executor
}

// NewServer returns a server executing calls with executor.
func NewServer(executor runtime.Executor) *Server {
	return &Server{executor: executor}
}

// Call receives the call, executes it against the state of the host and
// sends back the result.
func (s *Server) Call(stream grpc.ServerStream) error {
	var req hostMessage
	err := stream.RecvMsg(&req)
	if err != nil {
		return err
	}

	logger.Tracef("serving %s with %d bytes of arguments", req.Function, len(req.Args))
	proxy := &storageProxy{stream: stream}
	out, err := s.executor.Call(stream.Context(), proxy, req.Function, req.Args)
	if proxy.err != nil {
		logger.Debugf("lost host storage during %s: %s", req.Function, proxy.err)
		if proxy.broken {
			return proxy.err
		}
		return stream.SendMsg(resultMessage(nil, proxy.err))
	}
	return stream.SendMsg(resultMessage(out, err))
}

func resultMessage(out []byte, err error) *runtimeMessage {
	msg := &runtimeMessage{Op: opResult, Value: out}
	if err == nil {
		return msg
	}

	msg.Message = err.Error()
	var callErr *runtime.CallError
	switch {
	case errors.Is(err, runtime.ErrUnknownFunction):
		msg.Status = statusUnknownFunction
	case errors.Is(err, runtime.ErrInstanceUnavailable):
		msg.Status = statusUnavailable
	case errors.As(err, &callErr):
		msg.Status = statusCallError
		msg.Code = runtime.ErrorCode(callErr.Err)
		msg.Message = callErr.Err.Error()
	default:
		msg.Status = statusUnavailable
	}
	return msg
}

// storageProxy is the state of the host as seen by the runtime. Every
// access is a round trip on the call stream. The first transport error or
// refused transaction operation fails all later accesses and the call.
type storageProxy struct {
	stream grpc.ServerStream
	err    error
	broken bool
}

var _ runtime.Storage = (*storageProxy)(nil)

func (p *storageProxy) request(msg *runtimeMessage) (*hostMessage, error) {
	if p.err != nil {
		return nil, p.err
	}
	err := p.stream.SendMsg(msg)
	if err != nil {
		p.err = fmt.Errorf("%w: sending storage request: %w", runtime.ErrInstanceUnavailable, err)
		p.broken = true
		return nil, p.err
	}
	var reply hostMessage
	err = p.stream.RecvMsg(&reply)
	if err != nil {
		p.err = fmt.Errorf("%w: receiving storage reply: %w", runtime.ErrInstanceUnavailable, err)
		p.broken = true
		return nil, p.err
	}
	if reply.Err != "" {
		return nil, errors.New(reply.Err)
	}
	return &reply, nil
}

func (p *storageProxy) Get(key []byte) ([]byte, error) {
	reply, err := p.request(&runtimeMessage{Op: opGet, Key: key})
	if err != nil {
		return nil, err
	}
	value, _ := reply.Value.Unwrap()
	return value, nil
}

func (p *storageProxy) Put(key, value []byte) error {
	_, err := p.request(&runtimeMessage{Op: opPut, Key: key, Value: value})
	return err
}

func (p *storageProxy) Delete(key []byte) error {
	_, err := p.request(&runtimeMessage{Op: opDelete, Key: key})
	return err
}

func (p *storageProxy) NextKey(key []byte) ([]byte, error) {
	reply, err := p.request(&runtimeMessage{Op: opNextKey, Key: key})
	if err != nil {
		return nil, err
	}
	next, _ := reply.Value.Unwrap()
	return next, nil
}

func (p *storageProxy) ClearPrefix(prefix []byte) error {
	_, err := p.request(&runtimeMessage{Op: opClearPrefix, Key: prefix})
	return err
}

func (p *storageProxy) Root() (common.Hash, error) {
	reply, err := p.request(&runtimeMessage{Op: opRoot})
	if err != nil {
		return common.Hash{}, err
	}
	return reply.Root, nil
}

func (p *storageProxy) StartTransaction() {
	p.transaction(opStartTransaction, "start")
}

func (p *storageProxy) CommitTransaction() {
	p.transaction(opCommitTransaction, "commit")
}

func (p *storageProxy) RollbackTransaction() {
	p.transaction(opRollbackTransaction, "roll back")
}

// transaction sends a transaction operation. The storage interface has no
// error return for these, so a refusal by the host fails the call.
func (p *storageProxy) transaction(op uint8, name string) {
	_, err := p.request(&runtimeMessage{Op: op})
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: cannot %s storage transaction: %w", runtime.ErrInstanceUnavailable, name, err)
	}
}
