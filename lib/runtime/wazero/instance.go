// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/klauspost/compress/zstd"
	"github.com/tetratelabs/wazero"
)

var errNoMemory = errors.New("runtime does not export its memory")

// zstdPrefix marks wasm code stored compressed with zstd.
var zstdPrefix = []byte{82, 188, 83, 118, 70, 219, 142, 5}

// decompressWasm returns the wasm blob of code, which may be compressed.
func decompressWasm(code []byte) ([]byte, error) {
	if !bytes.HasPrefix(code, zstdPrefix) {
		return code, nil
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()
	return decoder.DecodeAll(code[len(zstdPrefix):], nil)
}

// Executor runs the wasm runtime stored at the code key of the state. Each
// call gets a fresh instance of the runtime, compiled once per code.
type Executor struct {
	runtime wazero.Runtime

	mtx     sync.Mutex
	modules map[common.Hash]wazero.CompiledModule
}

// NewExecutor returns an executor with the host functions instantiated.
func NewExecutor(ctx context.Context) (*Executor, error) {
	config := wazero.NewRuntimeConfig().
		WithCompilationCache(wazero.NewCompilationCache()).
		WithCloseOnContextDone(true)
	r := wazero.NewRuntimeWithConfig(ctx, config)

	_, err := newHostModule(r).Instantiate(ctx)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiating host module: %w", err)
	}
	return &Executor{
		runtime: r,
		modules: make(map[common.Hash]wazero.CompiledModule),
	}, nil
}

// Close releases the compiled runtimes.
func (x *Executor) Close(ctx context.Context) error {
	return x.runtime.Close(ctx)
}

func (x *Executor) compile(ctx context.Context, code []byte) (wazero.CompiledModule, error) {
	hash, err := common.Blake2bHash(code)
	if err != nil {
		return nil, err
	}

	x.mtx.Lock()
	defer x.mtx.Unlock()
	if compiled, ok := x.modules[hash]; ok {
		return compiled, nil
	}
	blob, err := decompressWasm(code)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress wasm code: %w", err)
	}
	compiled, err := x.runtime.CompileModule(ctx, blob)
	if err != nil {
		return nil, err
	}
	logger.Debugf("compiled runtime with code hash %s", hash)
	x.modules[hash] = compiled
	return compiled, nil
}

// Call executes the exported function of the runtime stored in s. The
// function takes the pointer and length of its arguments and returns the
// pointer size of its output.
func (x *Executor) Call(ctx context.Context, s runtime.Storage, function string, args []byte) ([]byte, error) {
	code, err := s.Get(common.CodeKey)
	if err != nil {
		return nil, fmt.Errorf("%w: reading code: %w", runtime.ErrInstanceUnavailable, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: no code in state", runtime.ErrInstanceUnavailable)
	}
	compiled, err := x.compile(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling: %w", runtime.ErrInstanceUnavailable, err)
	}

	mod, err := x.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, fmt.Errorf("%w: instantiating: %w", runtime.ErrInstanceUnavailable, err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(function)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrUnknownFunction, function)
	}
	mem := mod.Memory()
	if mem == nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrInstanceUnavailable, errNoMemory)
	}

	heapBase := mem.Size()
	if global := mod.ExportedGlobal("__heap_base"); global != nil {
		heapBase = uint32(global.Get())
	}
	call := &callContext{storage: s, allocator: newAllocator(heapBase)}
	ptr, err := call.allocator.allocate(mem, uint32(len(args)))
	if err != nil {
		return nil, fmt.Errorf("%w: allocating arguments: %w", runtime.ErrInstanceUnavailable, err)
	}
	mem.Write(ptr, args)

	logger.Tracef("calling %s with %d bytes of arguments", function, len(args))
	results, err := fn.Call(context.WithValue(ctx, callContextKey{}, call), uint64(ptr), uint64(len(args)))
	if err != nil {
		logger.Errorf("runtime trapped in %s: %s", function, err)
		return nil, fmt.Errorf("%w: trapped in %s: %w", runtime.ErrInstanceUnavailable, function, err)
	}
	if call.err != nil {
		return nil, runtime.NewCallError(function, call.err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d values", runtime.ErrInstanceUnavailable, function, len(results))
	}

	outPtr, outSize := splitPointerSize(results[0])
	out, ok := mem.Read(outPtr, outSize)
	if !ok {
		return nil, fmt.Errorf("%w: output of %s out of memory bounds", runtime.ErrInstanceUnavailable, function)
	}
	return append([]byte{}, out...), nil
}
