// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"context"
	"fmt"

	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/runtime"
	"github.com/ChainSafe/rtapi/pkg/scale"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

var logger = log.NewFromGlobal(
	log.AddContext("pkg", "runtime"),
	log.AddContext("module", "wazero"),
)

type callContextKey struct{}

// callContext is the host side state of one runtime call.
type callContext struct {
	storage   runtime.Storage
	allocator *allocator
	// err is the error the runtime reported for the call
	err error
}

func callContextFrom(ctx context.Context) *callContext {
	c, ok := ctx.Value(callContextKey{}).(*callContext)
	if !ok {
		panic("host function called outside of a runtime call")
	}
	return c
}

// splitPointerSize converts an int64 pointer size to an
// uint32 pointer and an uint32 size.
func splitPointerSize(pointerSize uint64) (ptr, size uint32) {
	return uint32(pointerSize), uint32(pointerSize >> 32)
}

func newPointerSize(ptr, size uint32) uint64 {
	return uint64(size)<<32 | uint64(ptr)
}

// read copies the memory span of the pointer size. Host functions panic on
// bad spans, which traps the call.
func read(m api.Module, pointerSize uint64) []byte {
	ptr, size := splitPointerSize(pointerSize)
	data, ok := m.Memory().Read(ptr, size)
	if !ok {
		panic(fmt.Sprintf("out of bounds memory span: ptr %d, size %d", ptr, size))
	}
	return append([]byte(nil), data...)
}

// write copies data to newly allocated memory and returns its pointer size.
func write(ctx context.Context, m api.Module, data []byte) uint64 {
	ptr, err := callContextFrom(ctx).allocator.allocate(m.Memory(), uint32(len(data)))
	if err != nil {
		panic(err)
	}
	if !m.Memory().Write(ptr, data) {
		panic(fmt.Sprintf("out of bounds memory write: ptr %d, size %d", ptr, len(data)))
	}
	return newPointerSize(ptr, uint32(len(data)))
}

func ext_storage_get_version_1(ctx context.Context, m api.Module, key uint64) uint64 {
	value, err := callContextFrom(ctx).storage.Get(read(m, key))
	if err != nil {
		panic(err)
	}
	option := scale.None[[]byte]()
	if value != nil {
		option = scale.Some(value)
	}
	return write(ctx, m, scale.MustMarshal(option))
}

func ext_storage_set_version_1(ctx context.Context, m api.Module, key, value uint64) {
	err := callContextFrom(ctx).storage.Put(read(m, key), read(m, value))
	if err != nil {
		panic(err)
	}
}

func ext_storage_clear_version_1(ctx context.Context, m api.Module, key uint64) {
	err := callContextFrom(ctx).storage.Delete(read(m, key))
	if err != nil {
		panic(err)
	}
}

func ext_storage_root_version_1(ctx context.Context, m api.Module) uint64 {
	root, err := callContextFrom(ctx).storage.Root()
	if err != nil {
		panic(err)
	}
	return write(ctx, m, root[:])
}

func ext_storage_start_transaction_version_1(ctx context.Context, _ api.Module) {
	callContextFrom(ctx).storage.StartTransaction()
}

func ext_storage_commit_transaction_version_1(ctx context.Context, _ api.Module) {
	callContextFrom(ctx).storage.CommitTransaction()
}

func ext_storage_rollback_transaction_version_1(ctx context.Context, _ api.Module) {
	callContextFrom(ctx).storage.RollbackTransaction()
}

func ext_allocator_malloc_version_1(ctx context.Context, m api.Module, size uint32) uint32 {
	ptr, err := callContextFrom(ctx).allocator.allocate(m.Memory(), size)
	if err != nil {
		panic(err)
	}
	return ptr
}

func ext_allocator_free_version_1(ctx context.Context, m api.Module, ptr uint32) {
	err := callContextFrom(ctx).allocator.deallocate(m.Memory(), ptr)
	if err != nil {
		panic(err)
	}
}

func ext_logging_log_version_1(_ context.Context, m api.Module, level uint32, target, msg uint64) {
	line := fmt.Sprintf("target=%s message=%s", read(m, target), read(m, msg))
	switch level {
	case 0:
		logger.Error(line)
	case 1:
		logger.Warn(line)
	case 2:
		logger.Info(line)
	case 3:
		logger.Debug(line)
	default:
		logger.Trace(line)
	}
}

// ext_runtime_error_version_1 reports the error of the current call. The
// output of the call is ignored.
func ext_runtime_error_version_1(ctx context.Context, m api.Module, code uint32, msg uint64) {
	callContextFrom(ctx).err = runtime.ErrorFromCode(uint8(code), string(read(m, msg)))
}

// newHostModule returns the builder of the env module imported by runtimes.
func newHostModule(r wazero.Runtime) wazero.HostModuleBuilder {
	i32, i64 := api.ValueTypeI32, api.ValueTypeI64
	functions := []struct {
		name    string
		fn      api.GoModuleFunc
		params  []api.ValueType
		results []api.ValueType
	}{
		{"ext_storage_get_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			stack[0] = ext_storage_get_version_1(ctx, m, stack[0])
		}, []api.ValueType{i64}, []api.ValueType{i64}},
		{"ext_storage_set_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			ext_storage_set_version_1(ctx, m, stack[0], stack[1])
		}, []api.ValueType{i64, i64}, nil},
		{"ext_storage_clear_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			ext_storage_clear_version_1(ctx, m, stack[0])
		}, []api.ValueType{i64}, nil},
		{"ext_storage_root_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			stack[0] = ext_storage_root_version_1(ctx, m)
		}, nil, []api.ValueType{i64}},
		{"ext_storage_start_transaction_version_1", func(ctx context.Context, m api.Module, _ []uint64) {
			ext_storage_start_transaction_version_1(ctx, m)
		}, nil, nil},
		{"ext_storage_commit_transaction_version_1", func(ctx context.Context, m api.Module, _ []uint64) {
			ext_storage_commit_transaction_version_1(ctx, m)
		}, nil, nil},
		{"ext_storage_rollback_transaction_version_1", func(ctx context.Context, m api.Module, _ []uint64) {
			ext_storage_rollback_transaction_version_1(ctx, m)
		}, nil, nil},
		{"ext_allocator_malloc_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeU32(ext_allocator_malloc_version_1(ctx, m, api.DecodeU32(stack[0])))
		}, []api.ValueType{i32}, []api.ValueType{i32}},
		{"ext_allocator_free_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			ext_allocator_free_version_1(ctx, m, api.DecodeU32(stack[0]))
		}, []api.ValueType{i32}, nil},
		{"ext_logging_log_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			ext_logging_log_version_1(ctx, m, api.DecodeU32(stack[0]), stack[1], stack[2])
		}, []api.ValueType{i32, i64, i64}, nil},
		{"ext_logging_max_level_version_1", func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeU32(4)
		}, nil, []api.ValueType{i32}},
		{"ext_runtime_error_version_1", func(ctx context.Context, m api.Module, stack []uint64) {
			ext_runtime_error_version_1(ctx, m, api.DecodeU32(stack[0]), stack[1])
		}, []api.ValueType{i32, i64}, nil},
	}

	builder := r.NewHostModuleBuilder("env")
	for _, f := range functions {
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}
	return builder
}
