// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/tetratelabs/wazero/api"
)

const (
	alignment  = 8
	headerSize = 8

	// allocations are powers of two from minAllocation to maxAllocation
	numOrders     = 23
	minAllocation = 8
	maxAllocation = 1 << 25

	pageSize     = 65536
	maxWasmPages = 4 * 1024 * 1024 * 1024 / pageSize

	nilMarker    = math.MaxUint32
	occupiedFlag = uint64(1) << 32
)

var (
	errAllocationTooLarge = errors.New("requested allocation too large")
	errOutOfSpace         = errors.New("allocator out of space")
	errBadHeader          = errors.New("invalid allocation header")
	errBadPointer         = errors.New("invalid pointer for deallocation")
)

// allocator is a freeing bump allocator over the linear memory of an
// instance. Each allocation is prefixed by an 8 byte header: the order of
// an occupied allocation, or the next free allocation of the same order.
type allocator struct {
	bumper    uint32
	freeLists [numOrders]uint32
}

func newAllocator(heapBase uint32) *allocator {
	a := &allocator{bumper: (heapBase + alignment - 1) / alignment * alignment}
	for i := range a.freeLists {
		a.freeLists[i] = nilMarker
	}
	return a
}

func orderFromSize(size uint32) (uint32, error) {
	if size > maxAllocation {
		return 0, fmt.Errorf("%w: %d bytes, at most %d", errAllocationTooLarge, size, maxAllocation)
	}
	if size < minAllocation {
		size = minAllocation
	}
	rounded := uint32(1) << (32 - bits.LeadingZeros32(size-1))
	return uint32(bits.TrailingZeros32(rounded) - bits.TrailingZeros32(minAllocation)), nil
}

// allocate returns a pointer to size bytes of memory.
func (a *allocator) allocate(mem api.Memory, size uint32) (uint32, error) {
	order, err := orderFromSize(size)
	if err != nil {
		return 0, err
	}

	headerPtr := a.freeLists[order]
	if headerPtr != nilMarker {
		header, ok := mem.ReadUint64Le(headerPtr)
		if !ok || header&occupiedFlag != 0 {
			return 0, fmt.Errorf("%w: free list entry at %d", errBadHeader, headerPtr)
		}
		a.freeLists[order] = uint32(header)
	} else {
		headerPtr, err = a.bump(mem, (minAllocation<<order)+headerSize)
		if err != nil {
			return 0, err
		}
	}

	if !mem.WriteUint64Le(headerPtr, occupiedFlag|uint64(order)) {
		return 0, fmt.Errorf("%w: cannot write header at %d", errBadHeader, headerPtr)
	}
	return headerPtr + headerSize, nil
}

// deallocate returns the allocation at ptr to the free list of its order.
func (a *allocator) deallocate(mem api.Memory, ptr uint32) error {
	if ptr < headerSize {
		return fmt.Errorf("%w: %d", errBadPointer, ptr)
	}
	headerPtr := ptr - headerSize
	header, ok := mem.ReadUint64Le(headerPtr)
	if !ok || header&occupiedFlag == 0 || uint32(header) >= numOrders {
		return fmt.Errorf("%w: %d", errBadPointer, ptr)
	}

	order := uint32(header)
	if !mem.WriteUint64Le(headerPtr, uint64(a.freeLists[order])) {
		return fmt.Errorf("%w: cannot write header at %d", errBadHeader, headerPtr)
	}
	a.freeLists[order] = headerPtr
	return nil
}

// bump reserves size bytes at the end of the heap, growing the memory when
// needed.
func (a *allocator) bump(mem api.Memory, size uint32) (uint32, error) {
	required := uint64(a.bumper) + uint64(size)
	if required > uint64(mem.Size()) {
		requiredPages := (required + pageSize - 1) / pageSize
		if requiredPages > maxWasmPages {
			return 0, fmt.Errorf("%w: %d pages required", errOutOfSpace, requiredPages)
		}
		currentPages := uint64(mem.Size()) / pageSize
		nextPages := max(min(currentPages*2, maxWasmPages), requiredPages)
		_, ok := mem.Grow(uint32(nextPages - currentPages))
		if !ok {
			return 0, fmt.Errorf("%w: cannot grow memory from %d to %d pages",
				errOutOfSpace, currentPages, nextPages)
		}
	}

	ptr := a.bumper
	a.bumper += size
	return ptr, nil
}
