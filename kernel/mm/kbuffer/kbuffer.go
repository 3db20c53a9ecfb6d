// Package kbuffer implements a bump allocator over the reserved KBuffer
// virtual address span. Allocations are never individually freed; backing
// pages are mapped via the memory manager when Alloc hands out each range.
// KBuffer is used for task stacks and other large, long-lived kernel
// buffers that do not benefit from the heap's fixed-size block classes.
package kbuffer

import (
	"ferrite/kernel"
	"ferrite/kernel/mm"
	"ferrite/kernel/mm/vmm"
	"ferrite/kernel/sync"
)

// DefaultAlign is the alignment applied to allocations that do not request a
// specific alignment.
const DefaultAlign = 64

var (
	lock sync.Spinlock

	// next points to the next unused address within the arena.
	next uintptr

	errArenaExhausted = &kernel.Error{Module: "kbuffer", Message: "kbuffer arena exhausted"}
)

// Init resets the arena to the start of its reserved span. It must be
// called exactly once during boot, before any allocation is requested.
func Init() {
	next = mm.KBufferSpan.Start
}

// Alloc reserves size bytes aligned to align (rounded up to DefaultAlign if
// align is 0) from the arena and ensures the backing pages are mapped. It
// returns the address of the reserved region.
func Alloc(size, align uintptr) (uintptr, *kernel.Error) {
	if align == 0 {
		align = DefaultAlign
	}

	lock.Acquire()
	defer lock.Release()

	addr := (next + align - 1) &^ (align - 1)
	if addr+size > mm.KBufferSpan.End() {
		return 0, errArenaExhausted
	}
	next = addr + size

	if err := vmm.EnsureRangeMapped(addr, size); err != nil {
		return 0, err
	}

	return addr, nil
}

// Buffer is a handle to a kbuffer-backed allocation together with its size,
// primarily used so callers (e.g. the scheduler's stack provisioning) can
// carry the allocation's extent alongside its address.
type Buffer struct {
	Addr uintptr
	Size uintptr
}

// AllocBuffer is a convenience wrapper around Alloc that returns a Buffer.
func AllocBuffer(size, align uintptr) (Buffer, *kernel.Error) {
	addr, err := Alloc(size, align)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{Addr: addr, Size: size}, nil
}

// Top returns the address one past the end of the buffer, the conventional
// starting stack pointer for a downward-growing stack allocated from this
// buffer.
func (b Buffer) Top() uintptr {
	return b.Addr + b.Size
}
