// Package heap implements the kernel's general-purpose allocator: a
// fixed-size block free-list allocator with a fallback first-fit allocator
// for requests too large for the largest block class. It is the allocator
// backing every dynamic kernel data structure that cannot be expressed as a
// kbuffer bump allocation.
package heap

import (
	"ferrite/kernel"
	"ferrite/kernel/mm"
	"ferrite/kernel/mm/vmm"
	"ferrite/kernel/sync"
)

const (
	// minBlockShift/maxBlockShift bound the power-of-two size classes the
	// free-list allocator serves directly: 8 bytes through 4 KiB.
	minBlockShift = 3
	maxBlockShift = 12
	numClasses    = maxBlockShift - minBlockShift + 1
)

// freeListNode is written into the first bytes of a freed block; this is
// why the smallest class (8 bytes on amd64) must be at least as large as a
// pointer.
type freeListNode struct {
	next *freeListNode
}

var (
	lock      sync.Spinlock
	freeLists [numClasses]*freeListNode
	fallback  fallbackAllocator

	start, end uintptr

	errOutOfMemory     = &kernel.Error{Module: "heap", Message: "heap exhausted"}
	errInvalidArgument = &kernel.Error{Module: "heap", Message: "invalid allocation size"}
)

// Init maps the entire heap span up front (Writable, kernel-only,
// zero-filled) and initializes the fallback allocator to treat the whole
// span as one free block.
func Init() *kernel.Error {
	start, end = mm.HeapSpan.Start, mm.HeapSpan.End()

	if err := vmm.EnsureIsMapped(vmm.RangeFromAddr(start, end-start), vmm.Writable, vmm.UserAccessibleNo); err != nil {
		return err
	}
	kernel.Memset(start, 0, end-start)

	fallback.init(start, end)
	for i := range freeLists {
		freeLists[i] = nil
	}

	return nil
}

// classFor returns the size-class index (and the actual block size that
// class serves) for a requested size/alignment, or false if the request
// exceeds the largest class and must go to the fallback allocator.
func classFor(size, align uintptr) (int, uintptr, bool) {
	need := size
	if align > need {
		need = align
	}
	if need == 0 {
		need = 1
	}

	for shift := uintptr(minBlockShift); shift <= maxBlockShift; shift++ {
		blockSize := uintptr(1) << shift
		if blockSize >= need {
			return int(shift - minBlockShift), blockSize, true
		}
	}

	return 0, 0, false
}

// Alloc reserves size bytes aligned to align (0 means natural/minimal
// alignment) from the heap.
func Alloc(size, align uintptr) (uintptr, *kernel.Error) {
	if size == 0 {
		return 0, errInvalidArgument
	}

	lock.Acquire()
	defer lock.Release()

	class, blockSize, ok := classFor(size, align)
	if !ok {
		ptr, err := fallback.alloc(size, align)
		if err != nil {
			return 0, err
		}
		notifyBackend(ptr, size)
		return ptr, nil
	}

	if node := freeLists[class]; node != nil {
		freeLists[class] = node.next
		ptr := uintptr(ptrFromNode(node))
		notifyBackend(ptr, blockSize)
		return ptr, nil
	}

	ptr, err := fallback.alloc(blockSize, blockSize)
	if err != nil {
		return 0, errOutOfMemory
	}
	notifyBackend(ptr, blockSize)
	return ptr, nil
}

// Free releases a previously allocated block. size and align must match the
// values passed to the corresponding Alloc call.
func Free(ptr, size, align uintptr) {
	lock.Acquire()
	defer lock.Release()

	class, blockSize, ok := classFor(size, align)
	if !ok {
		fallback.free(ptr, size)
		notifyBackend(ptr, size)
		return
	}

	node := nodeFromPtr(ptr)
	node.next = freeLists[class]
	freeLists[class] = node
	notifyBackend(ptr, blockSize)
}

// notifyBackend lets the memory manager ensure the pages backing [ptr,
// ptr+size) are mapped. The heap's entire span is mapped eagerly by Init, so
// in the current design this is a no-op; it exists so alternate backends
// (e.g. a future lazily-mapped heap) can be swapped in without changing call
// sites, mirroring the lazy-mapping contract KBuffer already relies on.
func notifyBackend(ptr, size uintptr) {
	_ = ptr
	_ = size
}
