package heap

import (
	"unsafe"

	"ferrite/kernel"
)

// fallbackNode is an intrusive free-list node describing a single free
// region of the fallback arena. Unlike the fixed-size free lists, fallback
// nodes also carry their own size so the first-fit search can compare
// candidate regions against a requested size.
type fallbackNode struct {
	next *fallbackNode
	size uintptr
}

// fallbackAllocator is a first-fit allocator over a single contiguous
// region, used to serve allocations larger than the largest fixed-size
// class and to carve the initial supply of blocks for the fixed-size free
// lists. It never coalesces freed regions back together; this mirrors the
// simplicity the physical frame allocator already accepts in its own
// one-way bump design, and keeps the allocator free of the bookkeeping a
// general-purpose coalescing heap would need.
type fallbackAllocator struct {
	head *fallbackNode
}

func (f *fallbackAllocator) init(start, end uintptr) {
	node := (*fallbackNode)(unsafe.Pointer(start))
	node.size = end - start
	node.next = nil
	f.head = node
}

// alloc finds the first free region at least size+slack bytes long so it
// can be carved to satisfy the requested alignment, splitting off the
// remainder as a new free region.
func (f *fallbackAllocator) alloc(size, align uintptr) (uintptr, *kernel.Error) {
	if align == 0 {
		align = 1
	}

	var prev *fallbackNode
	for node := f.head; node != nil; node = node.next {
		regionStart := uintptr(unsafe.Pointer(node))
		alignedStart := (regionStart + align - 1) &^ (align - 1)
		slack := alignedStart - regionStart
		needed := slack + size

		if node.size >= needed {
			remaining := node.size - needed
			next := node.next

			if remaining >= minFallbackSplit {
				rem := (*fallbackNode)(unsafe.Pointer(alignedStart + size))
				rem.size = remaining
				rem.next = next
				next = rem
			}

			if prev == nil {
				f.head = next
			} else {
				prev.next = next
			}

			return alignedStart, nil
		}

		prev = node
	}

	return 0, errOutOfMemory
}

// free returns a region to the arena by pushing it back onto the head of
// the free list. Adjacent regions are not merged back together.
func (f *fallbackAllocator) free(ptr, size uintptr) {
	node := (*fallbackNode)(unsafe.Pointer(ptr))
	node.size = size
	node.next = f.head
	f.head = node
}

// minFallbackSplit is the smallest remainder worth splitting off as its own
// free region; smaller remainders are absorbed into the allocation instead
// of fragmenting the arena with slivers no request could ever use.
const minFallbackSplit = 32

func ptrFromNode(n *freeListNode) unsafe.Pointer {
	return unsafe.Pointer(n)
}

func nodeFromPtr(ptr uintptr) *freeListNode {
	return (*freeListNode)(unsafe.Pointer(ptr))
}
