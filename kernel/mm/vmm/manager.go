package vmm

import (
	"ferrite/kernel"
	"ferrite/kernel/mm"
)

// MemoryKind describes the access policy that should be applied to a range
// of pages when it is mapped by the memory manager.
type MemoryKind uint8

const (
	// ReadOnly pages can be read but not written to or executed.
	ReadOnly MemoryKind = iota

	// Writable pages can be read and written to but not executed.
	Writable

	// Executable pages can be read and executed but not written to.
	Executable
)

// UserAccessible indicates whether a mapping should be reachable from
// user-mode code.
type UserAccessible bool

const (
	// UserAccessibleYes marks a mapping as reachable from user-mode code.
	UserAccessibleYes UserAccessible = true

	// UserAccessibleNo restricts a mapping to kernel-mode code only.
	UserAccessibleNo UserAccessible = false
)

var (
	errFrameAllocationFailed = &kernel.Error{Module: "vmm", Message: "physical frame allocator is exhausted"}
)

// flagsFor derives the page-table entry flags that correspond to the
// supplied (MemoryKind, UserAccessible) pair. The base flag set is always
// FlagPresent|FlagNoExecute; Writable adds FlagRW, Executable clears
// FlagNoExecute, ReadOnly leaves the base as-is, and UserAccessibleYes adds
// FlagUserAccessible.
func flagsFor(kind MemoryKind, user UserAccessible) PageTableEntryFlag {
	flags := FlagPresent | PageTableEntryFlag(FlagNoExecute)

	switch kind {
	case Writable:
		flags |= FlagRW
	case Executable:
		flags &^= PageTableEntryFlag(FlagNoExecute)
	case ReadOnly:
		// base flags already express read-only, no-execute semantics.
	}

	if user == UserAccessibleYes {
		flags |= FlagUserAccessible
	}

	return flags
}

// PageRange describes a half-open page range [Start, End) understood by the
// memory manager's mapping operations.
type PageRange struct {
	Start mm.Page
	End   mm.Page
}

// Pages returns the number of pages spanned by the range.
func (r PageRange) Pages() uintptr {
	if r.End <= r.Start {
		return 0
	}
	return uintptr(r.End - r.Start)
}

// RangeFromAddr builds a PageRange covering [addr, addr+size), rounding the
// end up to the next page boundary.
func RangeFromAddr(addr, size uintptr) PageRange {
	start := mm.PageFromAddress(addr)
	if size == 0 {
		return PageRange{Start: start, End: start}
	}
	end := mm.PageFromAddress(addr+size-1) + 1
	return PageRange{Start: start, End: end}
}

// isMapped reports whether a page currently has a present mapping.
func isMapped(page mm.Page) bool {
	_, err := translateFn(page.Address())
	return err == nil
}

// EnsureIsMapped walks every page in range and, for any page that is not yet
// mapped, allocates a fresh physical frame and maps it using the flags
// derived from (kind, user). Pages that are already mapped are left
// untouched. The mapping for each newly-allocated page is flushed
// immediately.
func EnsureIsMapped(r PageRange, kind MemoryKind, user UserAccessible) *kernel.Error {
	flags := flagsFor(kind, user)

	for page := r.Start; page < r.End; page++ {
		if isMapped(page) {
			continue
		}

		frame, err := mm.AllocFrame()
		if err != nil {
			return errFrameAllocationFailed
		}

		if err := mapFn(page, frame, flags); err != nil {
			return err
		}
	}

	return nil
}

// AllocateAndMapPageRange behaves like EnsureIsMapped but does not check
// whether a page is already mapped; every page in range is expected to be
// currently unmapped and Map will surface AlreadyMapped-style errors from
// the underlying page table if that invariant is violated.
func AllocateAndMapPageRange(r PageRange, kind MemoryKind, user UserAccessible) *kernel.Error {
	flags := flagsFor(kind, user)

	for page := r.Start; page < r.End; page++ {
		frame, err := mm.AllocFrame()
		if err != nil {
			return errFrameAllocationFailed
		}

		if err := mapFn(page, frame, flags); err != nil {
			return err
		}
	}

	return nil
}

// DeallocateAndUnmapPage unmaps the page containing addr, flushes the TLB
// entry for it, and frees the backing physical frame back... in name only:
// per the physical frame allocator's one-way bump design (spec §4.1) frames
// are never actually returned to the pool. The call still unmaps the page so
// the virtual address range can be reused by a fresh allocation elsewhere.
func DeallocateAndUnmapPage(addr uintptr) *kernel.Error {
	page := mm.PageFromAddress(addr)
	return unmapFn(page)
}

// LazyMappingBackend describes an allocator whose backing pages are mapped
// lazily: the backend is notified after
// memory has been handed out from its reserved virtual span so it can
// ensure the corresponding pages are actually mapped.
type LazyMappingBackend interface {
	// OnAllocated is invoked with the address and size of memory that was
	// just handed out from the backend's reserved span.
	OnAllocated(ptr, size uintptr)
}

// EnsureRangeMapped rounds [addr, addr+size) to page boundaries and ensures
// every page in the resulting range is mapped with Writable,
// UserAccessibleNo flags. The kbuffer arena calls it to map each range as
// that range is allocated.
func EnsureRangeMapped(addr, size uintptr) *kernel.Error {
	return EnsureIsMapped(RangeFromAddr(addr, size), Writable, UserAccessibleNo)
}
