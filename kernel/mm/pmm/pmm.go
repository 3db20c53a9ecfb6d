// Package pmm implements the kernel's physical frame allocator.
package pmm

import (
	"ferrite/kernel"
	"ferrite/kernel/hal/multiboot"
	"ferrite/kernel/kfmt/early"
	"ferrite/kernel/mm"
)

var (
	// allocator is the single, process-wide frame allocator instance.
	allocator bumpAllocator

	errOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}
)

// Init sets up the kernel's physical memory allocation sub-system by
// scanning the memory region information supplied by the bootloader. The
// region spanning [kernelStart, kernelEnd) is excluded from allocation since
// it already holds the running kernel image.
func Init(kernelStart, kernelEnd uintptr) *kernel.Error {
	allocator.init(kernelStart, kernelEnd)
	allocator.printMemoryMap()
	mm.SetFrameAllocator(allocFrame)
	return nil
}

func allocFrame() (mm.Frame, *kernel.Error) {
	return allocator.AllocFrame()
}

// bumpAllocator hands out physical frames by walking the bootloader-reported
// `Usable` memory regions and returning the next unallocated frame. Frames
// are never reclaimed: once handed out, a frame is never returned to the
// pool for the lifetime of the kernel.
type bumpAllocator struct {
	// allocCount tracks the total number of frames allocated so far.
	allocCount uint64

	// lastAllocFrame tracks the last frame number handed out.
	lastAllocFrame mm.Frame

	// kernelStartFrame/kernelEndFrame are excluded from allocation since
	// they are occupied by the running kernel image.
	kernelStartAddr, kernelEndAddr   uintptr
	kernelStartFrame, kernelEndFrame mm.Frame
}

// init sets up the allocator's internal bookkeeping.
func (alloc *bumpAllocator) init(kernelStart, kernelEnd uintptr) {
	pageSizeMinus1 := mm.PageSize - 1
	alloc.kernelStartAddr = kernelStart
	alloc.kernelEndAddr = kernelEnd
	alloc.kernelStartFrame = mm.Frame((kernelStart & ^pageSizeMinus1) >> mm.PageShift)
	alloc.kernelEndFrame = mm.Frame(((kernelEnd+pageSizeMinus1) & ^pageSizeMinus1)>>mm.PageShift) - 1
}

// AllocFrame scans the system memory regions reported by the bootloader and
// returns the next unallocated frame from a Usable region, skipping over the
// frames occupied by the kernel image. It returns errOutOfMemory once every
// usable frame has been handed out.
func (alloc *bumpAllocator) AllocFrame() (mm.Frame, *kernel.Error) {
	var err = errOutOfMemory

	multiboot.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		if region.Type != multiboot.MemAvailable || region.Length < uint64(mm.PageSize) {
			return true
		}

		pageSizeMinus1 := uint64(mm.PageSize - 1)
		regionStartFrame := mm.Frame(((region.PhysAddress + pageSizeMinus1) & ^pageSizeMinus1) >> mm.PageShift)
		regionEndFrame := mm.Frame(((region.PhysAddress+region.Length) & ^pageSizeMinus1)>>mm.PageShift) - 1

		// Already exhausted this region.
		if alloc.lastAllocFrame >= regionEndFrame && alloc.allocCount != 0 {
			return true
		}

		switch {
		case (alloc.lastAllocFrame <= regionStartFrame && alloc.kernelStartFrame == regionStartFrame) ||
			(alloc.lastAllocFrame <= regionEndFrame && alloc.lastAllocFrame+1 == alloc.kernelStartFrame):
			// Skip past the kernel image.
			alloc.lastAllocFrame = alloc.kernelEndFrame + 1
		case alloc.lastAllocFrame < regionStartFrame || alloc.allocCount == 0:
			// First allocation in this region.
			alloc.lastAllocFrame = regionStartFrame
		default:
			alloc.lastAllocFrame++
		}

		if alloc.lastAllocFrame > regionEndFrame {
			return true
		}

		err = nil
		return false
	})

	if err != nil {
		return mm.InvalidFrame, errOutOfMemory
	}

	alloc.allocCount++
	return alloc.lastAllocFrame, nil
}

// printMemoryMap scans the memory region information provided by the
// bootloader and prints out the system's memory map.
func (alloc *bumpAllocator) printMemoryMap() {
	early.Printf("[pmm] system memory map:\n")
	var totalFree mm.Size
	multiboot.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		early.Printf("\t[0x%10x - 0x%10x], size: %10d, type: %s\n", region.PhysAddress, region.PhysAddress+region.Length, region.Length, region.Type.String())

		if region.Type == multiboot.MemAvailable {
			totalFree += mm.Size(region.Length)
		}
		return true
	})
	early.Printf("[pmm] available memory: %dKb\n", uint64(totalFree/mm.Kb))
	early.Printf("[pmm] kernel loaded at 0x%x - 0x%x\n", alloc.kernelStartAddr, alloc.kernelEndAddr)
	early.Printf("[pmm] size: %d bytes, reserved pages: %d\n",
		uint64(alloc.kernelEndAddr-alloc.kernelStartAddr),
		uint64(alloc.kernelEndFrame-alloc.kernelStartFrame+1),
	)
}
