package mm

// AddressSpan describes a disjoint region of the kernel's virtual address
// space reserved for a single purpose.
type AddressSpan struct {
	Name  string
	Start uintptr
	Size  uintptr
}

// End returns the exclusive end address of the span.
func (s AddressSpan) End() uintptr {
	return s.Start + s.Size
}

// overlaps reports whether two spans share any address.
func (s AddressSpan) overlaps(other AddressSpan) bool {
	return s.Start < other.End() && other.Start < s.End()
}

// The three disjoint virtual spans fixed at compile time. The direct
// physical-memory map is not one of them: its bootloader-reported offset
// is installed via SetPhysicalMemoryOffset.
var (
	// UserlandSpan is reserved for a future user-mode address space; no
	// code maps pages into it in the current kernel.
	UserlandSpan = AddressSpan{Name: "userland", Start: 0x1111_1111_0000, Size: 32 * uintptr(Tb)}

	// HeapSpan backs the kernel's fixed-size block heap allocator.
	HeapSpan = AddressSpan{Name: "heap", Start: 0x4444_4444_0000, Size: 1 * uintptr(Mb)}

	// KBufferSpan backs the bump-allocated KBuffer arena (task stacks,
	// large kernel buffers). Pages are mapped as kbuffer.Alloc hands out
	// each range.
	KBufferSpan = AddressSpan{Name: "kbuffer", Start: 0x5555_5555_0000, Size: 1 * uintptr(Tb)}
)

// physicalMemoryOffset is the bootloader-reported base of the direct
// physical-memory map. It is not part of the static span table below since
// its value is only known at boot time, not at compile time.
var physicalMemoryOffset uintptr

// SetPhysicalMemoryOffset records the offset at which the bootloader
// direct-mapped all physical memory into the kernel's virtual address
// space.
func SetPhysicalMemoryOffset(offset uintptr) {
	physicalMemoryOffset = offset
}

// PhysicalMemoryOffset returns the bootloader-reported direct map offset.
func PhysicalMemoryOffset() uintptr {
	return physicalMemoryOffset
}

// staticSpans lists every span whose Start/Size are known at compile time.
// It excludes the physical direct map since its address depends on what the
// bootloader reports and cannot be checked for overlap ahead of time.
var staticSpans = [...]AddressSpan{UserlandSpan, HeapSpan, KBufferSpan}

// ValidateLayout checks that every pair of statically declared spans is
// disjoint, returning the names of the first overlapping pair it finds, or
// ("", "") if the layout is valid.
func ValidateLayout() (string, string) {
	for i := range staticSpans {
		for j := i + 1; j < len(staticSpans); j++ {
			if staticSpans[i].overlaps(staticSpans[j]) {
				return staticSpans[i].Name, staticSpans[j].Name
			}
		}
	}
	return "", ""
}

// init verifies, once, that the statically declared spans are pairwise
// disjoint. A violation indicates a build-time layout bug and halts the
// kernel before any subsystem gets a chance to use an overlapping mapping.
func init() {
	if a, b := ValidateLayout(); a != "" {
		panic("mm: address space spans " + a + " and " + b + " overlap")
	}
}
