package vmm

import (
	"ferrite/kernel"
	"ferrite/kernel/mm"
	"testing"
)

func TestFlagsFor(t *testing.T) {
	specs := []struct {
		kind  MemoryKind
		user  UserAccessible
		flags PageTableEntryFlag
	}{
		{ReadOnly, UserAccessibleNo, FlagPresent | PageTableEntryFlag(FlagNoExecute)},
		{ReadOnly, UserAccessibleYes, FlagPresent | PageTableEntryFlag(FlagNoExecute) | FlagUserAccessible},
		{Writable, UserAccessibleNo, FlagPresent | PageTableEntryFlag(FlagNoExecute) | FlagRW},
		{Executable, UserAccessibleNo, FlagPresent},
	}

	for _, spec := range specs {
		if got := flagsFor(spec.kind, spec.user); got != spec.flags {
			t.Errorf("flagsFor(%v, %v): got %x; want %x", spec.kind, spec.user, got, spec.flags)
		}
	}
}

func TestPageRangePages(t *testing.T) {
	r := PageRange{Start: 10, End: 13}
	if got := r.Pages(); got != 3 {
		t.Errorf("expected 3 pages; got %d", got)
	}

	empty := PageRange{Start: 10, End: 10}
	if got := empty.Pages(); got != 0 {
		t.Errorf("expected 0 pages for empty range; got %d", got)
	}

	inverted := PageRange{Start: 10, End: 5}
	if got := inverted.Pages(); got != 0 {
		t.Errorf("expected 0 pages for inverted range; got %d", got)
	}
}

func TestRangeFromAddr(t *testing.T) {
	r := RangeFromAddr(mm.PageSize, mm.PageSize*2)
	if got, want := r.Pages(), uintptr(2); got != want {
		t.Errorf("expected a 2-page range; got %d", got)
	}

	// A zero-size request yields an empty range anchored at its start page.
	zero := RangeFromAddr(mm.PageSize, 0)
	if got := zero.Pages(); got != 0 {
		t.Errorf("expected 0 pages for a zero-size request; got %d", got)
	}

	// A request that ends mid-page still rounds up to cover that page.
	unaligned := RangeFromAddr(0, mm.PageSize+1)
	if got, want := unaligned.Pages(), uintptr(2); got != want {
		t.Errorf("expected an unaligned 1-byte-into-the-2nd-page request to span 2 pages; got %d", got)
	}
}

func TestEnsureIsMapped(t *testing.T) {
	defer func(origMapFn func(mm.Page, mm.Frame, PageTableEntryFlag) *kernel.Error, origTranslateFn func(uintptr) (uintptr, *kernel.Error)) {
		mapFn = origMapFn
		translateFn = origTranslateFn
		mm.SetFrameAllocator(nil)
	}(mapFn, translateFn)

	mappedPage := mm.Page(1)

	translateFn = func(addr uintptr) (uintptr, *kernel.Error) {
		if mm.PageFromAddress(addr) == mappedPage {
			return addr, nil
		}
		return 0, &kernel.Error{Module: "vmm", Message: "not mapped"}
	}

	var mappedCalls []mm.Page
	mapFn = func(page mm.Page, _ mm.Frame, flags PageTableEntryFlag) *kernel.Error {
		if flags&FlagRW == 0 {
			t.Errorf("expected Writable flags to carry FlagRW")
		}
		mappedCalls = append(mappedCalls, page)
		return nil
	}

	mm.SetFrameAllocator(func() (mm.Frame, *kernel.Error) {
		return mm.Frame(1), nil
	})

	r := PageRange{Start: 0, End: 3}
	if err := EnsureIsMapped(r, Writable, UserAccessibleNo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Page 1 already translates successfully and must be left untouched.
	for _, p := range mappedCalls {
		if p == mappedPage {
			t.Errorf("EnsureIsMapped re-mapped already-mapped page %d", p)
		}
	}
	if len(mappedCalls) != 2 {
		t.Errorf("expected 2 newly-mapped pages; got %d", len(mappedCalls))
	}
}

func TestEnsureIsMappedFrameExhausted(t *testing.T) {
	defer func(origTranslateFn func(uintptr) (uintptr, *kernel.Error)) {
		translateFn = origTranslateFn
		mm.SetFrameAllocator(nil)
	}(translateFn)

	translateFn = func(uintptr) (uintptr, *kernel.Error) {
		return 0, &kernel.Error{Module: "vmm", Message: "not mapped"}
	}
	mm.SetFrameAllocator(func() (mm.Frame, *kernel.Error) {
		return mm.InvalidFrame, &kernel.Error{Module: "pmm", Message: "out of frames"}
	})

	err := EnsureIsMapped(PageRange{Start: 0, End: 1}, ReadOnly, UserAccessibleNo)
	if err != errFrameAllocationFailed {
		t.Fatalf("expected errFrameAllocationFailed; got %v", err)
	}
}

func TestAllocateAndMapPageRange(t *testing.T) {
	defer func(origMapFn func(mm.Page, mm.Frame, PageTableEntryFlag) *kernel.Error) {
		mapFn = origMapFn
		mm.SetFrameAllocator(nil)
	}(mapFn)

	mappedCount := 0
	mapFn = func(mm.Page, mm.Frame, PageTableEntryFlag) *kernel.Error {
		mappedCount++
		return nil
	}
	mm.SetFrameAllocator(func() (mm.Frame, *kernel.Error) {
		return mm.Frame(1), nil
	})

	if err := AllocateAndMapPageRange(PageRange{Start: 0, End: 4}, Executable, UserAccessibleYes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mappedCount != 4 {
		t.Errorf("expected Map to be called once per page (4); got %d", mappedCount)
	}
}

func TestDeallocateAndUnmapPage(t *testing.T) {
	defer func(origUnmapFn func(mm.Page) *kernel.Error) {
		unmapFn = origUnmapFn
	}(unmapFn)

	var unmappedPage mm.Page
	unmapFn = func(p mm.Page) *kernel.Error {
		unmappedPage = p
		return nil
	}

	addr := mm.PageSize * 7
	if err := DeallocateAndUnmapPage(addr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := mm.PageFromAddress(addr); unmappedPage != want {
		t.Errorf("expected page %d to be unmapped; got %d", want, unmappedPage)
	}
}

func TestEnsureRangeMapped(t *testing.T) {
	defer func(origMapFn func(mm.Page, mm.Frame, PageTableEntryFlag) *kernel.Error, origTranslateFn func(uintptr) (uintptr, *kernel.Error)) {
		mapFn = origMapFn
		translateFn = origTranslateFn
		mm.SetFrameAllocator(nil)
	}(mapFn, translateFn)

	translateFn = func(uintptr) (uintptr, *kernel.Error) {
		return 0, &kernel.Error{Module: "vmm", Message: "not mapped"}
	}

	var gotFlags PageTableEntryFlag
	mapFn = func(_ mm.Page, _ mm.Frame, flags PageTableEntryFlag) *kernel.Error {
		gotFlags = flags
		return nil
	}
	mm.SetFrameAllocator(func() (mm.Frame, *kernel.Error) {
		return mm.Frame(1), nil
	})

	if err := EnsureRangeMapped(0, mm.PageSize); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := flagsFor(Writable, UserAccessibleNo); gotFlags != want {
		t.Errorf("expected EnsureRangeMapped to map with Writable/kernel-only flags %x; got %x", want, gotFlags)
	}
}
