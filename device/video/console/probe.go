package console

import (
	"ferrite/device"
	"ferrite/kernel/hal/multiboot"
	"ferrite/kernel/mm/vmm"
)

var (
	getFramebufferInfoFn = multiboot.GetFramebufferInfo

	// mapRegionFn maps a physical framebuffer region into the kernel's
	// address space; shared by the VGA text and VESA framebuffer drivers.
	mapRegionFn = vmm.MapRegion

	// ProbeFuncs is a slice of device probe functions that is used by
	// the hal package to probe for console device hardware. Each driver
	// should use an init() block to append its probe function to this list.
	ProbeFuncs []device.ProbeFn
)
