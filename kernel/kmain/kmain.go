// Package kmain wires together every subsystem the kernel depends on, in
// the strict leaves-first order the layering table requires: physical and
// virtual memory, the Go runtime's allocator, interrupts and the PIC, the
// cooperative scheduler, hardware detection, and finally the VFS tree
// (devfs, an in-memory /dev/mem, and an ext2 volume per detected IDE
// drive).
package kmain

import (
	"ferrite/device/cmos"
	"ferrite/device/ide"
	"ferrite/device/pci"
	"ferrite/device/pic"
	"ferrite/device/serial"
	"ferrite/kernel"
	"ferrite/kernel/blockcache"
	"ferrite/kernel/cpu"
	"ferrite/kernel/fs/devfs"
	"ferrite/kernel/fs/ext2"
	"ferrite/kernel/fs/memfs"
	"ferrite/kernel/goruntime"
	"ferrite/kernel/hal"
	hmultiboot "ferrite/kernel/hal/multiboot"
	"ferrite/kernel/irq"
	"ferrite/kernel/kfmt"
	"ferrite/kernel/mm/pmm"
	"ferrite/kernel/mm/vmm"
	"ferrite/kernel/task"
	"ferrite/kernel/vfs"
	rootmultiboot "ferrite/multiboot"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// blockCacheBlocks is the number of 512-byte blocks each mounted volume's
// blockcache.Cache keeps hot.
const blockCacheBlocks = 256

// kernelPageOffset is the virtual base the linker script maps the kernel
// image to: the conventional x86_64 higher-half split at -2GiB. vmm.Init
// uses it to translate the ELF section addresses multiboot reports into
// physical frames while building the kernel's page tables.
const kernelPageOffset = 0xffffffff80000000

// Kmain is the only Go symbol the rt0 assembly trampoline calls. It never
// returns in normal operation; rt0 halts the CPU if it does.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	hmultiboot.SetInfoPtr(multibootInfoPtr)
	rootmultiboot.SetInfoPtr(multibootInfoPtr)

	var err *kernel.Error
	if err = pmm.Init(kernelStart, kernelEnd); err != nil {
		kernel.Panic(err)
	}

	if err = vmm.Init(kernelPageOffset); err != nil {
		kernel.Panic(err)
	}

	if err = goruntime.Init(); err != nil {
		kernel.Panic(err)
	}

	pic.Remap()
	irq.InitTimer()
	irq.InitKeyboard()
	cpu.EnableInterrupts()

	task.Init()

	hal.DetectHardware()

	t := bootTime()
	kfmt.Printf("ferrite: boot at %d-%d-%d %d:%d:%d UTC\n",
		uint32(t.Century)*100+uint32(t.Year), t.Month, t.Day, t.Hour, t.Minute, t.Second)

	buildVFSTree()

	kernel.Panic(errKmainReturned)
}

// buildVFSTree assembles the post-init virtual path tree: / with /dev
// (devfs) and /dev/mem (memfs) always present, plus /dev/ide<N> for every
// IDE drive that both answers IDENTIFY and mounts as a readable ext2
// volume.
func buildVFSTree() *vfs.Tree {
	root := vfs.NewRootDir()
	tree := vfs.NewTree(root)

	if err := serial.COM1.DriverInit(); err != nil {
		kfmt.Printf("kmain: serial init failed: %s\n", err.Error())
	}

	if err := tree.Mount("/dev", vfs.DirNode(devfs.Tree(serial.COM1))); err != nil {
		kfmt.Printf("kmain: mount /dev failed: %s\n", err.Error())
	}

	if err := tree.Mount("/dev/mem", vfs.DirNode(memfs.NewDir())); err != nil {
		kfmt.Printf("kmain: mount /dev/mem failed: %s\n", err.Error())
	}

	mountIDEDrives(tree)

	return tree
}

// mountIDEDrives probes the two legacy ISA IDE channels (0x1F0/0x3F6 and
// 0x170/0x376) and mounts a read-only ext2 volume at /dev/ide<N> for each
// drive whose superblock actually decodes as ext2. device/pci.FindIDEControllers
// is consulted only to log whether the bus also exposes a PCI IDE
// controller in native mode; this driver always talks to the drive through
// the legacy compatibility-mode ports, since most IDE controllers (including
// QEMU's piix3-ide default) decode them regardless of PCI BAR assignment.
func mountIDEDrives(tree *vfs.Tree) {
	channels := []ide.Channel{ide.Primary, ide.Secondary}
	if controllers := pci.FindIDEControllers(); len(controllers) > 0 {
		kfmt.Printf("kmain: found %d PCI IDE controller(s), using legacy compatibility-mode ports\n", len(controllers))
	}

	n := 0
	for _, ch := range channels {
		for _, drv := range ide.Detect(ch) {
			cache := blockcache.New(drv, blockCacheBlocks)

			fs, err := ext2.Mount(cache)
			if err != nil {
				kfmt.Printf("kmain: %s: not an ext2 volume: %s\n", drv.DriverName(), err.Error())
				continue
			}

			rootNode, err := fs.Root()
			if err != nil {
				kfmt.Printf("kmain: %s: failed to read ext2 root inode: %s\n", drv.DriverName(), err.Error())
				continue
			}

			mountPoint := "/dev/ide" + itoa(n)
			if err := tree.Mount(mountPoint, rootNode); err != nil {
				kfmt.Printf("kmain: mount %s failed: %s\n", mountPoint, err.Error())
				continue
			}

			n++
		}
	}
}

// itoa converts small non-negative indices without pulling in strconv,
// which depends on runtime features not yet guaranteed to be available
// this early in boot.
func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// bootTime reads the wall-clock time off the CMOS RTC for the boot log
// line above. The kernel treats the reading as an opaque timestamp and
// does not maintain wall-clock time after boot.
func bootTime() cmos.Time {
	var clk cmos.Clock
	return clk.Read()
}
