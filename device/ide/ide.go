// Package ide drives ATA hard disks over the legacy IDE PIO interface:
// register-level LBA28 reads and writes against the primary/secondary
// channels, polling status instead of waiting on IRQ14/IRQ15. Each
// detected drive is exposed as a blockdev.Device so it can be wrapped by
// a blockcache.Cache and mounted as an ext2 (or ustar) volume.
package ide

import (
	"ferrite/kernel"
	"ferrite/kernel/cpu"
)

// Channel identifies one of the two legacy IDE controllers.
type Channel struct {
	name     string
	ioBase   uint16
	ctrlBase uint16
}

// Primary and Secondary are the two legacy ISA IDE channels. A
// PCI-attached controller running in native mode exposes the same
// register layout at its BARs; device/pci.FindIDEControllers resolves
// those for the non-legacy case.
var (
	Primary   = Channel{name: "ide0", ioBase: 0x1F0, ctrlBase: 0x3F6}
	Secondary = Channel{name: "ide1", ioBase: 0x170, ctrlBase: 0x376}
)

// register offsets from a channel's I/O base.
const (
	regData         = 0
	regError        = 1
	regFeatures     = 1
	regSectorCount  = 2
	regLBALow       = 3
	regLBAMid       = 4
	regLBAHigh      = 5
	regDriveHead    = 6
	regStatus       = 7
	regCommand      = 7
	regAltStatus    = 0 // offset from ctrlBase
	regDeviceCtrl   = 0 // offset from ctrlBase
	driveMasterBase = 0xE0
	driveSlaveBase  = 0xF0
)

// status register bits.
const (
	statusERR = 1 << 0
	statusDRQ = 1 << 3
	statusSRV = 1 << 4
	statusDF  = 1 << 5
	statusRDY = 1 << 6
	statusBSY = 1 << 7
)

// ATA commands.
const (
	cmdReadSectors  = 0x20
	cmdWriteSectors = 0x30
	cmdIdentify     = 0xEC
	cmdCacheFlush   = 0xE7
)

var (
	errNoDrive    = &kernel.Error{Module: "ide", Message: "no drive present"}
	errIOFailure  = &kernel.Error{Module: "ide", Message: "ata command failed"}
	errOutOfRange = &kernel.Error{Module: "ide", Message: "block number out of range"}
	errBadBuffer  = &kernel.Error{Module: "ide", Message: "buffer length does not match block size"}
)

// Drive is a single ATA disk reached over PIO, addressed with 28-bit LBA.
// Reads and writes operate one 512-byte sector at a time, matching
// blockdev.BlockSize exactly.
type Drive struct {
	chanName    string
	ioBase      uint16
	ctrlBase    uint16
	driveSelect uint8
	sectors     uint64
}

// DriverName returns the name of this driver.
func (d *Drive) DriverName() string { return d.chanName }

// DriverVersion returns the version of this driver.
func (d *Drive) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

// Detect probes both legacy drives (master, slave) on ch and returns a
// *Drive for each one that answers IDENTIFY. A channel with no attached
// hardware (floating bus) yields zero drives, not an error.
func Detect(ch Channel) []*Drive {
	var found []*Drive
	for _, sel := range []uint8{driveMasterBase, driveSlaveBase} {
		d := &Drive{chanName: ch.name, ioBase: ch.ioBase, ctrlBase: ch.ctrlBase, driveSelect: sel}
		if sectors, err := d.identify(); err == nil {
			d.sectors = sectors
			found = append(found, d)
		}
	}
	return found
}

func (d *Drive) selectDrive() {
	cpu.Outb(d.ioBase+regDriveHead, d.driveSelect)
	ioWait(d)
}

// ioWait reads the alternate status register four times, the conventional
// ~400ns settle delay after selecting a drive or issuing a command.
func ioWait(d *Drive) {
	for i := 0; i < 4; i++ {
		cpu.Inb(d.ctrlBase + regAltStatus)
	}
}

// waitNotBusy polls the status register until BSY clears.
func (d *Drive) waitNotBusy() {
	for cpu.Inb(d.ioBase+regStatus)&statusBSY != 0 {
	}
}

// waitDRQ polls until either DRQ is set (data ready) or ERR/DF is set
// (command failed), returning the final status byte.
func (d *Drive) waitDRQ() uint8 {
	for {
		status := cpu.Inb(d.ioBase + regStatus)
		if status&(statusERR|statusDF) != 0 {
			return status
		}
		if status&statusDRQ != 0 {
			return status
		}
	}
}

// identify issues IDENTIFY DEVICE and returns the drive's total LBA28
// sector count on success.
func (d *Drive) identify() (uint64, *kernel.Error) {
	d.selectDrive()

	cpu.Outb(d.ioBase+regSectorCount, 0)
	cpu.Outb(d.ioBase+regLBALow, 0)
	cpu.Outb(d.ioBase+regLBAMid, 0)
	cpu.Outb(d.ioBase+regLBAHigh, 0)
	cpu.Outb(d.ioBase+regCommand, cmdIdentify)

	if cpu.Inb(d.ioBase+regStatus) == 0 {
		return 0, errNoDrive
	}

	d.waitNotBusy()

	// A non-ATA (e.g. ATAPI) device reports a non-zero LBA mid/high
	// signature instead of clearing to zero; treat it as absent since
	// this driver only speaks ATA PIO disks.
	if cpu.Inb(d.ioBase+regLBAMid) != 0 || cpu.Inb(d.ioBase+regLBAHigh) != 0 {
		return 0, errNoDrive
	}

	status := d.waitDRQ()
	if status&statusERR != 0 {
		return 0, errNoDrive
	}

	var data [256]uint16
	for i := range data {
		data[i] = cpu.Inw(d.ioBase + regData)
	}

	sectors := uint64(data[60]) | uint64(data[61])<<16
	return sectors, nil
}

// setupLBA28 programs the sector count and LBA28 address registers for a
// single-sector transfer at block n.
func (d *Drive) setupLBA28(n uint64) {
	cpu.Outb(d.ioBase+regDriveHead, d.driveSelect|uint8((n>>24)&0x0F))
	cpu.Outb(d.ioBase+regSectorCount, 1)
	cpu.Outb(d.ioBase+regLBALow, uint8(n))
	cpu.Outb(d.ioBase+regLBAMid, uint8(n>>8))
	cpu.Outb(d.ioBase+regLBAHigh, uint8(n>>16))
}

// ReadBlock reads the 512-byte sector n into buf.
func (d *Drive) ReadBlock(n uint64, buf []byte) *kernel.Error {
	if len(buf) != blockSize {
		return errBadBuffer
	}
	if n >= d.sectors {
		return errOutOfRange
	}

	d.waitNotBusy()
	d.setupLBA28(n)
	cpu.Outb(d.ioBase+regCommand, cmdReadSectors)

	d.waitNotBusy()
	if status := d.waitDRQ(); status&statusERR != 0 {
		return errIOFailure
	}

	for i := 0; i < blockSize; i += 2 {
		word := cpu.Inw(d.ioBase + regData)
		buf[i] = byte(word)
		buf[i+1] = byte(word >> 8)
	}

	return nil
}

// WriteBlock writes buf (exactly 512 bytes) to sector n and flushes the
// drive's write cache before returning.
func (d *Drive) WriteBlock(n uint64, buf []byte) *kernel.Error {
	if len(buf) != blockSize {
		return errBadBuffer
	}
	if n >= d.sectors {
		return errOutOfRange
	}

	d.waitNotBusy()
	d.setupLBA28(n)
	cpu.Outb(d.ioBase+regCommand, cmdWriteSectors)

	d.waitNotBusy()
	if status := d.waitDRQ(); status&statusERR != 0 {
		return errIOFailure
	}

	for i := 0; i < blockSize; i += 2 {
		word := uint16(buf[i]) | uint16(buf[i+1])<<8
		cpu.Outw(d.ioBase+regData, word)
	}

	cpu.Outb(d.ioBase+regCommand, cmdCacheFlush)
	d.waitNotBusy()

	return nil
}

// BlockCount returns the drive's total capacity in 512-byte blocks.
func (d *Drive) BlockCount() uint64 {
	return d.sectors
}

// blockSize mirrors blockdev.BlockSize; duplicated as an untyped constant
// to avoid this low-level package importing blockdev just for one value
// used only inside these bounds checks.
const blockSize = 512
