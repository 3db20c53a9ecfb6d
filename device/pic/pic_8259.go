// Package pic drives the dual 8259 programmable interrupt controllers,
// remapping their interrupt vectors away from the CPU exception range and
// acknowledging serviced IRQs.
package pic

import "ferrite/kernel/cpu"

const (
	masterCommand = 0x20
	masterData    = 0x21
	slaveCommand  = 0xA0
	slaveData     = 0xA1

	icw1Init  = 0x11 // edge-triggered, cascade mode, ICW4 present
	icw4_8086 = 0x01

	// eoi is the end-of-interrupt command byte.
	eoi = 0x20
)

// MasterOffset and SlaveOffset are the interrupt vectors IRQ 0 and IRQ 8 are
// remapped to, matching the vector layout named for this kernel: master at
// 32 (clear of the CPU's reserved 0-31 exception vectors), slave at 40.
const (
	MasterOffset = 32
	SlaveOffset  = 40
)

// ioWait gives the (very old, very slow) 8259 time to process a command by
// writing to an unused port, the conventional trick for "do nothing for
// about 1-4 microseconds" on real hardware.
func ioWait() {
	cpu.Outb(0x80, 0)
}

// Remap reinitializes both PICs so that master IRQs land on vectors
// [MasterOffset, MasterOffset+8) and slave IRQs on [SlaveOffset,
// SlaveOffset+8), and wires IRQ2 as the master->slave cascade line.
func Remap() {
	masterMask := cpu.Inb(masterData)
	slaveMask := cpu.Inb(slaveData)

	cpu.Outb(masterCommand, icw1Init)
	ioWait()
	cpu.Outb(slaveCommand, icw1Init)
	ioWait()

	cpu.Outb(masterData, MasterOffset)
	ioWait()
	cpu.Outb(slaveData, SlaveOffset)
	ioWait()

	cpu.Outb(masterData, 4) // tell master PIC there's a slave at IRQ2
	ioWait()
	cpu.Outb(slaveData, 2) // tell slave PIC its cascade identity
	ioWait()

	cpu.Outb(masterData, icw4_8086)
	ioWait()
	cpu.Outb(slaveData, icw4_8086)
	ioWait()

	cpu.Outb(masterData, masterMask)
	cpu.Outb(slaveData, slaveMask)
}

// EOI sends an end-of-interrupt command for the given IRQ line (0-15). IRQs
// serviced by the slave PIC require an EOI to both controllers.
func EOI(irqLine uint8) {
	if irqLine >= 8 {
		cpu.Outb(slaveCommand, eoi)
	}
	cpu.Outb(masterCommand, eoi)
}
