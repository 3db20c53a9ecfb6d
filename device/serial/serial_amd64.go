// Package serial drives the 16550 UART at COM1 (0x3F8), the kernel's
// earliest and most reliable output channel.
package serial

import (
	"ferrite/kernel"
	"ferrite/kernel/cpu"
)

const (
	com1 = 0x3F8

	regData        = com1 + 0
	regIntEnable   = com1 + 1
	regFIFOCtrl    = com1 + 2
	regLineCtrl    = com1 + 3
	regModemCtrl   = com1 + 4
	regLineStatus  = com1 + 5
	divisorLSBPort = com1 + 0
	divisorMSBPort = com1 + 1

	lineStatusTxEmpty = 1 << 5
	lineStatusRxReady = 1 << 0
)

// Port drives a single UART instance.
type Port struct {
	base uint16
}

// COM1 is the well-known first serial port.
var COM1 = &Port{base: com1}

func (p *Port) DriverName() string { return "serial" }

func (p *Port) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

// DriverInit programs the UART for 38400 baud, 8N1, FIFOs enabled with a
// 14-byte threshold, matching the
// configuration QEMU's -serial stdio backend expects without negotiation.
func (p *Port) DriverInit() *kernel.Error {
	cpu.Outb(p.base+1, 0x00) // disable interrupts
	cpu.Outb(p.base+3, 0x80) // enable DLAB to set the baud divisor
	cpu.Outb(p.base+0, 0x03) // divisor low byte: 38400 baud
	cpu.Outb(p.base+1, 0x00) // divisor high byte
	cpu.Outb(p.base+3, 0x03) // 8 bits, no parity, one stop bit
	cpu.Outb(p.base+2, 0xC7) // enable FIFO, clear, 14-byte threshold
	cpu.Outb(p.base+4, 0x0B) // DTR, RTS and OUT2 set
	return nil
}

func (p *Port) txReady() bool {
	return cpu.Inb(p.base+5)&lineStatusTxEmpty != 0
}

func (p *Port) rxReady() bool {
	return cpu.Inb(p.base+5)&lineStatusRxReady != 0
}

// WriteByte blocks until the transmit holding register is empty, then
// sends b.
func (p *Port) WriteByte(b byte) {
	for !p.txReady() {
	}
	cpu.Outb(p.base, b)
}

// Write sends every byte of buf and returns its length; the UART has no
// failure mode this driver surfaces.
func (p *Port) Write(buf []byte) (int, *kernel.Error) {
	for _, b := range buf {
		p.WriteByte(b)
	}
	return len(buf), nil
}

// ReadByte reports whether a byte was available and, if so, its value.
// It never blocks.
func (p *Port) ReadByte() (byte, bool) {
	if !p.rxReady() {
		return 0, false
	}
	return cpu.Inb(p.base), true
}

// Read fills buf with whatever bytes are immediately available, without
// blocking, and returns how many were read.
func (p *Port) Read(buf []byte) (int, *kernel.Error) {
	n := 0
	for n < len(buf) {
		b, ok := p.ReadByte()
		if !ok {
			break
		}
		buf[n] = b
		n++
	}
	return n, nil
}
