// Package cmos reads the wall-clock time out of the MC146818 real-time
// clock registers exposed through the CMOS index/data port pair. It is a
// thin, external collaborator: the kernel treats the returned Time as an
// opaque timestamp source and does nothing else with the chip.
package cmos

import "ferrite/kernel/cpu"

const (
	portRegisterSelect = 0x70
	portData           = 0x71
)

const (
	regSeconds    = 0x00
	regMinutes    = 0x02
	regHours      = 0x04
	regWeekday    = 0x06
	regDayOfMonth = 0x07
	regMonth      = 0x08
	regYear       = 0x09
	regCentury    = 0x32
	regStatusA    = 0x0A
	regStatusB    = 0x0B
)

const (
	statusAUpdateInProgress = 1 << 6
	statusB24HourFormat     = 1 << 1
	statusBBinaryMode       = 1 << 2
)

// Time is a snapshot of the RTC registers, already normalized to binary
// (never BCD) values. Century is 0 when the chip exposes no century
// register, which the caller should treat as "unknown" rather than 1900.
type Time struct {
	Second, Minute, Hour uint8
	Weekday, Day, Month  uint8
	Year, Century        uint8
}

// Clock reads the CMOS RTC. The zero value is ready to use.
type Clock struct {
	binaryMode bool
	hour24     bool
	detected   bool
}

// Read returns the current RTC time. Per the MC146818 datasheet, a read
// can race an internal register update; Read re-reads until two
// consecutive samples agree, which also guarantees update-in-progress
// never overlaps the returned sample.
func (c *Clock) Read() Time {
	for c.updateInProgress() {
	}
	first := c.readRaw()
	for {
		for c.updateInProgress() {
		}
		second := c.readRaw()
		if first == second {
			return second
		}
		first = second
	}
}

func (c *Clock) readRaw() Time {
	if !c.detected {
		c.detect()
	}

	t := Time{
		Second:  c.readRegister(regSeconds),
		Minute:  c.readRegister(regMinutes),
		Hour:    c.readRegister(regHours),
		Weekday: c.readRegister(regWeekday),
		Day:     c.readRegister(regDayOfMonth),
		Month:   c.readRegister(regMonth),
		Year:    c.readRegister(regYear),
		Century: c.readRegister(regCentury),
	}

	if !c.binaryMode {
		t.Second = bcdToBinary(t.Second)
		t.Minute = bcdToBinary(t.Minute)
		t.Hour = bcdToBinary(t.Hour & 0x7F) // bit 7 marks PM in 12h BCD mode
		t.Day = bcdToBinary(t.Day)
		t.Month = bcdToBinary(t.Month)
		t.Year = bcdToBinary(t.Year)
		t.Century = bcdToBinary(t.Century)
	}

	return t
}

// detect reads status register B once to learn whether the chip reports
// binary or BCD values and 12h or 24h hours.
func (c *Clock) detect() {
	status := c.readRegister(regStatusB)
	c.hour24 = status&statusB24HourFormat != 0
	c.binaryMode = status&statusBBinaryMode != 0
	c.detected = true
}

func (c *Clock) updateInProgress() bool {
	return c.readRegister(regStatusA)&statusAUpdateInProgress != 0
}

func (c *Clock) readRegister(reg uint8) uint8 {
	cpu.Outb(portRegisterSelect, reg)
	return cpu.Inb(portData)
}

func bcdToBinary(bcd uint8) uint8 {
	return ((bcd & 0xF0) >> 1) + ((bcd & 0xF0) >> 3) + (bcd & 0x0F)
}
