// Package pci scans the legacy PCI configuration space (I/O ports
// 0xCF8/0xCFC) for attached devices. It has no teacher precedent in
// gopher-os (which never reaches storage hardware); the config-space access
// pattern below follows spec.md's own prose contract directly, written in
// the same small-struct-plus-port-I/O style as device/pic.
package pci

import "ferrite/kernel/cpu"

const (
	configAddress = 0xCF8
	configData    = 0xCFC

	// vendorNone marks a bus/slot/function with no device attached.
	vendorNone = 0xFFFF

	// multiFunctionBit, set in the header type byte, indicates that
	// functions 1-7 of a slot may also hold devices.
	multiFunctionBit = 0x80
)

// Class codes and subclasses this kernel cares about when scanning for mass
// storage controllers.
const (
	ClassMassStorage = 0x01
	SubclassIDE      = 0x01
)

// Address identifies a single PCI function by its bus/slot/function triple.
type Address struct {
	Bus, Slot, Function uint8
}

// Device describes a PCI function discovered during a Scan.
type Device struct {
	Address

	VendorID, DeviceID uint16
	Revision, ProgIF   uint8
	Subclass, Class    uint8
	HeaderType         uint8
}

// BAR reads base address register index (0-5) for this device's function.
func (d *Device) BAR(index uint8) uint32 {
	return d.readDword(0x10 + uint8(index)*4)
}

// configDwordAddress builds the 32-bit value written to the address port to
// select byte offset off (rounded down to a dword boundary) within a.
func (a Address) configDwordAddress(off uint8) uint32 {
	return 1<<31 | uint32(a.Bus)<<16 | uint32(a.Slot)<<11 | uint32(a.Function)<<8 | uint32(off&0xFC)
}

func (a Address) readDword(off uint8) uint32 {
	cpu.Outl(configAddress, a.configDwordAddress(off))
	return cpu.Inl(configData)
}

func (a Address) readWord(off uint8) uint16 {
	dword := a.readDword(off &^ 1)
	shift := uint((off & 2) * 8)
	return uint16(dword >> shift)
}

// probeFunction reads the vendor ID of bus:slot.function and, if a device is
// present, decodes the rest of its identification fields.
func probeFunction(bus, slot, function uint8) (*Device, bool) {
	addr := Address{Bus: bus, Slot: slot, Function: function}

	vendor := addr.readWord(0x00)
	if vendor == vendorNone {
		return nil, false
	}

	classReg := addr.readDword(0x08)
	headerType := uint8(addr.readDword(0x0C) >> 16)

	return &Device{
		Address:    addr,
		VendorID:   vendor,
		DeviceID:   addr.readWord(0x02),
		Revision:   uint8(classReg),
		ProgIF:     uint8(classReg >> 8),
		Subclass:   uint8(classReg >> 16),
		Class:      uint8(classReg >> 24),
		HeaderType: headerType,
	}, true
}

// Visitor is invoked once per discovered PCI device. Returning false stops
// the scan early.
type Visitor func(*Device) bool

// Scan walks every bus, slot and, for multi-function devices, every
// function, skipping any slot whose vendor ID reads back as 0xFFFF (no
// device present), and invokes visitor for each device found.
func Scan(visitor Visitor) {
	for bus := 0; bus < 256; bus++ {
		for slot := 0; slot < 32; slot++ {
			dev, ok := probeFunction(uint8(bus), uint8(slot), 0)
			if !ok {
				continue
			}
			if !visitor(dev) {
				return
			}

			if dev.HeaderType&multiFunctionBit == 0 {
				continue
			}

			for fn := uint8(1); fn < 8; fn++ {
				if dev, ok := probeFunction(uint8(bus), uint8(slot), fn); ok {
					if !visitor(dev) {
						return
					}
				}
			}
		}
	}
}

// FindIDEControllers scans the whole PCI bus and returns every function
// whose class/subclass identifies it as an IDE mass-storage controller.
func FindIDEControllers() []*Device {
	var found []*Device
	Scan(func(d *Device) bool {
		if d.Class == ClassMassStorage && d.Subclass == SubclassIDE {
			found = append(found, d)
		}
		return true
	})
	return found
}
