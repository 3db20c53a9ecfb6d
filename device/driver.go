package device

import (
	"ferrite/kernel"
	"io"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. Diagnostics are written to
	// w so the hal package can prefix them with the driver's name.
	DriverInit(w io.Writer) *kernel.Error
}

// ProbeFn attempts to detect a particular piece of hardware. It returns an
// un-initialized Driver instance if the hardware is present or nil otherwise.
type ProbeFn func() Driver

// DetectOrder specifies the relative order in which a driver's probe
// function is invoked during hardware detection. Drivers that depend on
// another subsystem (e.g. a console driver that needs ACPI-provided
// framebuffer info) pick an order relative to that subsystem.
type DetectOrder uint8

// nolint
const (
	// DetectOrderEarly runs before everything else (e.g. the serial port,
	// needed so that early diagnostics have somewhere to go).
	DetectOrderEarly DetectOrder = iota

	// DetectOrderBeforeACPI runs after the Early drivers. The ACPI driver
	// itself and the console drivers register at this order.
	DetectOrderBeforeACPI

	// DetectOrderACPI runs after the BeforeACPI drivers, i.e. once the
	// ACPI driver has been probed.
	DetectOrderACPI

	// DetectOrderLast runs after every other registered driver.
	DetectOrderLast
)

// DriverInfo describes a registered driver probe.
type DriverInfo struct {
	// Order controls when Probe is invoked relative to other registered
	// drivers.
	Order DetectOrder

	// Probe attempts to detect the associated hardware.
	Probe ProbeFn
}

// DriverInfoList implements sort.Interface, ordering entries by Order.
type DriverInfoList []*DriverInfo

// Len implements sort.Interface.
func (l DriverInfoList) Len() int { return len(l) }

// Less implements sort.Interface.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

// Swap implements sort.Interface.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// registeredDrivers accumulates every DriverInfo passed to RegisterDriver.
// Drivers register themselves from an init() block in their own package.
var registeredDrivers DriverInfoList

// RegisterDriver appends info to the global driver registry. It is meant to
// be called from a driver package's init() function.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the full set of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
