package cpu

// Outb writes a byte to the given I/O port.
func Outb(port uint16, value byte)

// Inb reads a byte from the given I/O port.
func Inb(port uint16) byte

// Outw writes a 16-bit word to the given I/O port.
func Outw(port uint16, value uint16)

// Inw reads a 16-bit word from the given I/O port.
func Inw(port uint16) uint16

// Outl writes a 32-bit double word to the given I/O port.
func Outl(port uint16, value uint32)

// Inl reads a 32-bit double word from the given I/O port.
func Inl(port uint16) uint32
