package irq

// IRQNum identifies one of the 16 legacy PIC interrupt lines (0-15), as
// opposed to an ExceptionNum which identifies a CPU-raised exception.
type IRQNum uint8

const (
	// Timer fires at the configured PIT rate and drives the scheduler's
	// reschedule() calls.
	Timer IRQNum = 0

	// Keyboard fires once per PS/2 keyboard scancode byte.
	Keyboard IRQNum = 1
)

// IRQHandler is a function invoked when a hardware interrupt line fires.
// Unlike ExceptionHandler, an IRQHandler's Frame/Regs modifications are only
// observed by the scheduler (via the timer IRQ) and are otherwise
// informational.
type IRQHandler func(*Frame, *Regs)

// HandleIRQ registers handler as the recipient of the given hardware IRQ
// line. The installed IDT gate for the corresponding vector acknowledges the
// interrupt to the PIC after handler returns.
func HandleIRQ(irqNum IRQNum, handler IRQHandler)
