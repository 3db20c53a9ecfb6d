package irq

import "ferrite/device/pic"

// onTick is invoked on every timer interrupt, after the tick counter has
// been incremented and before the PIC is acknowledged. The scheduler
// installs its reschedule() entry point here via SetTickHandler; leaving it
// nil (e.g. in tests, or before the scheduler is brought up) makes the
// timer interrupt a no-op beyond counting ticks.
var onTick IRQHandler

var tickCount uint64

// SetTickHandler installs the function invoked on every timer interrupt.
// Only one handler can be active at a time; installing a new one replaces
// the previous.
func SetTickHandler(handler IRQHandler) {
	onTick = handler
}

// Ticks returns the number of timer interrupts observed since boot.
func Ticks() uint64 {
	return tickCount
}

// InitTimer installs the timer IRQ handler. It must be called once, after
// the PIC has been remapped.
func InitTimer() {
	HandleIRQ(Timer, handleTimerIRQ)
}

func handleTimerIRQ(frame *Frame, regs *Regs) {
	tickCount++

	if onTick != nil {
		onTick(frame, regs)
	}

	pic.EOI(uint8(Timer))
}
