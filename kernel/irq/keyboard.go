package irq

import (
	"ferrite/device/pic"
	"ferrite/kernel/cpu"
)

// scancodeQueueSize is the depth of the ring buffer backing the scancode
// queue. 256 bytes comfortably absorbs a burst of key events between
// scheduler passes without requiring a consumer to drain it on every tick.
const scancodeQueueSize = 256

var (
	scancodeQueue [scancodeQueueSize]byte
	queueHead     uint8 // next slot the IRQ handler writes to
	queueTail     uint8 // next slot PopScancode reads from
)

// keyboardDataPort is the PS/2 controller's data port; reading it also acts
// as the hardware's implicit acknowledgement that the byte was consumed.
const keyboardDataPort = 0x60

// InitKeyboard installs the keyboard IRQ handler. It must be called once,
// after the PIC has been remapped.
func InitKeyboard() {
	HandleIRQ(Keyboard, handleKeyboardIRQ)
}

func handleKeyboardIRQ(_ *Frame, _ *Regs) {
	scancode := cpu.Inb(keyboardDataPort)
	pushScancode(scancode)
	pic.EOI(uint8(Keyboard))
}

// pushScancode enqueues a scancode byte. On a full queue the oldest,
// unconsumed byte is silently dropped in favor of the newest; keyboard
// input has no redelivery contract and a consumer that falls this far
// behind has already lost events it can't meaningfully recover.
func pushScancode(b byte) {
	next := queueHead + 1
	if next == queueTail {
		queueTail++
	}
	scancodeQueue[queueHead] = b
	queueHead = next
}

// PopScancode removes and returns the oldest queued scancode, reporting
// false if the queue is empty. Interrupts are disabled for the duration of
// the check-and-advance so a timer or keyboard interrupt cannot observe a
// partially updated queueTail.
func PopScancode() (byte, bool) {
	cpu.DisableInterrupts()
	defer cpu.EnableInterrupts()

	if queueTail == queueHead {
		return 0, false
	}

	b := scancodeQueue[queueTail]
	queueTail++
	return b, true
}
