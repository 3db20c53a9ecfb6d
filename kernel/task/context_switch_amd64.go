package task

import (
	"unsafe"

	"ferrite/kernel/mm/kbuffer"
)

// savedFrame is the layout context_switch expects to find at a task's
// stack pointer between switches: callee-saved general registers,
// flags, and the return address context_switch's own ret will jump to.
// A task that has never run has this frame synthesized by initStack
// instead of written by a real switch-out.
type savedFrame struct {
	R15, R14, R13, R12, RBX uint64
	RBP                     uint64
	RFlags                  uint64
	RIP                     uint64
}

// contextSwitch saves the currently running task's callee-saved registers
// and flags onto its own stack, records the resulting stack pointer to
// *oldSP, switches RSP to newSP, restores the callee-saved registers and
// flags found there, and returns into the restored RIP. Interrupts must
// already be disabled by the caller; the restored RFLAGS value determines
// whether they come back enabled.
func contextSwitch(oldSP *uintptr, newSP uintptr)

// contextSwitchFn indirects every call site through a package-level
// variable so tests can substitute a fake switch that never touches the
// CPU, matching the mock-function-variable convention used throughout
// this codebase for assembly-backed primitives.
var contextSwitchFn = contextSwitch

// leaveTaskTrampolineAddr returns the address of the leave_task trampoline:
// a tiny piece of glue that calls exit() on behalf of any task entry point
// that returns instead of calling exit() itself.
func leaveTaskTrampolineAddr() uintptr

// initStack prepares a brand-new task's stack so that the first time it is
// switched into, the restored RIP/RFLAGS/RBP make it indistinguishable from
// a task that yielded normally. It returns the stack pointer to record as
// the task's LastStackPointer.
func initStack(stack kbuffer.Buffer, entryPoint uintptr) uintptr {
	top := stack.Top()

	// The leave_task trampoline's address sits directly above the
	// synthesized register frame, so once context_switch's final ret
	// pops RIP (loading entryPoint), the next value on the stack is
	// entryPoint's own "return address" -- leaveTask.
	frameSize := unsafe.Sizeof(savedFrame{})
	frameAddr := (top - 8 - frameSize) &^ (stackAlign - 1)
	leaveTaskAddr := frameAddr + frameSize

	frame := (*savedFrame)(unsafe.Pointer(frameAddr))
	*frame = savedFrame{
		RFlags: 0x1202,
		RIP:    entryPoint,
	}
	frame.RBP = frameAddr + 8

	*(*uintptr)(unsafe.Pointer(leaveTaskAddr)) = leaveTaskTrampolineAddr()

	return frameAddr
}
