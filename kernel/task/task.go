// Package task implements the kernel's cooperative, non-preemptive
// round-robin scheduler: thread control blocks, KBuffer-backed stacks, the
// context switch contract, and the Ready/Running/Blocked/Finished/Invalid
// lifecycle driven by explicit yield points and the timer IRQ.
package task

import "ferrite/kernel/mm/kbuffer"

// TID identifies a task for its entire lifetime. TIDs are never reused.
type TID uint64

// Status is a task's position in the scheduler state machine.
type Status uint8

const (
	// Ready tasks are eligible to be picked by reschedule.
	Ready Status = iota

	// Running is held by exactly one task at a time: the one whose
	// context is currently loaded onto the CPU.
	Running

	// Blocked tasks are excluded from selection until woken with
	// Wakeup, which transitions them back to Ready.
	Blocked

	// Sleeping is part of the task status domain but no operation in
	// this scheduler currently produces it: a kernel thread never
	// blocks on a timed sleep in the current design, only on the
	// explicit Blocked/Wakeup pair.
	Sleeping

	// Finished tasks have called exit and are queued for one-time
	// reaping by a later reschedule call.
	Finished

	// Invalid is the terminal state of a task after it has been
	// reaped; any TID map lookup finding this state behaves as if the
	// tid were entirely absent.
	Invalid
)

// StackSize is the size of the KBuffer-backed stack allocated for every
// spawned task (the original boot task excepted; it runs on the boot
// stack and owns no KBuffer allocation).
const StackSize = 8 * 1024

// stackAlign is the alignment KBuffer task stacks are allocated with.
const stackAlign = 64

// ThreadControlBlock is the scheduler's per-task record.
type ThreadControlBlock struct {
	TID    TID
	Status Status

	// LastStackPointer holds the value the context switch should load
	// into RSP to resume this task, valid only while Status is not
	// Running.
	LastStackPointer uintptr

	// Stack is the KBuffer allocation backing this task's stack. The
	// original boot task's Stack is the zero value: it uses the boot
	// stack instead, per the spec's own framing ("the kernel task owns
	// no stack buffer").
	Stack kbuffer.Buffer

	// Ticks counts how many times this task has been marked Running.
	Ticks uint64

	// IsIdle marks the sentinel task scheduled when no other task is
	// Ready.
	IsIdle bool
}
