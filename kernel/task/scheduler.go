package task

import (
	"ferrite/kernel"
	"ferrite/kernel/cpu"
	"ferrite/kernel/irq"
	"ferrite/kernel/mm/kbuffer"
	"ferrite/kernel/sync"
)

var (
	schedLock sync.Spinlock

	tasks   = map[TID]*ThreadControlBlock{}
	readyQ  []TID
	nextTID TID = 1

	current *ThreadControlBlock
	idle    *ThreadControlBlock

	// finishedQ holds tids whose task has called exit but has not yet
	// been reaped by a later reschedule call.
	finishedQ []TID

	// taskCount tracks live (non-reaped) tasks.
	taskCount int
)

// Init brings up the scheduler: it registers the boot-time caller as task 0
// (the "kernel" task, which owns no KBuffer stack and runs on the boot
// stack), spawns the idle task, and wires the timer IRQ and Spinlock's
// contention hook to reschedule/Yield.
func Init() {
	boot := &ThreadControlBlock{TID: 0, Status: Running}
	tasks[0] = boot
	current = boot
	taskCount = 1
	nextTID = 1

	idleTID, err := spawnLocked(idleLoop, false)
	if err != nil {
		kernel.Panic(err)
	}
	idle = tasks[idleTID]
	idle.IsIdle = true

	sync.SetYieldFunc(Yield)
	irq.SetTickHandler(func(_ *irq.Frame, _ *irq.Regs) {
		reschedule()
	})
}

// Spawn creates a new Ready task executing entryPoint on its own
// KBuffer-backed stack and returns its tid.
func Spawn(entryPoint func()) (TID, *kernel.Error) {
	schedLock.Acquire()
	defer schedLock.Release()

	return spawnLocked(entryPoint, true)
}

func spawnLocked(entryPoint func(), enqueue bool) (TID, *kernel.Error) {
	stack, err := kbuffer.AllocBuffer(StackSize, stackAlign)
	if err != nil {
		return 0, err
	}

	entryAddr := funcAddrFn(entryPoint)

	tcb := &ThreadControlBlock{
		TID:              nextTID,
		Status:           Ready,
		Stack:            stack,
		LastStackPointer: initStackFn(stack, entryAddr),
	}

	tasks[tcb.TID] = tcb
	nextTID++
	taskCount++

	if enqueue {
		readyQ = append(readyQ, tcb.TID)
	}

	return tcb.TID, nil
}

// funcAddr resolves a task entry point's code address. Declared without a
// body: the assembly glue that packages a Go func value as a bare code
// pointer lives outside this retrieval, matching every other arch-specific
// primitive in this package.
func funcAddr(fn func()) uintptr

// funcAddrFn and initStackFn indirect the two arch-specific, unrunnable-
// on-host calls spawnLocked makes, so tests can substitute fakes the same
// way contextSwitchFn lets reschedule be tested without a real switch.
var (
	funcAddrFn  = funcAddr
	initStackFn = initStack
)

// Yield is installed as the Spinlock contention hook once the scheduler is
// initialized: a task that cannot immediately acquire a contended lock
// gives up the remainder of its quantum instead of busy-waiting blindly.
func Yield() {
	reschedule()
}

// reschedule implements the scheduler's non-preemptive selection
// algorithm. It is the only place that calls contextSwitchFn.
func reschedule() {
	cpu.DisableInterrupts()
	defer cpu.EnableInterrupts()

	schedLock.Acquire()
	defer schedLock.Release()

	reapOne()

	self := current
	oldStatus := self.Status

	pickedTID, ok := popReady()
	var next *ThreadControlBlock
	if ok {
		next = tasks[pickedTID]
	} else if idle != nil {
		next = idle
	} else {
		return
	}

	if next.IsIdle && oldStatus == Running {
		return
	}

	switch oldStatus {
	case Running:
		self.Status = Ready
		readyQ = append(readyQ, self.TID)
	case Finished:
		self.Status = Invalid
		finishedQ = append(finishedQ, self.TID)
	}

	next.Status = Running
	next.Ticks++
	current = next

	contextSwitchFn(&self.LastStackPointer, next.LastStackPointer)
}

// popReady removes and returns the head of the ready queue, or false if it
// is empty.
func popReady() (TID, bool) {
	for len(readyQ) > 0 {
		tid := readyQ[0]
		readyQ = readyQ[1:]

		tcb, exists := tasks[tid]
		if !exists || tcb.Status != Ready {
			continue
		}
		return tid, true
	}
	return 0, false
}

// reapOne removes at most one Invalid task from the reaping queue,
// reclaiming its TCB. Bounded to one per call so reschedule's own cost
// stays predictable.
func reapOne() {
	if len(finishedQ) == 0 {
		return
	}

	tid := finishedQ[0]
	finishedQ = finishedQ[1:]

	delete(tasks, tid)
	taskCount--
}

// Exit marks the calling task Finished, reschedules away from it, and
// never returns: once reaped, its stack and TCB are gone, so any code path
// that would run after Exit is unreachable by construction.
func Exit() {
	schedLock.Acquire()
	current.Status = Finished
	schedLock.Release()

	reschedule()

	for {
		cpu.Halt()
	}
}

// Wakeup transitions a Blocked task back to Ready.
func Wakeup(tid TID) {
	schedLock.Acquire()
	defer schedLock.Release()

	tcb, ok := tasks[tid]
	if !ok || tcb.Status != Blocked {
		return
	}
	tcb.Status = Ready
	readyQ = append(readyQ, tid)
}

// Block transitions the calling task to Blocked and yields.
func Block() {
	schedLock.Acquire()
	current.Status = Blocked
	schedLock.Release()

	reschedule()
}

// Join blocks the calling task until tid is no longer present in the task
// map (i.e. it has been reaped). Joining the calling task's own tid
// returns immediately.
func Join(tid TID) {
	if current.TID == tid {
		return
	}

	for {
		schedLock.Acquire()
		_, present := tasks[tid]
		schedLock.Release()

		if !present {
			return
		}
		reschedule()
	}
}

// Current returns the tid of the currently running task.
func Current() TID {
	return current.TID
}

// idleLoop is the sentinel task scheduled whenever no other task is Ready.
// It never finishes.
func idleLoop() {
	for {
		cpu.Halt()
	}
}
