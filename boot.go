package main

import "ferrite/kernel/kmain"

// multibootInfoPtr, kernelStart and kernelEnd are populated by the rt0
// assembly stub before it jumps here; they are declared as package
// variables (rather than passed as literals) so the compiler cannot prove
// main is a no-op and inline it away.
var (
	multibootInfoPtr uintptr
	kernelStart      uintptr
	kernelEnd        uintptr
)

// main is the trampoline the rt0 assembly code calls after it sets up the
// GDT and a minimal g0 able to run on the 4K bootstrap stack. It is not
// expected to return; if it does, rt0 halts the CPU.
func main() {
	kmain.Kmain(multibootInfoPtr, kernelStart, kernelEnd)
}
