package kernel

import (
	"bytes"
	"testing"

	"ferrite/device/tty"
	"ferrite/device/video/console"
	"ferrite/kernel/cpu"
	"ferrite/kernel/hal"
	"image/color"
)

func TestPanic(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
		hal.ActiveTerminal = nil
	}()

	var cpuHaltCalled bool
	cpuHaltFn = func() {
		cpuHaltCalled = true
	}

	t.Run("with error", func(t *testing.T) {
		cpuHaltCalled = false
		cons := mockTTY()
		err := &Error{Module: "test", Message: "panic test"}

		Panic(err)

		exp := "\n-----------------------------------\n[test] unrecoverable error: panic test\n*** kernel panic: system halted ***\n-----------------------------------"

		if got := readTTY(cons); got != exp {
			t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
		}

		if !cpuHaltCalled {
			t.Fatal("expected cpu.Halt() to be called by Panic")
		}
	})

	t.Run("without error", func(t *testing.T) {
		cpuHaltCalled = false
		cons := mockTTY()

		Panic(nil)

		exp := "\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------"

		if got := readTTY(cons); got != exp {
			t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
		}

		if !cpuHaltCalled {
			t.Fatal("expected cpu.Halt() to be called by Panic")
		}
	})
}

func readTTY(cons *mockConsole) string {
	var buf bytes.Buffer
	for i := 0; i < len(cons.chars); i++ {
		ch := cons.chars[i]
		if ch == 0 {
			if i+1 < len(cons.chars) && cons.chars[i+1] != 0 {
				buf.WriteByte('\n')
			}
			continue
		}

		buf.WriteByte(ch)
	}

	return buf.String()
}

// mockTTY wires a virtual terminal backed by a mock console as the active
// terminal so early.Printf output (used by Panic) can be inspected.
func mockTTY() *mockConsole {
	cons := newMockConsole(80, 25)

	vt := tty.NewVT(4, 0)
	vt.AttachTo(cons)
	vt.SetState(tty.StateActive)

	hal.ActiveTerminal = vt

	return cons
}

type mockConsole struct {
	width, height uint32
	chars         []uint8
}

func newMockConsole(w, h uint32) *mockConsole {
	return &mockConsole{
		width:  w,
		height: h,
		chars:  make([]uint8, w*h),
	}
}

func (cons *mockConsole) Dimensions(_ console.Dimension) (uint32, uint32) {
	return cons.width, cons.height
}

func (cons *mockConsole) DefaultColors() (uint8, uint8) { return 7, 0 }

func (cons *mockConsole) Fill(x, y, width, height uint32, fg, bg uint8) {}

func (cons *mockConsole) Scroll(dir console.ScrollDir, lines uint32) {}

func (cons *mockConsole) Palette() color.Palette { return nil }

func (cons *mockConsole) SetPaletteColor(index uint8, rgba color.RGBA) {}

func (cons *mockConsole) Write(b byte, fg, bg uint8, x, y uint32) {
	cons.chars[((y-1)*cons.width)+(x-1)] = b
}
