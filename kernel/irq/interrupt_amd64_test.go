package irq

import (
	"bytes"
	"ferrite/device/tty"
	"ferrite/device/video/console"
	"ferrite/kernel/kfmt"
	"image/color"
	"testing"
)

func TestRegsPrint(t *testing.T) {
	cons := mockTTY()
	regs := Regs{
		RAX: 1,
		RBX: 2,
		RCX: 3,
		RDX: 4,
		RSI: 5,
		RDI: 6,
		RBP: 7,
		R8:  8,
		R9:  9,
		R10: 10,
		R11: 11,
		R12: 12,
		R13: 13,
		R14: 14,
		R15: 15,
	}
	regs.Print()

	exp := "RAX = 0000000000000001 RBX = 0000000000000002\nRCX = 0000000000000003 RDX = 0000000000000004\nRSI = 0000000000000005 RDI = 0000000000000006\nRBP = 0000000000000007\nR8  = 0000000000000008 R9  = 0000000000000009\nR10 = 000000000000000a R11 = 000000000000000b\nR12 = 000000000000000c R13 = 000000000000000d\nR14 = 000000000000000e R15 = 000000000000000f"

	if got := readTTY(cons); got != exp {
		t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
	}
}

func TestFramePrint(t *testing.T) {
	cons := mockTTY()
	frame := Frame{
		RIP:    1,
		CS:     2,
		RFlags: 3,
		RSP:    4,
		SS:     5,
	}
	frame.Print()

	exp := "RIP = 0000000000000001 CS  = 0000000000000002\nRSP = 0000000000000004 SS  = 0000000000000005\nRFL = 0000000000000003"

	if got := readTTY(cons); got != exp {
		t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
	}

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

// mockTTY wires a virtual terminal backed by a mock console to the kfmt
// output sink so Regs.Print/Frame.Print output can be inspected.
func mockTTY() *mockConsole {
	cons := newMockConsole(80, 25)

	vt := tty.NewVT(4, 0)
	vt.AttachTo(cons)
	vt.SetState(tty.StateActive)

	kfmt.SetOutputSink(vt)

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
