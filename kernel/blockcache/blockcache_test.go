package blockcache

import (
	"ferrite/kernel"
	"ferrite/kernel/blockdev"
	"testing"
)

// countingDevice wraps a blockdev.Device and counts how many times each
// block number was actually read from the underlying device.
type countingDevice struct {
	blockdev.Device
	reads map[uint64]int
}

func (d *countingDevice) ReadBlock(n uint64, buf []byte) *kernel.Error {
	d.reads[n]++
	return d.Device.ReadBlock(n, buf)
}

func newCountingDevice(blocks uint64) *countingDevice {
	return &countingDevice{Device: blockdev.NewMemDisk(blocks), reads: map[uint64]int{}}
}

func TestCacheHitsAvoidRedundantDeviceReads(t *testing.T) {
	dev := newCountingDevice(8)
	cache := New(dev, 4)

	buf := make([]byte, blockdev.BlockSize)
	sequence := []uint64{1, 2, 3, 1, 2, 3, 4}

	for _, n := range sequence {
		if err := cache.ReadBlock(n, buf); err != nil {
			t.Fatalf("ReadBlock(%d): %v", n, err)
		}
	}

	totalDeviceReads := 0
	for _, count := range dev.reads {
		totalDeviceReads += count
	}

	if totalDeviceReads != 4 {
		t.Fatalf("expected exactly 4 device reads, got %d (%v)", totalDeviceReads, dev.reads)
	}
}

func TestCacheReturnsCorrectData(t *testing.T) {
	dev := blockdev.NewMemDisk(4)
	want := make([]byte, blockdev.BlockSize)
	for i := range want {
		want[i] = byte(i)
	}
	dev.WriteBlock(2, want)

	cache := New(dev, 4)
	got := make([]byte, blockdev.BlockSize)
	if err := cache.ReadBlock(2, got); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	dev := newCountingDevice(8)
	cache := New(dev, 2)

	buf := make([]byte, blockdev.BlockSize)
	cache.ReadBlock(1, buf)
	cache.ReadBlock(2, buf)
	cache.ReadBlock(3, buf) // evicts block 1 (LRU)
	cache.ReadBlock(1, buf) // must re-fetch from device

	if dev.reads[1] != 2 {
		t.Fatalf("expected block 1 to be re-read after eviction, got %d reads", dev.reads[1])
	}
}

func TestCacheRejectsWrongSizedBuffer(t *testing.T) {
	dev := blockdev.NewMemDisk(1)
	cache := New(dev, 1)
	if err := cache.ReadBlock(0, make([]byte, 10)); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
}
