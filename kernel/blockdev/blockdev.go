// Package blockdev defines the fixed-size block device abstraction that
// sits below the block cache and above every concrete disk driver (IDE ATA
// PIO, a RAM-backed disk used in tests).
package blockdev

import "ferrite/kernel"

// BlockSize is the fixed block size every Device implementation reads and
// writes in.
const BlockSize = 512

var (
	errShortBuffer = &kernel.Error{Module: "blockdev", Message: "buffer length does not match block size"}
	errOutOfRange  = &kernel.Error{Module: "blockdev", Message: "block number out of range"}
)

// Device is implemented by anything that can serve fixed-size block reads
// and writes, and report its total size in blocks.
type Device interface {
	// ReadBlock reads block n into buf, which must be exactly BlockSize
	// bytes long.
	ReadBlock(n uint64, buf []byte) *kernel.Error

	// WriteBlock writes buf, which must be exactly BlockSize bytes long,
	// to block n.
	WriteBlock(n uint64, buf []byte) *kernel.Error

	// BlockCount returns the device's total capacity in blocks.
	BlockCount() uint64
}

// ReadAt reads len(buf) bytes starting at byte offset off from dev, issuing
// one ReadBlock call per block the range touches and copying out only the
// requested sub-range of the first and last block.
func ReadAt(dev Device, off uint64, buf []byte) *kernel.Error {
	if len(buf) == 0 {
		return nil
	}

	staging := make([]byte, BlockSize)
	remaining := buf
	pos := off

	for len(remaining) > 0 {
		blockNum := pos / BlockSize
		rel := pos % BlockSize

		if err := dev.ReadBlock(blockNum, staging); err != nil {
			return err
		}

		n := copy(remaining, staging[rel:])
		remaining = remaining[n:]
		pos += uint64(n)
	}

	return nil
}

// checkBlockBuf validates that buf is exactly one block long, the
// precondition every Device implementation's ReadBlock/WriteBlock must
// enforce before touching hardware.
func checkBlockBuf(buf []byte) *kernel.Error {
	if len(buf) != BlockSize {
		return errShortBuffer
	}
	return nil
}
