package blockdev

import "ferrite/kernel"

// MemDisk is a Device backed by a plain byte slice, used by tests where
// spinning up a real IDE driver makes no sense.
type MemDisk struct {
	data []byte
}

// NewMemDisk creates a MemDisk of the given size in blocks, zero-filled.
func NewMemDisk(blocks uint64) *MemDisk {
	return &MemDisk{data: make([]byte, blocks*BlockSize)}
}

// NewMemDiskFromBytes wraps an existing byte slice as a MemDisk, padding it
// up to a whole number of blocks if necessary.
func NewMemDiskFromBytes(b []byte) *MemDisk {
	if rem := len(b) % BlockSize; rem != 0 {
		b = append(b, make([]byte, BlockSize-rem)...)
	}
	return &MemDisk{data: b}
}

func (m *MemDisk) ReadBlock(n uint64, buf []byte) *kernel.Error {
	if err := checkBlockBuf(buf); err != nil {
		return err
	}
	if (n+1)*BlockSize > uint64(len(m.data)) {
		return errOutOfRange
	}
	copy(buf, m.data[n*BlockSize:(n+1)*BlockSize])
	return nil
}

func (m *MemDisk) WriteBlock(n uint64, buf []byte) *kernel.Error {
	if err := checkBlockBuf(buf); err != nil {
		return err
	}
	if (n+1)*BlockSize > uint64(len(m.data)) {
		return errOutOfRange
	}
	copy(m.data[n*BlockSize:(n+1)*BlockSize], buf)
	return nil
}

func (m *MemDisk) BlockCount() uint64 {
	return uint64(len(m.data)) / BlockSize
}
