package ext2

import (
	"bytes"
	"encoding/binary"

	"ferrite/kernel"
)

// bgdtOffset is the fixed byte offset of the block group descriptor table.
const bgdtOffset = 2048

// groupDescSize is the on-disk size of one block group descriptor.
const groupDescSize = 32

// GroupDescriptor is one block group's metadata record.
type GroupDescriptor struct {
	BlockBitmap     uint32
	InodeBitmap     uint32
	InodeTableStart uint32
	FreeBlocksCount uint16
	FreeInodesCount uint16
	UsedDirsCount   uint16
	Pad             uint16
	Reserved        [12]byte
}

// DecodeBGDT decodes groupCount consecutive group descriptors starting at
// raw's beginning (raw is expected to already be positioned at the BGDT's
// byte offset within the volume).
func DecodeBGDT(raw []byte, groupCount uint32) ([]GroupDescriptor, *kernel.Error) {
	need := int(groupCount) * groupDescSize
	if len(raw) < need {
		return nil, ErrPrematureEndOfInput
	}

	out := make([]GroupDescriptor, groupCount)
	r := bytes.NewReader(raw[:need])
	for i := range out {
		if err := binary.Read(r, binary.LittleEndian, &out[i]); err != nil {
			return nil, ErrDecodeError
		}
	}
	return out, nil
}
