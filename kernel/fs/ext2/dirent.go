package ext2

import "encoding/binary"

// DirEntry is one decoded directory record: inode number, the name it
// binds, and the optional file-type byte (present when the volume's
// feature_incompat carries the filetype extension, which in practice
// every ext2 volume this reader sees does).
type DirEntry struct {
	Inode    uint32
	FileType uint8
	Name     string
}

// dirEntryHeaderSize is the fixed portion of a directory record before its
// variable-length name: inode(4) + rec_len(2) + name_len(1) + file_type(1).
const dirEntryHeaderSize = 8

// DecodeDirEntries sequentially decodes every directory record packed into
// a single block's bytes, stopping once the block is exhausted. Entries
// with Inode == 0 (deleted/padding records) are skipped.
func DecodeDirEntries(block []byte) []DirEntry {
	var entries []DirEntry

	pos := 0
	for pos+dirEntryHeaderSize <= len(block) {
		inode := binary.LittleEndian.Uint32(block[pos:])
		recLen := binary.LittleEndian.Uint16(block[pos+4:])
		nameLen := block[pos+6]
		fileType := block[pos+7]

		if recLen < dirEntryHeaderSize {
			break
		}

		nameEnd := pos + dirEntryHeaderSize + int(nameLen)
		if inode != 0 && nameEnd <= len(block) {
			entries = append(entries, DirEntry{
				Inode:    inode,
				FileType: fileType,
				Name:     string(block[pos+dirEntryHeaderSize : nameEnd]),
			})
		}

		pos += int(recLen)
	}

	return entries
}
