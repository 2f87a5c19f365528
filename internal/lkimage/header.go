package lkimage

import (
	"bytes"
	"encoding/binary"
)

const (
	PartitionMagic = 0x58881688
	ExtMagic       = 0x58891689

	// DefaultHeaderSize is the size of a legacy partition header.
	DefaultHeaderSize = 512

	nameOffset      = 8
	nameLength      = 32
	minExtHeaderLen = 72
)

// Header is an LK partition header. All fields are little-endian on disk.
//
//	0x00 magic            0x30 ext magic
//	0x04 data size        0x34 header size
//	0x08 name[32]         0x38 header version
//	0x28 addressing mode  0x3c image type
//	0x2c memory address   0x40 image list end
//	                      0x44 alignment
type Header struct {
	DataSize       uint32
	Name           string
	AddressingMode uint32
	MemoryAddress  uint32

	Extended      bool
	HeaderSize    uint32
	HeaderVersion uint32
	ImageType     uint32
	ImageListEnd  bool
	Alignment     uint32
}

func parseHeader(buf []byte) (Header, bool) {
	if len(buf) < DefaultHeaderSize {
		return Header{}, false
	}
	le := binary.LittleEndian
	if le.Uint32(buf) != PartitionMagic {
		return Header{}, false
	}

	name := buf[nameOffset : nameOffset+nameLength]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	h := Header{
		DataSize:       le.Uint32(buf[0x04:]),
		Name:           string(bytes.TrimSpace(name)),
		AddressingMode: le.Uint32(buf[0x28:]),
		MemoryAddress:  le.Uint32(buf[0x2c:]),
		HeaderSize:     DefaultHeaderSize,
	}

	if le.Uint32(buf[0x30:]) == ExtMagic {
		h.Extended = true
		h.HeaderVersion = le.Uint32(buf[0x38:])
		h.ImageType = le.Uint32(buf[0x3c:])
		h.ImageListEnd = le.Uint32(buf[0x40:]) != 0
		h.Alignment = le.Uint32(buf[0x44:])
		if size := le.Uint32(buf[0x34:]); size >= minExtHeaderLen {
			h.HeaderSize = size
		}
	}
	return h, true
}

// Encode writes h into a DefaultHeaderSize byte header. It exists so tests
// and tools can build images without a real bootloader at hand.
func (h Header) Encode() []byte {
	buf := make([]byte, DefaultHeaderSize)
	le := binary.LittleEndian
	le.PutUint32(buf, PartitionMagic)
	le.PutUint32(buf[0x04:], h.DataSize)
	copy(buf[nameOffset:nameOffset+nameLength], h.Name)
	le.PutUint32(buf[0x28:], h.AddressingMode)
	le.PutUint32(buf[0x2c:], h.MemoryAddress)
	if h.Extended {
		size := h.HeaderSize
		if size == 0 {
			size = DefaultHeaderSize
		}
		le.PutUint32(buf[0x30:], ExtMagic)
		le.PutUint32(buf[0x34:], size)
		le.PutUint32(buf[0x38:], h.HeaderVersion)
		le.PutUint32(buf[0x3c:], h.ImageType)
		if h.ImageListEnd {
			le.PutUint32(buf[0x40:], 1)
		}
		le.PutUint32(buf[0x44:], h.Alignment)
	}
	return buf
}
