package wire

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of a message header in bytes.
const HeaderSize = 16

// magic identifies the header layout in use. There is only one.
const magic = 1

// Header is the fixed-size prefix carried by every message: a transaction id
// correlating a two-way request with its response, and the ordinal of the
// method being invoked. Transaction id zero marks a one-way message.
type Header struct {
	Txid    uint32
	Flags   [3]byte
	Ordinal uint64
}

// ParseHeader reads a header from the front of a message.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("wire: short message: %d bytes, need at least %d", len(b), HeaderSize)
	}
	if b[7] != magic {
		return Header{}, fmt.Errorf("wire: unknown header magic %#x", b[7])
	}
	var h Header
	h.Txid = binary.LittleEndian.Uint32(b[0:4])
	copy(h.Flags[:], b[4:7])
	h.Ordinal = binary.LittleEndian.Uint64(b[8:16])
	return h, nil
}

// AppendHeader serializes the header to the front of a message buffer.
func AppendHeader(dst []byte, h Header) []byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Txid)
	copy(buf[4:7], h.Flags[:])
	buf[7] = magic
	binary.LittleEndian.PutUint64(buf[8:16], h.Ordinal)
	return append(dst, buf[:]...)
}
