// Package wire implements the SANE network protocol's primitive wire
// encodings: 4-byte big-endian words, length-prefixed NUL-terminated
// strings, and pointer-prefixed arrays. It has no notion of RPCs, frames,
// or sessions — those live in sibling packages that borrow a Codec rather
// than embed it.
package wire

import (
	"encoding/binary"
	"fmt"
)

// WordSize is the fixed size in bytes of a SaneWord on the wire.
const WordSize = 4

// EncodeInt encodes n as 4 bytes of big-endian two's complement.
func EncodeInt(n int32) [WordSize]byte {
	var b [WordSize]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	return b
}

// DecodeWord decodes a 4-byte big-endian word into a signed 32-bit integer.
// It panics if b is not exactly WordSize bytes long.
func DecodeWord(b []byte) int32 {
	if len(b) != WordSize {
		panic(fmt.Sprintf("wire: DecodeWord: want %d bytes, got %d", WordSize, len(b)))
	}
	return int32(binary.BigEndian.Uint32(b))
}

// EncodeVersion packs a SANE version triple as (major&0xFF)<<24 |
// (minor&0xFF)<<16 | (build&0xFFFF).
func EncodeVersion(major, minor, build int) int32 {
	v := (major & 0xFF) << 24
	v |= (minor & 0xFF) << 16
	v |= build & 0xFFFF
	return int32(v)
}
