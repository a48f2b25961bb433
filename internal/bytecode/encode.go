package bytecode

import (
	"encoding/binary"
	"math"
)

// PutReg packs two 4-bit register nibbles into one byte, lo in the low
// nibble and hi in the high nibble.
func PutReg(lo, hi uint8) byte {
	return (lo & 0x0f) | (hi&0x0f)<<4
}

// SplitReg unpacks a register-pair byte back into its two nibbles.
func SplitReg(b byte) (lo, hi uint8) {
	return b & 0x0f, (b >> 4) & 0x0f
}

// PutU16 appends v little-endian to buf.
func PutU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

// PutU32 appends v little-endian to buf.
func PutU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// PutU64 appends v little-endian to buf.
func PutU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// PutI16 appends a signed 16-bit v little-endian to buf, used for jump
// offsets relative to the instruction after the opcode.
func PutI16(buf []byte, v int16) []byte {
	return PutU16(buf, uint16(v))
}

// PutF64 appends the IEEE-754 bit pattern of v little-endian to buf.
func PutF64(buf []byte, v float64) []byte {
	return PutU64(buf, math.Float64bits(v))
}

// JumpFitsShort reports whether offset fits the signed i16 short jump form.
// The emitter encodes only the short form: an offset outside it is reported
// as a diag.EmitInvariant error, and OpJumpLong/OpBrIfLong are never emitted.
func JumpFitsShort(offset int) bool {
	return offset >= -32768 && offset <= 32767
}
