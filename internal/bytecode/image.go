package bytecode

// Magic is the 4-byte file signature every image opens with.
const Magic = "CBO1"

// VersionMajor and VersionMinor stamp the format version the writer
// produces; the consuming VM rejects a major mismatch.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// RoutineFlags bit-packs per-routine metadata into the routine table's
// flags byte.
type RoutineFlags uint8

const (
	RoutineFlagEntrypoint RoutineFlags = 1 << iota
)

// Routine is one compiled function's placement in the code section.
type Routine struct {
	NameConstIdx uint32
	CodeOffset   uint32
	CodeLength   uint32
	LocalCount   uint16
	ArgCount     uint8
	Flags        RoutineFlags
}

// Export maps an exported name to the routine implementing it.
type Export struct {
	NameConstIdx uint32
	RoutineIdx   uint32
}

// DebugLine maps a code offset to the source line it was lowered from.
type DebugLine struct {
	CodeOffset uint32
	Line       uint32
}

// Image is the complete, ready-to-serialize bytecode artifact the emitter
// assembles one routine at a time.
type Image struct {
	Pool      *ConstPool
	Routines  []Routine
	Code      []byte
	Exports   []Export
	DebugInfo []DebugLine
}

// NewImage returns an empty image with a fresh constant pool.
func NewImage() *Image {
	return &Image{Pool: NewConstPool()}
}

// AddRoutine appends code (already register-allocated and jump-patched) as
// a new routine, padding the code section to keep every routine's body
// contiguous, and returns the routine's index.
func (img *Image) AddRoutine(r Routine, code []byte) uint32 {
	r.CodeOffset = uint32(len(img.Code))
	r.CodeLength = uint32(len(code))
	img.Code = append(img.Code, code...)
	img.Routines = append(img.Routines, r)
	return uint32(len(img.Routines) - 1)
}

// AddExport records name as resolving to routineIdx.
func (img *Image) AddExport(nameConstIdx, routineIdx uint32) {
	img.Exports = append(img.Exports, Export{NameConstIdx: nameConstIdx, RoutineIdx: routineIdx})
}

// AddDebugLine records that codeOffset within the concatenated code section
// was lowered from source line.
func (img *Image) AddDebugLine(codeOffset, line uint32) {
	img.DebugInfo = append(img.DebugInfo, DebugLine{CodeOffset: codeOffset, Line: line})
}

// Encode serializes the image to its on-disk representation: header,
// constant pool, routine table, code section (8-byte aligned), export
// table, debug-line table, all little-endian.
func (img *Image) Encode() []byte {
	var buf []byte
	buf = append(buf, Magic...)
	buf = append(buf, VersionMajor, VersionMinor)

	buf = img.Pool.Encode(buf)

	buf = PutU32(buf, uint32(len(img.Routines)))
	for _, r := range img.Routines {
		buf = PutU32(buf, r.NameConstIdx)
		buf = PutU32(buf, r.CodeOffset)
		buf = PutU32(buf, r.CodeLength)
		buf = PutU16(buf, r.LocalCount)
		buf = append(buf, r.ArgCount, byte(r.Flags))
	}

	buf = padTo8(buf)
	buf = PutU32(buf, uint32(len(img.Code)))
	buf = append(buf, img.Code...)

	buf = PutU32(buf, uint32(len(img.Exports)))
	for _, e := range img.Exports {
		buf = PutU32(buf, e.NameConstIdx)
		buf = PutU32(buf, e.RoutineIdx)
	}

	buf = PutU32(buf, uint32(len(img.DebugInfo)))
	for _, d := range img.DebugInfo {
		buf = PutU32(buf, d.CodeOffset)
		buf = PutU32(buf, d.Line)
	}

	return buf
}

func padTo8(buf []byte) []byte {
	for len(buf)%8 != 0 {
		buf = append(buf, 0)
	}
	return buf
}
