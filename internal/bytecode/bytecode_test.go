package bytecode_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"corec/internal/bytecode"
)

func TestConstPoolDeduplicates(t *testing.T) {
	p := bytecode.NewConstPool()

	i1 := p.Int(42)
	i2 := p.Int(42)
	if i1 != i2 {
		t.Fatalf("expected repeated Int(42) to share an index, got %d and %d", i1, i2)
	}

	s1 := p.String("hello")
	s2 := p.String("hello")
	if s1 != s2 {
		t.Fatalf("expected repeated String(\"hello\") to share an index, got %d and %d", s1, s2)
	}

	// A string and an identifier with the same text are distinct pool
	// entries, since they're tagged differently and stored in separate
	// dedup maps.
	id1 := p.Ident("hello")
	if id1 == s1 {
		t.Fatalf("expected Ident and String interning to use distinct indices")
	}

	tTrue := p.Bool(true)
	fFalse := p.Bool(false)
	if tTrue == fFalse {
		t.Fatalf("expected true and false to intern to distinct indices")
	}
	if p.Bool(true) != tTrue {
		t.Fatalf("expected repeated Bool(true) to share an index")
	}

	if got := len(p.Entries()); got != 5 {
		t.Fatalf("expected 5 distinct entries (int, string, ident, bool-true, bool-false), got %d", got)
	}
}

func TestRegNibblePacking(t *testing.T) {
	for lo := uint8(0); lo < 16; lo++ {
		for hi := uint8(0); hi < 16; hi++ {
			b := bytecode.PutReg(lo, hi)
			gotLo, gotHi := bytecode.SplitReg(b)
			if gotLo != lo || gotHi != hi {
				t.Fatalf("PutReg(%d,%d) round-tripped to (%d,%d)", lo, hi, gotLo, gotHi)
			}
		}
	}
}

func TestJumpFitsShort(t *testing.T) {
	cases := []struct {
		offset int
		want   bool
	}{
		{0, true},
		{32767, true},
		{-32768, true},
		{32768, false},
		{-32769, false},
	}
	for _, c := range cases {
		if got := bytecode.JumpFitsShort(c.offset); got != c.want {
			t.Fatalf("JumpFitsShort(%d) = %v, want %v", c.offset, got, c.want)
		}
	}
}

func TestImageEncodeLayout(t *testing.T) {
	img := bytecode.NewImage()
	nameIdx := img.Pool.Ident("main")

	code := []byte{byte(bytecode.OpIConst), bytecode.PutReg(0, 0), 1, byte(bytecode.OpRetVoid)}
	routine := bytecode.Routine{ArgCount: 0, LocalCount: 1, Flags: bytecode.RoutineFlagEntrypoint}
	idx := img.AddRoutine(routine, code)
	img.Pool.Ident("main")
	img.AddExport(nameIdx, idx)
	img.AddDebugLine(0, 1)

	out := img.Encode()

	if string(out[:4]) != bytecode.Magic {
		t.Fatalf("expected magic %q, got %q", bytecode.Magic, out[:4])
	}
	if out[4] != bytecode.VersionMajor || out[5] != bytecode.VersionMinor {
		t.Fatalf("expected version %d.%d, got %d.%d", bytecode.VersionMajor, bytecode.VersionMinor, out[4], out[5])
	}

	off := 6
	poolCount := binary.LittleEndian.Uint32(out[off:])
	if poolCount != 1 {
		t.Fatalf("expected 1 constant pool entry, got %d", poolCount)
	}
	off += 4
	if bytecode.ConstTag(out[off]) != bytecode.ConstIdent {
		t.Fatalf("expected an identifier constant, got tag %d", out[off])
	}
	off++
	nameLen := binary.LittleEndian.Uint32(out[off:])
	off += 4
	if string(out[off:off+int(nameLen)]) != "main" {
		t.Fatalf("expected constant payload %q, got %q", "main", out[off:off+int(nameLen)])
	}
	off += int(nameLen)

	routineCount := binary.LittleEndian.Uint32(out[off:])
	if routineCount != 1 {
		t.Fatalf("expected 1 routine, got %d", routineCount)
	}
	off += 4
	// routine table entry: u32 name, u32 offset, u32 length, u16 locals, u8 argc, u8 flags
	off += 4 + 4 + 4 + 2 + 1 + 1

	// the writer pads to an 8-byte boundary before the code section length prefix
	for off%8 != 0 {
		off++
	}

	codeLen := binary.LittleEndian.Uint32(out[off:])
	off += 4
	if int(codeLen) != len(code) {
		t.Fatalf("expected code length %d, got %d", len(code), codeLen)
	}
	if !bytes.Equal(out[off:off+len(code)], code) {
		t.Fatalf("expected code bytes to round-trip unchanged")
	}
}

func TestPutF64RoundTrips(t *testing.T) {
	want := 3.14159
	buf := bytecode.PutF64(nil, want)
	got := math.Float64frombits(binary.LittleEndian.Uint64(buf))
	if got != want {
		t.Fatalf("PutF64 round-trip: got %v, want %v", got, want)
	}
}
