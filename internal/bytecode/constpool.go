package bytecode

// ConstTag identifies a constant pool entry's payload shape, per the §6
// binary format.
type ConstTag uint8

const (
	ConstInt ConstTag = iota
	ConstFloat
	ConstString
	ConstIdent
	ConstDecimal
	ConstBool
)

// Const is one constant-pool entry.
type Const struct {
	Tag ConstTag
	I   int64
	F   float64
	S   string
	B   bool
}

// ConstPool interns constants in first-use order and hands out stable
// indices the routine table and code section reference.
type ConstPool struct {
	entries []Const
	ints    map[int64]uint32
	floats  map[float64]uint32
	strs    map[string]uint32
	idents  map[string]uint32
}

// NewConstPool returns an empty pool.
func NewConstPool() *ConstPool {
	return &ConstPool{
		ints:   make(map[int64]uint32),
		floats: make(map[float64]uint32),
		strs:   make(map[string]uint32),
		idents: make(map[string]uint32),
	}
}

func (p *ConstPool) intern(c Const, index map[string]uint32, key string) uint32 {
	if idx, ok := index[key]; ok {
		return idx
	}
	idx := uint32(len(p.entries))
	p.entries = append(p.entries, c)
	index[key] = idx
	return idx
}

// Int interns an i64 constant.
func (p *ConstPool) Int(v int64) uint32 {
	if idx, ok := p.ints[v]; ok {
		return idx
	}
	idx := uint32(len(p.entries))
	p.entries = append(p.entries, Const{Tag: ConstInt, I: v})
	p.ints[v] = idx
	return idx
}

// Float interns an f64 constant.
func (p *ConstPool) Float(v float64) uint32 {
	if idx, ok := p.floats[v]; ok {
		return idx
	}
	idx := uint32(len(p.entries))
	p.entries = append(p.entries, Const{Tag: ConstFloat, F: v})
	p.floats[v] = idx
	return idx
}

// String interns a length-prefixed string constant.
func (p *ConstPool) String(v string) uint32 {
	return p.intern(Const{Tag: ConstString, S: v}, p.strs, v)
}

// Ident interns an identifier constant (routine/export names).
func (p *ConstPool) Ident(v string) uint32 {
	return p.intern(Const{Tag: ConstIdent, S: v}, p.idents, v)
}

// Bool interns a bool constant.
func (p *ConstPool) Bool(v bool) uint32 {
	c := Const{Tag: ConstBool, B: v}
	key := "true"
	if !v {
		key = "false"
	}
	// Bools share the ident map's dedup machinery under a scoped key so
	// true/false each intern once.
	return p.intern(c, p.idents, "$bool:"+key)
}

// Entries returns the pool's contents in interning order.
func (p *ConstPool) Entries() []Const {
	return p.entries
}

// Encode appends the pool's on-disk representation to buf: u32 count
// followed by each entry's {u8 tag, payload}.
func (p *ConstPool) Encode(buf []byte) []byte {
	buf = PutU32(buf, uint32(len(p.entries)))
	for _, c := range p.entries {
		buf = append(buf, byte(c.Tag))
		switch c.Tag {
		case ConstInt:
			buf = PutU64(buf, uint64(c.I))
		case ConstFloat:
			buf = PutF64(buf, c.F)
		case ConstString, ConstIdent:
			buf = PutU32(buf, uint32(len(c.S)))
			buf = append(buf, c.S...)
		case ConstDecimal:
			buf = PutU32(buf, uint32(len(c.S)))
			buf = append(buf, c.S...)
		case ConstBool:
			if c.B {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}
