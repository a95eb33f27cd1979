package abc

import (
	"strconv"
	"strings"

	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/internal/binary"
)

// Namespace kinds.
const (
	NamespacePrivate         byte = 0x05
	NamespaceNormal          byte = 0x08
	NamespacePackage         byte = 0x16
	NamespacePackageInternal byte = 0x17
	NamespaceProtected       byte = 0x18
	NamespaceExplicit        byte = 0x19
	NamespaceStaticProtected byte = 0x1A
)

// MultinameKind identifies the layout of a multiname entry.
type MultinameKind byte

// Multiname kinds. The A variants name attributes.
const (
	KindQName       MultinameKind = 0x07
	KindQNameA      MultinameKind = 0x0D
	KindRTQName     MultinameKind = 0x0F
	KindRTQNameA    MultinameKind = 0x10
	KindRTQNameL    MultinameKind = 0x11
	KindRTQNameLA   MultinameKind = 0x12
	KindMultiname   MultinameKind = 0x09
	KindMultinameA  MultinameKind = 0x0E
	KindMultinameL  MultinameKind = 0x1B
	KindMultinameLA MultinameKind = 0x1C
	KindTypeName    MultinameKind = 0x1D
)

// IsAttribute reports whether the kind names an XML attribute.
func (k MultinameKind) IsAttribute() bool {
	switch k {
	case KindQNameA, KindRTQNameA, KindRTQNameLA, KindMultinameA, KindMultinameLA:
		return true
	}
	return false
}

// Namespace is a namespace pool entry.
type Namespace struct {
	Kind byte
	Name uint32 // string index
}

// Multiname is a multiname pool entry. Which fields are meaningful depends
// on Kind.
type Multiname struct {
	Params       []uint32 // TypeName parameters (multiname indices)
	Namespace    uint32   // QName
	Name         uint32   // QName, RTQName, Multiname
	NamespaceSet uint32   // Multiname, MultinameL
	Base         uint32   // TypeName base (multiname index)
	Kind         MultinameKind
}

// ConstantPool holds the literal tables of one ABC unit. Entry 0 of every
// table is the reserved default and is never stored in the byte stream.
// A pool is filled once by parsing and is safe for concurrent reads.
type ConstantPool struct {
	Ints          []int32
	Uints         []uint32
	Doubles       []float64
	Strings       []string
	Namespaces    []Namespace
	NamespaceSets [][]uint32
	Multinames    []Multiname
}

// NewConstantPool returns a pool holding only the reserved entries.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		Ints:          []int32{0},
		Uints:         []uint32{0},
		Doubles:       []float64{0},
		Strings:       []string{""},
		Namespaces:    []Namespace{{}},
		NamespaceSets: [][]uint32{nil},
		Multinames:    []Multiname{{}},
	}
}

func invalidIndex(table string, index, length int) error {
	return errors.InvalidPoolIndex(errors.PhaseRender, table, index, length)
}

// String returns string entry i.
func (p *ConstantPool) String(i int) (string, error) {
	if p == nil || i < 0 || i >= len(p.Strings) {
		return "", invalidIndex("string", i, p.len(func(p *ConstantPool) int { return len(p.Strings) }))
	}
	return p.Strings[i], nil
}

// Int returns int entry i.
func (p *ConstantPool) Int(i int) (int32, error) {
	if p == nil || i < 0 || i >= len(p.Ints) {
		return 0, invalidIndex("int", i, p.len(func(p *ConstantPool) int { return len(p.Ints) }))
	}
	return p.Ints[i], nil
}

// Uint returns uint entry i.
func (p *ConstantPool) Uint(i int) (uint32, error) {
	if p == nil || i < 0 || i >= len(p.Uints) {
		return 0, invalidIndex("uint", i, p.len(func(p *ConstantPool) int { return len(p.Uints) }))
	}
	return p.Uints[i], nil
}

// Double returns double entry i.
func (p *ConstantPool) Double(i int) (float64, error) {
	if p == nil || i < 0 || i >= len(p.Doubles) {
		return 0, invalidIndex("double", i, p.len(func(p *ConstantPool) int { return len(p.Doubles) }))
	}
	return p.Doubles[i], nil
}

// Namespace returns namespace entry i.
func (p *ConstantPool) Namespace(i int) (Namespace, error) {
	if p == nil || i < 0 || i >= len(p.Namespaces) {
		return Namespace{}, invalidIndex("namespace", i, p.len(func(p *ConstantPool) int { return len(p.Namespaces) }))
	}
	return p.Namespaces[i], nil
}

// Multiname returns multiname entry i.
func (p *ConstantPool) Multiname(i int) (Multiname, error) {
	if p == nil || i < 0 || i >= len(p.Multinames) {
		return Multiname{}, invalidIndex("multiname", i, p.len(func(p *ConstantPool) int { return len(p.Multinames) }))
	}
	return p.Multinames[i], nil
}

func (p *ConstantPool) len(f func(*ConstantPool) int) int {
	if p == nil {
		return 0
	}
	return f(p)
}

// NamespaceName returns the display name of namespace i.
func (p *ConstantPool) NamespaceName(i int) (string, error) {
	ns, err := p.Namespace(i)
	if err != nil {
		return "", err
	}
	return p.String(int(ns.Name))
}

// maxTypeNameDepth bounds TypeName nesting so self-referencing entries fail.
const maxTypeNameDepth = 16

// MultinameString returns the display form of multiname i. Index 0 is the
// any-name "*".
func (p *ConstantPool) MultinameString(i int) (string, error) {
	return p.multinameString(i, 0)
}

func (p *ConstantPool) multinameString(i, depth int) (string, error) {
	if depth > maxTypeNameDepth {
		return "", errors.InvalidData(errors.PhaseRender, []string{"multiname", strconv.Itoa(i)}, "type name nesting too deep")
	}
	m, err := p.Multiname(i)
	if err != nil {
		return "", err
	}
	if i == 0 {
		return "*", nil
	}

	var name string
	switch m.Kind {
	case KindQName, KindQNameA, KindRTQName, KindRTQNameA, KindMultiname, KindMultinameA:
		if m.Name == 0 {
			name = "*"
		} else if name, err = p.String(int(m.Name)); err != nil {
			return "", err
		}
	case KindRTQNameL, KindRTQNameLA, KindMultinameL, KindMultinameLA:
		name = ""
	case KindTypeName:
		base, err := p.multinameString(int(m.Base), depth+1)
		if err != nil {
			return "", err
		}
		params := make([]string, len(m.Params))
		for j, idx := range m.Params {
			if params[j], err = p.multinameString(int(idx), depth+1); err != nil {
				return "", err
			}
		}
		return base + ".<" + strings.Join(params, ",") + ">", nil
	default:
		return "", errors.InvalidData(errors.PhaseRender, []string{"multiname", strconv.Itoa(i)}, "unknown multiname kind")
	}

	if m.Kind.IsAttribute() {
		name = "@" + name
	}
	return name, nil
}

func parsePool(r *binary.Reader) (*ConstantPool, error) {
	p := NewConstantPool()

	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		v, err := r.ReadS32()
		if err != nil {
			return nil, err
		}
		p.Ints = append(p.Ints, v)
	}

	if n, err = readCount(r); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		p.Uints = append(p.Uints, v)
	}

	if n, err = readCount(r); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		v, err := r.ReadD64()
		if err != nil {
			return nil, err
		}
		p.Doubles = append(p.Doubles, v)
	}

	if n, err = readCount(r); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		p.Strings = append(p.Strings, s)
	}

	if n, err = readCount(r); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		kind, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadU30()
		if err != nil {
			return nil, err
		}
		p.Namespaces = append(p.Namespaces, Namespace{Kind: kind, Name: name})
	}

	if n, err = readCount(r); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		set, err := readU30List(r)
		if err != nil {
			return nil, err
		}
		p.NamespaceSets = append(p.NamespaceSets, set)
	}

	if n, err = readCount(r); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		m, err := readMultiname(r)
		if err != nil {
			return nil, err
		}
		p.Multinames = append(p.Multinames, m)
	}

	return p, nil
}

func readMultiname(r *binary.Reader) (Multiname, error) {
	kind, err := r.ReadU8()
	if err != nil {
		return Multiname{}, err
	}
	m := Multiname{Kind: MultinameKind(kind)}
	switch m.Kind {
	case KindQName, KindQNameA:
		if m.Namespace, err = r.ReadU30(); err != nil {
			return m, err
		}
		m.Name, err = r.ReadU30()
	case KindRTQName, KindRTQNameA:
		m.Name, err = r.ReadU30()
	case KindRTQNameL, KindRTQNameLA:
	case KindMultiname, KindMultinameA:
		if m.Name, err = r.ReadU30(); err != nil {
			return m, err
		}
		m.NamespaceSet, err = r.ReadU30()
	case KindMultinameL, KindMultinameLA:
		m.NamespaceSet, err = r.ReadU30()
	case KindTypeName:
		if m.Base, err = r.ReadU30(); err != nil {
			return m, err
		}
		m.Params, err = readU30List(r)
	default:
		return m, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path("multiname").
			Value(kind).
			Detail("unknown multiname kind 0x%02x at position %d", kind, r.Position()-1).
			Build()
	}
	return m, err
}

func (p *ConstantPool) encode(w *binary.Writer) error {
	writeCount(w, len(p.Ints))
	for _, v := range tail(p.Ints) {
		w.WriteS32(v)
	}
	writeCount(w, len(p.Uints))
	for _, v := range tail(p.Uints) {
		w.WriteU32(v)
	}
	writeCount(w, len(p.Doubles))
	for _, v := range tail(p.Doubles) {
		w.WriteD64(v)
	}
	writeCount(w, len(p.Strings))
	for _, s := range tail(p.Strings) {
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	writeCount(w, len(p.Namespaces))
	for _, ns := range tail(p.Namespaces) {
		w.Byte(ns.Kind)
		w.WriteU32(ns.Name)
	}
	writeCount(w, len(p.NamespaceSets))
	for _, set := range tail(p.NamespaceSets) {
		writeU30List(w, set)
	}
	writeCount(w, len(p.Multinames))
	for _, m := range tail(p.Multinames) {
		w.Byte(byte(m.Kind))
		switch m.Kind {
		case KindQName, KindQNameA:
			w.WriteU32(m.Namespace)
			w.WriteU32(m.Name)
		case KindRTQName, KindRTQNameA:
			w.WriteU32(m.Name)
		case KindMultiname, KindMultinameA:
			w.WriteU32(m.Name)
			w.WriteU32(m.NamespaceSet)
		case KindMultinameL, KindMultinameLA:
			w.WriteU32(m.NamespaceSet)
		case KindTypeName:
			w.WriteU32(m.Base)
			writeU30List(w, m.Params)
		}
	}
	return nil
}

// tail drops the reserved entry 0.
func tail[T any](s []T) []T {
	if len(s) <= 1 {
		return nil
	}
	return s[1:]
}

// readCount reads a table count that includes the reserved entry 0.
func readCount(r *binary.Reader) (int, error) {
	n, err := r.ReadU30()
	if err != nil {
		return 0, err
	}
	// every entry takes at least one byte
	if int(n) > r.Len()+1 {
		return 0, errors.UnexpectedEnd(errors.PhaseDecode, r.Position(), int(n)-1, r.Len())
	}
	return int(n), nil
}

func writeCount(w *binary.Writer, n int) {
	if n <= 1 {
		n = 0
	}
	w.WriteU32(uint32(n))
}

func readU30List(r *binary.Reader) ([]uint32, error) {
	n, err := r.ReadU30()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Len() {
		return nil, errors.UnexpectedEnd(errors.PhaseDecode, r.Position(), int(n), r.Len())
	}
	out := make([]uint32, n)
	for i := range out {
		if out[i], err = r.ReadU30(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeU30List(w *binary.Writer, list []uint32) {
	w.WriteU32(uint32(len(list)))
	for _, v := range list {
		w.WriteU32(v)
	}
}
