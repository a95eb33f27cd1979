package abc

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/internal/binary"
)

// Method flags.
const (
	MethodNeedArguments  byte = 0x01
	MethodNeedActivation byte = 0x02
	MethodNeedRest       byte = 0x04
	MethodHasOptional    byte = 0x08
	MethodSetDXNS        byte = 0x40
	MethodHasParamNames  byte = 0x80
)

// Instance flags.
const (
	InstanceSealed      byte = 0x01
	InstanceFinal       byte = 0x02
	InstanceInterface   byte = 0x04
	InstanceProtectedNs byte = 0x08
)

// TraitKind is the low nibble of a trait's kind byte.
type TraitKind byte

const (
	TraitSlot     TraitKind = 0
	TraitMethod   TraitKind = 1
	TraitGetter   TraitKind = 2
	TraitSetter   TraitKind = 3
	TraitClass    TraitKind = 4
	TraitFunction TraitKind = 5
	TraitConst    TraitKind = 6
)

// Trait attributes, the high nibble of the kind byte.
const (
	TraitAttrFinal    byte = 0x1
	TraitAttrOverride byte = 0x2
	TraitAttrMetadata byte = 0x4
)

// OptionalValue is a default parameter value.
type OptionalValue struct {
	Index uint32 // pool index, table selected by Kind
	Kind  byte
}

// MethodInfo is a method signature.
type MethodInfo struct {
	ParamTypes []uint32 // multiname indices
	Optional   []OptionalValue
	ParamNames []uint32 // string indices
	ReturnType uint32
	Name       uint32
	Flags      byte
}

// MetadataItem is one key/value pair of a metadata entry.
type MetadataItem struct {
	Key   uint32
	Value uint32
}

// Metadata is a metadata entry.
type Metadata struct {
	Items []MetadataItem
	Name  uint32
}

// Trait is a named member of an instance, class, script or activation.
//
// ID is the slot id for slot, const, class and function traits and the
// dispatch id for method, getter and setter traits. Index is the method,
// class or function index. Type, Value and ValueKind apply to slot and
// const traits.
type Trait struct {
	Metadata   []uint32
	Name       uint32
	ID         uint32
	Index      uint32
	Type       uint32
	Value      uint32
	Kind       TraitKind
	Attributes byte
	ValueKind  byte
}

// Instance describes the instance side of a class.
type Instance struct {
	Interfaces  []uint32
	Traits      []Trait
	Name        uint32
	Super       uint32
	ProtectedNs uint32
	Init        uint32 // method index of the constructor
	Flags       byte
}

// Class describes the static side of a class.
type Class struct {
	Traits []Trait
	Init   uint32
}

// Script is a script entry point.
type Script struct {
	Traits []Trait
	Init   uint32
}

// Exception is an exception handler range of a method body.
type Exception struct {
	From    uint32
	To      uint32
	Target  uint32
	Type    uint32
	VarName uint32
}

// MethodBody holds the bytecode of a method.
type MethodBody struct {
	Code           []byte
	Exceptions     []Exception
	Traits         []Trait
	Method         uint32
	MaxStack       uint32
	LocalCount     uint32
	InitScopeDepth uint32
	MaxScopeDepth  uint32
}

// Disassemble decodes the body's code.
func (b *MethodBody) Disassemble() (Code, error) {
	return Disassemble(b.Code)
}

// File is a complete ABC unit.
type File struct {
	Pool      *ConstantPool
	Methods   []MethodInfo
	Metadata  []Metadata
	Instances []Instance
	Classes   []Class // parallel to Instances
	Scripts   []Script
	Bodies    []MethodBody
	Minor     uint16
	Major     uint16
}

// Parse decodes an ABC unit.
func Parse(data []byte) (*File, error) {
	r := binary.NewReader(data)
	f := &File{}
	var err error

	if f.Minor, err = r.ReadU16(); err != nil {
		return nil, section(err, "version")
	}
	if f.Major, err = r.ReadU16(); err != nil {
		return nil, section(err, "version")
	}
	if f.Pool, err = parsePool(r); err != nil {
		return nil, section(err, "constant_pool")
	}

	n, err := readLen(r)
	if err != nil {
		return nil, section(err, "methods")
	}
	f.Methods = make([]MethodInfo, n)
	for i := range f.Methods {
		if f.Methods[i], err = readMethodInfo(r); err != nil {
			return nil, section(err, "methods", strconv.Itoa(i))
		}
	}

	if n, err = readLen(r); err != nil {
		return nil, section(err, "metadata")
	}
	f.Metadata = make([]Metadata, n)
	for i := range f.Metadata {
		if f.Metadata[i], err = readMetadata(r); err != nil {
			return nil, section(err, "metadata", strconv.Itoa(i))
		}
	}

	if n, err = readLen(r); err != nil {
		return nil, section(err, "classes")
	}
	f.Instances = make([]Instance, n)
	for i := range f.Instances {
		if f.Instances[i], err = readInstance(r); err != nil {
			return nil, section(err, "instances", strconv.Itoa(i))
		}
	}
	f.Classes = make([]Class, n)
	for i := range f.Classes {
		c := &f.Classes[i]
		if c.Init, err = r.ReadU30(); err != nil {
			return nil, section(err, "classes", strconv.Itoa(i))
		}
		if c.Traits, err = readTraits(r); err != nil {
			return nil, section(err, "classes", strconv.Itoa(i))
		}
	}

	if n, err = readLen(r); err != nil {
		return nil, section(err, "scripts")
	}
	f.Scripts = make([]Script, n)
	for i := range f.Scripts {
		s := &f.Scripts[i]
		if s.Init, err = r.ReadU30(); err != nil {
			return nil, section(err, "scripts", strconv.Itoa(i))
		}
		if s.Traits, err = readTraits(r); err != nil {
			return nil, section(err, "scripts", strconv.Itoa(i))
		}
	}

	if n, err = readLen(r); err != nil {
		return nil, section(err, "bodies")
	}
	f.Bodies = make([]MethodBody, n)
	for i := range f.Bodies {
		if f.Bodies[i], err = readMethodBody(r); err != nil {
			return nil, section(err, "bodies", strconv.Itoa(i))
		}
	}

	if r.Len() > 0 {
		Logger().Debug("trailing bytes after abc file", zap.Int("count", r.Len()))
	}
	return f, nil
}

// section adds a path to errors that do not have one yet.
func section(err error, path ...string) error {
	e, ok := err.(*errors.Error)
	if !ok || len(e.Path) > 0 {
		return err
	}
	c := *e
	c.Path = path
	return &c
}

// readLen reads the length of a table without a reserved entry.
func readLen(r *binary.Reader) (int, error) {
	n, err := r.ReadU30()
	if err != nil {
		return 0, err
	}
	if int(n) > r.Len() {
		return 0, errors.UnexpectedEnd(errors.PhaseDecode, r.Position(), int(n), r.Len())
	}
	return int(n), nil
}

func readMethodInfo(r *binary.Reader) (MethodInfo, error) {
	var m MethodInfo
	params, err := readLen(r)
	if err != nil {
		return m, err
	}
	if m.ReturnType, err = r.ReadU30(); err != nil {
		return m, err
	}
	m.ParamTypes = make([]uint32, params)
	for i := range m.ParamTypes {
		if m.ParamTypes[i], err = r.ReadU30(); err != nil {
			return m, err
		}
	}
	if m.Name, err = r.ReadU30(); err != nil {
		return m, err
	}
	if m.Flags, err = r.ReadU8(); err != nil {
		return m, err
	}
	if m.Flags&MethodHasOptional != 0 {
		n, err := readLen(r)
		if err != nil {
			return m, err
		}
		m.Optional = make([]OptionalValue, n)
		for i := range m.Optional {
			if m.Optional[i].Index, err = r.ReadU30(); err != nil {
				return m, err
			}
			if m.Optional[i].Kind, err = r.ReadU8(); err != nil {
				return m, err
			}
		}
	}
	if m.Flags&MethodHasParamNames != 0 {
		m.ParamNames = make([]uint32, params)
		for i := range m.ParamNames {
			if m.ParamNames[i], err = r.ReadU30(); err != nil {
				return m, err
			}
		}
	}
	return m, nil
}

// Metadata items are stored as all keys followed by all values.
func readMetadata(r *binary.Reader) (Metadata, error) {
	var m Metadata
	var err error
	if m.Name, err = r.ReadU30(); err != nil {
		return m, err
	}
	n, err := readLen(r)
	if err != nil {
		return m, err
	}
	m.Items = make([]MetadataItem, n)
	for i := range m.Items {
		if m.Items[i].Key, err = r.ReadU30(); err != nil {
			return m, err
		}
	}
	for i := range m.Items {
		if m.Items[i].Value, err = r.ReadU30(); err != nil {
			return m, err
		}
	}
	return m, nil
}

func readInstance(r *binary.Reader) (Instance, error) {
	var in Instance
	var err error
	if in.Name, err = r.ReadU30(); err != nil {
		return in, err
	}
	if in.Super, err = r.ReadU30(); err != nil {
		return in, err
	}
	if in.Flags, err = r.ReadU8(); err != nil {
		return in, err
	}
	if in.Flags&InstanceProtectedNs != 0 {
		if in.ProtectedNs, err = r.ReadU30(); err != nil {
			return in, err
		}
	}
	if in.Interfaces, err = readU30List(r); err != nil {
		return in, err
	}
	if in.Init, err = r.ReadU30(); err != nil {
		return in, err
	}
	in.Traits, err = readTraits(r)
	return in, err
}

func readTraits(r *binary.Reader) ([]Trait, error) {
	n, err := readLen(r)
	if err != nil {
		return nil, err
	}
	traits := make([]Trait, n)
	for i := range traits {
		if traits[i], err = readTrait(r); err != nil {
			return nil, err
		}
	}
	return traits, nil
}

func readTrait(r *binary.Reader) (Trait, error) {
	var t Trait
	var err error
	if t.Name, err = r.ReadU30(); err != nil {
		return t, err
	}
	kind, err := r.ReadU8()
	if err != nil {
		return t, err
	}
	t.Kind = TraitKind(kind & 0x0F)
	t.Attributes = kind >> 4

	switch t.Kind {
	case TraitSlot, TraitConst:
		if t.ID, err = r.ReadU30(); err != nil {
			return t, err
		}
		if t.Type, err = r.ReadU30(); err != nil {
			return t, err
		}
		if t.Value, err = r.ReadU30(); err != nil {
			return t, err
		}
		if t.Value != 0 {
			if t.ValueKind, err = r.ReadU8(); err != nil {
				return t, err
			}
		}
	case TraitMethod, TraitGetter, TraitSetter, TraitClass, TraitFunction:
		if t.ID, err = r.ReadU30(); err != nil {
			return t, err
		}
		if t.Index, err = r.ReadU30(); err != nil {
			return t, err
		}
	default:
		return t, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path("trait").
			Value(kind).
			Detail("unknown trait kind %d at position %d", t.Kind, r.Position()-1).
			Build()
	}

	if t.Attributes&TraitAttrMetadata != 0 {
		if t.Metadata, err = readU30List(r); err != nil {
			return t, err
		}
	}
	return t, nil
}

func readMethodBody(r *binary.Reader) (MethodBody, error) {
	var b MethodBody
	var err error
	for _, p := range []*uint32{&b.Method, &b.MaxStack, &b.LocalCount, &b.InitScopeDepth, &b.MaxScopeDepth} {
		if *p, err = r.ReadU30(); err != nil {
			return b, err
		}
	}
	n, err := r.ReadU30()
	if err != nil {
		return b, err
	}
	if b.Code, err = r.ReadBytes(int(n)); err != nil {
		return b, err
	}

	count, err := readLen(r)
	if err != nil {
		return b, err
	}
	b.Exceptions = make([]Exception, count)
	for i := range b.Exceptions {
		e := &b.Exceptions[i]
		for _, p := range []*uint32{&e.From, &e.To, &e.Target, &e.Type, &e.VarName} {
			if *p, err = r.ReadU30(); err != nil {
				return b, err
			}
		}
	}
	b.Traits, err = readTraits(r)
	return b, err
}

// Encode serializes the file. A file produced by Parse from canonical input
// encodes back to the same bytes.
func (f *File) Encode() ([]byte, error) {
	if len(f.Classes) != len(f.Instances) {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Path("classes").
			Detail("%d classes for %d instances", len(f.Classes), len(f.Instances)).
			Build()
	}

	w := binary.NewWriter()
	w.WriteU16(f.Minor)
	w.WriteU16(f.Major)

	pool := f.Pool
	if pool == nil {
		pool = NewConstantPool()
	}
	if err := pool.encode(w); err != nil {
		return nil, err
	}

	w.WriteU32(uint32(len(f.Methods)))
	for i := range f.Methods {
		if err := writeMethodInfo(w, &f.Methods[i]); err != nil {
			return nil, section(err, "methods", strconv.Itoa(i))
		}
	}

	w.WriteU32(uint32(len(f.Metadata)))
	for _, m := range f.Metadata {
		w.WriteU32(m.Name)
		w.WriteU32(uint32(len(m.Items)))
		for _, it := range m.Items {
			w.WriteU32(it.Key)
		}
		for _, it := range m.Items {
			w.WriteU32(it.Value)
		}
	}

	w.WriteU32(uint32(len(f.Instances)))
	for _, in := range f.Instances {
		w.WriteU32(in.Name)
		w.WriteU32(in.Super)
		w.Byte(in.Flags)
		if in.Flags&InstanceProtectedNs != 0 {
			w.WriteU32(in.ProtectedNs)
		}
		writeU30List(w, in.Interfaces)
		w.WriteU32(in.Init)
		writeTraits(w, in.Traits)
	}
	for _, c := range f.Classes {
		w.WriteU32(c.Init)
		writeTraits(w, c.Traits)
	}

	w.WriteU32(uint32(len(f.Scripts)))
	for _, s := range f.Scripts {
		w.WriteU32(s.Init)
		writeTraits(w, s.Traits)
	}

	w.WriteU32(uint32(len(f.Bodies)))
	for _, b := range f.Bodies {
		for _, v := range []uint32{b.Method, b.MaxStack, b.LocalCount, b.InitScopeDepth, b.MaxScopeDepth} {
			w.WriteU32(v)
		}
		w.WriteU32(uint32(len(b.Code)))
		w.WriteBytes(b.Code)
		w.WriteU32(uint32(len(b.Exceptions)))
		for _, e := range b.Exceptions {
			for _, v := range []uint32{e.From, e.To, e.Target, e.Type, e.VarName} {
				w.WriteU32(v)
			}
		}
		writeTraits(w, b.Traits)
	}
	return w.Bytes(), nil
}

func writeMethodInfo(w *binary.Writer, m *MethodInfo) error {
	if m.Flags&MethodHasParamNames != 0 && len(m.ParamNames) != len(m.ParamTypes) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("%d parameter names for %d parameters", len(m.ParamNames), len(m.ParamTypes)).
			Build()
	}
	w.WriteU32(uint32(len(m.ParamTypes)))
	w.WriteU32(m.ReturnType)
	for _, p := range m.ParamTypes {
		w.WriteU32(p)
	}
	w.WriteU32(m.Name)
	w.Byte(m.Flags)
	if m.Flags&MethodHasOptional != 0 {
		w.WriteU32(uint32(len(m.Optional)))
		for _, o := range m.Optional {
			w.WriteU32(o.Index)
			w.Byte(o.Kind)
		}
	}
	if m.Flags&MethodHasParamNames != 0 {
		for _, n := range m.ParamNames {
			w.WriteU32(n)
		}
	}
	return nil
}

func writeTraits(w *binary.Writer, traits []Trait) {
	w.WriteU32(uint32(len(traits)))
	for _, t := range traits {
		w.WriteU32(t.Name)
		w.Byte(byte(t.Kind)&0x0F | t.Attributes<<4)
		switch t.Kind {
		case TraitSlot, TraitConst:
			w.WriteU32(t.ID)
			w.WriteU32(t.Type)
			w.WriteU32(t.Value)
			if t.Value != 0 {
				w.Byte(t.ValueKind)
			}
		default:
			w.WriteU32(t.ID)
			w.WriteU32(t.Index)
		}
		if t.Attributes&TraitAttrMetadata != 0 {
			writeU30List(w, t.Metadata)
		}
	}
}

// BodyOf returns the body of method i, or nil for native and interface
// methods.
func (f *File) BodyOf(method int) *MethodBody {
	for i := range f.Bodies {
		if int(f.Bodies[i].Method) == method {
			return &f.Bodies[i]
		}
	}
	return nil
}

// MethodLabel returns a readable name for method i, built from the class
// and trait that own it when there is one.
func (f *File) MethodLabel(method int) string {
	name := func(idx uint32) string {
		s, err := f.Pool.MultinameString(int(idx))
		if err != nil {
			return "m[" + strconv.Itoa(int(idx)) + "]"
		}
		return s
	}
	fromTraits := func(owner string, traits []Trait) (string, bool) {
		for _, t := range traits {
			switch t.Kind {
			case TraitMethod, TraitFunction:
			case TraitGetter:
				if int(t.Index) == method {
					return owner + "get " + name(t.Name), true
				}
				continue
			case TraitSetter:
				if int(t.Index) == method {
					return owner + "set " + name(t.Name), true
				}
				continue
			default:
				continue
			}
			if int(t.Index) == method {
				return owner + name(t.Name), true
			}
		}
		return "", false
	}

	for i, in := range f.Instances {
		class := name(in.Name)
		if int(in.Init) == method {
			return class + "/constructor"
		}
		if s, ok := fromTraits(class+"/", in.Traits); ok {
			return s
		}
		if i < len(f.Classes) {
			if int(f.Classes[i].Init) == method {
				return class + "/static initializer"
			}
			if s, ok := fromTraits(class+"/static ", f.Classes[i].Traits); ok {
				return s
			}
		}
	}
	for i, s := range f.Scripts {
		if int(s.Init) == method {
			return "script" + strconv.Itoa(i) + "/init"
		}
		if l, ok := fromTraits("script"+strconv.Itoa(i)+"/", s.Traits); ok {
			return l
		}
	}
	if method >= 0 && method < len(f.Methods) && f.Methods[method].Name != 0 {
		if s, err := f.Pool.String(int(f.Methods[method].Name)); err == nil && s != "" {
			return s
		}
	}
	return "method" + strconv.Itoa(method)
}
