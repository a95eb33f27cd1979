package swf

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/internal/binary"
)

type decoder func(r *binary.Reader, h Header) (Tag, error)

var decoders = map[TagType]decoder{
	TagEnd: func(r *binary.Reader, h Header) (Tag, error) {
		return &End{Header: h}, nil
	},
	TagShowFrame: func(r *binary.Reader, h Header) (Tag, error) {
		return &ShowFrame{Header: h}, nil
	},
	TagRemoveObject: func(r *binary.Reader, h Header) (Tag, error) {
		t := &RemoveObject{Header: h}
		var err error
		if t.CharacterID, err = r.ReadU16(); err != nil {
			return nil, err
		}
		t.Depth, err = r.ReadU16()
		return t, err
	},
	TagRemoveObject2: func(r *binary.Reader, h Header) (Tag, error) {
		t := &RemoveObject2{Header: h}
		var err error
		t.Depth, err = r.ReadU16()
		return t, err
	},
	TagSetBackgroundColor: func(r *binary.Reader, h Header) (Tag, error) {
		b, err := r.ReadBytes(3)
		if err != nil {
			return nil, err
		}
		return &SetBackgroundColor{Header: h, Color: RGB{R: b[0], G: b[1], B: b[2]}}, nil
	},
	TagFrameLabel: func(r *binary.Reader, h Header) (Tag, error) {
		t := &FrameLabel{Header: h}
		var err error
		if t.Name, err = r.ReadCString(); err != nil {
			return nil, err
		}
		if h.SWFVersion >= 6 && r.Len() == 1 {
			flag, _ := r.ReadByte()
			if flag != 1 {
				// not an anchor flag; leaves trailing data
				_ = r.Reset(r.Position() - 1)
				return t, nil
			}
			t.NamedAnchor = true
		}
		return t, nil
	},
	TagDebugID: func(r *binary.Reader, h Header) (Tag, error) {
		b, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}
		id, err := uuid.FromBytes(b)
		if err != nil {
			return nil, err
		}
		return &DebugID{Header: h, ID: id}, nil
	},
	TagEnableDebugger2: func(r *binary.Reader, h Header) (Tag, error) {
		t := &EnableDebugger2{Header: h}
		var err error
		if t.Reserved, err = r.ReadU16(); err != nil {
			return nil, err
		}
		t.Password, err = r.ReadCString()
		return t, err
	},
	TagScriptLimits: func(r *binary.Reader, h Header) (Tag, error) {
		t := &ScriptLimits{Header: h}
		var err error
		if t.MaxRecursionDepth, err = r.ReadU16(); err != nil {
			return nil, err
		}
		t.ScriptTimeoutSeconds, err = r.ReadU16()
		return t, err
	},
	TagSetTabIndex: func(r *binary.Reader, h Header) (Tag, error) {
		t := &SetTabIndex{Header: h}
		var err error
		if t.Depth, err = r.ReadU16(); err != nil {
			return nil, err
		}
		t.TabIndex, err = r.ReadU16()
		return t, err
	},
	TagFileAttributes: func(r *binary.Reader, h Header) (Tag, error) {
		t := &FileAttributes{Header: h}
		var err error
		t.Flags, err = r.ReadU32LE()
		return t, err
	},
	TagDoABCDefine: func(r *binary.Reader, h Header) (Tag, error) {
		return &DoABCDefine{Header: h, Data: r.ReadRemaining()}, nil
	},
	TagDoABC: func(r *binary.Reader, h Header) (Tag, error) {
		t := &DoABC{Header: h}
		var err error
		if t.Flags, err = r.ReadU32LE(); err != nil {
			return nil, err
		}
		if t.Name, err = r.ReadCString(); err != nil {
			return nil, err
		}
		t.Data = r.ReadRemaining()
		return t, nil
	},
	TagSymbolClass: func(r *binary.Reader, h Header) (Tag, error) {
		n, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		// each symbol takes at least three bytes
		if int(n)*3 > r.Len() {
			return nil, errors.UnexpectedEnd(errors.PhaseDecode, r.Position(), int(n)*3, r.Len())
		}
		t := &SymbolClass{Header: h, Symbols: make([]Symbol, n)}
		for i := range t.Symbols {
			if t.Symbols[i].ID, err = r.ReadU16(); err != nil {
				return nil, err
			}
			if t.Symbols[i].Name, err = r.ReadCString(); err != nil {
				return nil, err
			}
		}
		return t, nil
	},
	TagMetadata: func(r *binary.Reader, h Header) (Tag, error) {
		t := &Metadata{Header: h}
		var err error
		t.XML, err = r.ReadCString()
		return t, err
	},
}

// Decode decodes a tag payload. Container framing is not part of payload.
//
// Types without a model decode to *Unknown holding the payload. So do
// modeled types whose payload has bytes left over after the known fields,
// which keeps re-encoding lossless. A payload too short for its fields
// fails with an *errors.Error whose Consumed field holds the bytes read.
func Decode(code TagType, payload []byte, version uint8) (Tag, error) {
	h := Header{SWFVersion: version}
	dec, ok := decoders[code]
	if !ok {
		return &Unknown{Header: h, Code: code, Payload: payload}, nil
	}

	r := binary.NewReader(payload)
	tag, err := dec(r, h)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			c := e.At(0, r.Span(0))
			c.Path = []string{code.String()}
			return nil, c
		}
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(code.String()).
			Cause(err).
			Offset(0, r.Span(0)).
			Build()
	}
	if r.Len() > 0 {
		Logger().Debug("keeping tag opaque",
			zap.Stringer("type", code),
			zap.Int("length", len(payload)),
			zap.Int("trailing", r.Len()))
		return &Unknown{Header: h, Code: code, Payload: payload}, nil
	}
	return tag, nil
}

// Encode serializes a tag's payload. An *Unknown returns its payload
// unchanged.
func Encode(tag Tag) ([]byte, error) {
	w := binary.NewWriter()
	if err := tag.encode(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func invalidField(t Tag, detail string) error {
	return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
		Path(t.Type().String()).
		Detail("%s", detail).
		Build()
}
