package swf

import (
	"bytes"
	stderrors "errors"
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"
	"go.uber.org/zap"

	"github.com/wippyai/swfkit/abc"
	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/internal/binary"
)

// File signatures.
const (
	SignatureUncompressed = "FWS"
	SignatureZlib         = "CWS"
	SignatureLZMA         = "ZWS"
)

const headerSize = 8

// DefaultMaxDecompressedSize bounds the body of a compressed file.
const DefaultMaxDecompressedSize = 64 << 20

// ParseOptions configures container parsing.
type ParseOptions struct {
	// DecodeTags decodes payloads into typed tags. When false every record
	// holds an *Unknown.
	DecodeTags bool
	// MaxDecompressedSize caps the inflated body of a CWS file. Zero means
	// DefaultMaxDecompressedSize.
	MaxDecompressedSize int
}

// DefaultParseOptions returns the options used by Parse.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{DecodeTags: true, MaxDecompressedSize: DefaultMaxDecompressedSize}
}

// Rect is a rectangle in twips.
type Rect struct {
	XMin, XMax, YMin, YMax int32
	// Bits is the field width found when parsing. Encoding uses the larger
	// of Bits and the minimal width.
	Bits uint8
}

// Record is one framed tag.
type Record struct {
	Tag Tag
	// Err is the error that kept a modeled tag opaque, if any.
	Err error
	// LongHeader records that the tag used the 32-bit length form.
	LongHeader bool
}

// File is a parsed SWF container.
type File struct {
	FrameSize  Rect
	Records    []Record
	Trailing   []byte // bytes after the End tag
	Compressed bool
	Version    uint8
	FrameRate  uint16 // 8.8 fixed point
	FrameCount uint16
}

// FPS returns the frame rate in frames per second.
func (f *File) FPS() float64 {
	return float64(f.FrameRate) / 256
}

// Parse parses a container with DefaultParseOptions.
func Parse(data []byte) (*File, error) {
	return ParseWithOptions(data, DefaultParseOptions())
}

// ParseWithOptions parses an FWS or CWS container.
func ParseWithOptions(data []byte, opts ParseOptions) (*File, error) {
	if opts.MaxDecompressedSize <= 0 {
		opts.MaxDecompressedSize = DefaultMaxDecompressedSize
	}
	if len(data) < headerSize {
		return nil, errors.UnexpectedEnd(errors.PhaseParse, 0, headerSize, len(data))
	}

	f := &File{Version: data[3]}
	sig := string(data[:3])
	switch sig {
	case SignatureUncompressed:
	case SignatureZlib:
		f.Compressed = true
	case SignatureLZMA:
		return nil, errors.Unsupported(errors.PhaseParse, "LZMA-compressed (ZWS) files")
	default:
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Path("signature").
			Value(sig).
			Detail("not an SWF file").
			Build()
	}

	hr := binary.NewReader(data[4:headerSize])
	length, _ := hr.ReadU32LE()

	body := data[headerSize:]
	if f.Compressed {
		var err error
		if body, err = inflate(body, int(length)-headerSize, opts.MaxDecompressedSize); err != nil {
			return nil, err
		}
	}

	r := binary.NewReader(body)
	if err := f.parseHeader(r); err != nil {
		return nil, errors.ParseFailed("header", err)
	}
	if err := f.parseRecords(r, opts); err != nil {
		return nil, err
	}
	return f, nil
}

func inflate(data []byte, want, limit int) ([]byte, error) {
	if want > limit {
		return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
			Path("file_length").
			Value(want).
			Detail("declared size %d exceeds limit %d", want, limit).
			Build()
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ParseFailed("zlib stream", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil && !stderrors.Is(err, io.ErrUnexpectedEOF) {
		return nil, errors.ParseFailed("zlib stream", err)
	}
	if len(out) > limit {
		return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
			Detail("decompressed body exceeds limit %d", limit).
			Build()
	}
	Logger().Debug("inflated body",
		zap.Int("compressed", len(data)),
		zap.Int("declared", want),
		zap.Int("inflated", len(out)))
	if err != nil {
		// truncated stream; parse what arrived and let framing report it
		Logger().Debug("zlib stream truncated", zap.Error(err))
	}
	return out, nil
}

func (f *File) parseHeader(r *binary.Reader) error {
	br := binary.NewBitReader(r)
	nbits, err := br.ReadUB(5)
	if err != nil {
		return err
	}
	f.FrameSize.Bits = uint8(nbits)
	for _, p := range []*int32{&f.FrameSize.XMin, &f.FrameSize.XMax, &f.FrameSize.YMin, &f.FrameSize.YMax} {
		if *p, err = br.ReadSB(uint(nbits)); err != nil {
			return err
		}
	}
	br.Align()

	if f.FrameRate, err = r.ReadU16(); err != nil {
		return err
	}
	f.FrameCount, err = r.ReadU16()
	return err
}

func (f *File) parseRecords(r *binary.Reader, opts ParseOptions) error {
	for r.Len() > 0 {
		start := r.Position()
		codeAndLength, err := r.ReadU16()
		if err != nil {
			return errors.ParseFailed("tag header", err)
		}
		code := TagType(codeAndLength >> 6)
		size := int(codeAndLength & 0x3F)
		long := size == 0x3F
		if long {
			n, err := r.ReadU32LE()
			if err != nil {
				return errors.ParseFailed("tag header", err)
			}
			size = int(n)
		}
		payload, err := r.ReadBytes(size)
		if err != nil {
			e := errors.ParseFailed(code.String()+" tag at "+strconv.Itoa(start), err)
			e.Offset = start
			e.Consumed = r.Span(start)
			return e
		}

		rec := Record{LongHeader: long}
		if opts.DecodeTags {
			rec.Tag, rec.Err = Decode(code, payload, f.Version)
			if rec.Err != nil {
				Logger().Debug("keeping tag opaque",
					zap.Stringer("type", code),
					zap.Int("offset", start),
					zap.Error(rec.Err))
				rec.Tag = &Unknown{Header: Header{SWFVersion: f.Version}, Code: code, Payload: payload}
			}
		} else {
			rec.Tag = &Unknown{Header: Header{SWFVersion: f.Version}, Code: code, Payload: payload}
		}
		f.Records = append(f.Records, rec)

		if code == TagEnd {
			if r.Len() > 0 {
				f.Trailing = r.ReadRemaining()
			}
			break
		}
	}
	return nil
}

// Encode serializes the container. Compressed files are deflated again, so
// their bytes may differ from the input while the inflated body matches.
func (f *File) Encode() ([]byte, error) {
	w := binary.NewWriter()
	if err := f.FrameSize.encode(w); err != nil {
		return nil, err
	}
	w.WriteU16(f.FrameRate)
	w.WriteU16(f.FrameCount)

	for i, rec := range f.Records {
		if rec.Tag == nil {
			return nil, errors.InvalidInput(errors.PhaseEncode, "record "+strconv.Itoa(i)+" has no tag")
		}
		payload, err := Encode(rec.Tag)
		if err != nil {
			return nil, err
		}
		code := rec.Tag.Type()
		if code > 0x3FF {
			return nil, errors.Overflow(errors.PhaseEncode, []string{"tag", strconv.Itoa(i)}, code, "10-bit tag type")
		}
		if rec.LongHeader || len(payload) >= 0x3F {
			w.WriteU16(uint16(code)<<6 | 0x3F)
			w.WriteU32LE(uint32(len(payload)))
		} else {
			w.WriteU16(uint16(code)<<6 | uint16(len(payload)))
		}
		w.WriteBytes(payload)
	}
	w.WriteBytes(f.Trailing)

	body := w.Bytes()
	out := binary.NewWriter()
	if f.Compressed {
		out.WriteBytes([]byte(SignatureZlib))
	} else {
		out.WriteBytes([]byte(SignatureUncompressed))
	}
	out.Byte(f.Version)
	out.WriteU32LE(uint32(headerSize + len(body)))

	if !f.Compressed {
		out.WriteBytes(body)
		return out.Bytes(), nil
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "deflate body")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "deflate body")
	}
	out.WriteBytes(buf.Bytes())
	return out.Bytes(), nil
}

func (rc Rect) encode(w *binary.Writer) error {
	nbits := uint(rc.Bits)
	for _, v := range []int32{rc.XMin, rc.XMax, rc.YMin, rc.YMax} {
		if v != 0 {
			nbits = max(nbits, binary.SignedBits(v))
		}
	}
	if nbits > 31 {
		return errors.Overflow(errors.PhaseEncode, []string{"frame_size"}, nbits, "5-bit field width")
	}
	bw := binary.NewBitWriter(w)
	bw.WriteUB(5, uint32(nbits))
	for _, v := range []int32{rc.XMin, rc.XMax, rc.YMin, rc.YMax} {
		bw.WriteSB(nbits, v)
	}
	bw.Flush()
	return nil
}

// ABC parses the ABC unit of every code-carrying tag, in file order.
func (f *File) ABC() ([]*abc.File, error) {
	var out []*abc.File
	for i, rec := range f.Records {
		ct, ok := rec.Tag.(CodeTag)
		if !ok {
			continue
		}
		file, err := abc.Parse(ct.ABCData())
		if err != nil {
			return out, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Path("records", strconv.Itoa(i), ct.Type().String()).
				Cause(err).
				Detail("parse abc").
				Build()
		}
		out = append(out, file)
	}
	return out, nil
}
