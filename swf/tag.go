package swf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/wippyai/swfkit/abc"
	"github.com/wippyai/swfkit/internal/binary"
)

// TagType is the numeric id of a tag record.
type TagType uint16

// Modeled tag types.
const (
	TagEnd                TagType = 0
	TagShowFrame          TagType = 1
	TagRemoveObject       TagType = 5
	TagSetBackgroundColor TagType = 9
	TagRemoveObject2      TagType = 28
	TagFrameLabel         TagType = 43
	TagDebugID            TagType = 63
	TagEnableDebugger2    TagType = 64
	TagScriptLimits       TagType = 65
	TagSetTabIndex        TagType = 66
	TagFileAttributes     TagType = 69
	TagDoABCDefine        TagType = 72
	TagSymbolClass        TagType = 76
	TagMetadata           TagType = 77
	TagDoABC              TagType = 82
)

var tagNames = map[TagType]string{
	TagEnd:                "End",
	TagShowFrame:          "ShowFrame",
	2:                     "DefineShape",
	4:                     "PlaceObject",
	TagRemoveObject:       "RemoveObject",
	6:                     "DefineBits",
	7:                     "DefineButton",
	8:                     "JPEGTables",
	TagSetBackgroundColor: "SetBackgroundColor",
	10:                    "DefineFont",
	11:                    "DefineText",
	12:                    "DoAction",
	13:                    "DefineFontInfo",
	14:                    "DefineSound",
	15:                    "StartSound",
	17:                    "DefineButtonSound",
	18:                    "SoundStreamHead",
	19:                    "SoundStreamBlock",
	20:                    "DefineBitsLossless",
	21:                    "DefineBitsJPEG2",
	22:                    "DefineShape2",
	23:                    "DefineButtonCxform",
	24:                    "Protect",
	26:                    "PlaceObject2",
	TagRemoveObject2:      "RemoveObject2",
	32:                    "DefineShape3",
	33:                    "DefineText2",
	34:                    "DefineButton2",
	35:                    "DefineBitsJPEG3",
	36:                    "DefineBitsLossless2",
	37:                    "DefineEditText",
	39:                    "DefineSprite",
	41:                    "ProductInfo",
	TagFrameLabel:         "FrameLabel",
	45:                    "SoundStreamHead2",
	46:                    "DefineMorphShape",
	48:                    "DefineFont2",
	56:                    "ExportAssets",
	57:                    "ImportAssets",
	58:                    "EnableDebugger",
	59:                    "DoInitAction",
	60:                    "DefineVideoStream",
	61:                    "VideoFrame",
	62:                    "DefineFontInfo2",
	TagDebugID:            "DebugID",
	TagEnableDebugger2:    "EnableDebugger2",
	TagScriptLimits:       "ScriptLimits",
	TagSetTabIndex:        "SetTabIndex",
	TagFileAttributes:     "FileAttributes",
	70:                    "PlaceObject3",
	71:                    "ImportAssets2",
	TagDoABCDefine:        "DoABCDefine",
	73:                    "DefineFontAlignZones",
	74:                    "CSMTextSettings",
	75:                    "DefineFont3",
	TagSymbolClass:        "SymbolClass",
	TagMetadata:           "Metadata",
	78:                    "DefineScalingGrid",
	TagDoABC:              "DoABC",
	83:                    "DefineShape4",
	84:                    "DefineMorphShape2",
	86:                    "DefineSceneAndFrameLabelData",
	87:                    "DefineBinaryData",
	88:                    "DefineFontName",
	89:                    "StartSound2",
	90:                    "DefineBitsJPEG4",
	91:                    "DefineFont4",
	93:                    "EnableTelemetry",
}

func (t TagType) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Unknown(" + strconv.Itoa(int(t)) + ")"
}

// Tag is a decoded tag record. The set of implementations is closed; tags
// without a model are *Unknown.
type Tag interface {
	Type() TagType
	Version() uint8 // format version the tag was decoded under
	String() string
	encode(w *binary.Writer) error
}

// Header carries the fields shared by every tag.
type Header struct {
	SWFVersion uint8
}

// Version returns the format version the tag was decoded under.
func (h Header) Version() uint8 { return h.SWFVersion }

// Unknown is a tag kept as its raw payload.
type Unknown struct {
	Header
	Payload []byte
	Code    TagType
}

func (t *Unknown) Type() TagType { return t.Code }

func (t *Unknown) String() string {
	return fmt.Sprintf("%s len=%d", t.Code, len(t.Payload))
}

func (t *Unknown) encode(w *binary.Writer) error {
	w.WriteBytes(t.Payload)
	return nil
}

// End marks the end of a display list.
type End struct{ Header }

func (t *End) Type() TagType                 { return TagEnd }
func (t *End) String() string                { return "End" }
func (t *End) encode(w *binary.Writer) error { return nil }

// ShowFrame displays the current frame.
type ShowFrame struct{ Header }

func (t *ShowFrame) Type() TagType                 { return TagShowFrame }
func (t *ShowFrame) String() string                { return "ShowFrame" }
func (t *ShowFrame) encode(w *binary.Writer) error { return nil }

// RemoveObject removes a character from a depth.
type RemoveObject struct {
	Header
	CharacterID uint16
	Depth       uint16
}

func (t *RemoveObject) Type() TagType { return TagRemoveObject }

func (t *RemoveObject) String() string {
	return fmt.Sprintf("RemoveObject character=%d depth=%d", t.CharacterID, t.Depth)
}

func (t *RemoveObject) encode(w *binary.Writer) error {
	w.WriteU16(t.CharacterID)
	w.WriteU16(t.Depth)
	return nil
}

// RemoveObject2 removes whatever is at a depth.
type RemoveObject2 struct {
	Header
	Depth uint16
}

func (t *RemoveObject2) Type() TagType { return TagRemoveObject2 }

func (t *RemoveObject2) String() string {
	return fmt.Sprintf("RemoveObject2 depth=%d", t.Depth)
}

func (t *RemoveObject2) encode(w *binary.Writer) error {
	w.WriteU16(t.Depth)
	return nil
}

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SetBackgroundColor sets the stage color.
type SetBackgroundColor struct {
	Header
	Color RGB
}

func (t *SetBackgroundColor) Type() TagType { return TagSetBackgroundColor }

func (t *SetBackgroundColor) String() string {
	return "SetBackgroundColor " + t.Color.String()
}

func (t *SetBackgroundColor) encode(w *binary.Writer) error {
	w.Byte(t.Color.R)
	w.Byte(t.Color.G)
	w.Byte(t.Color.B)
	return nil
}

// FrameLabel names the current frame. The named anchor flag exists from
// version 6 on.
type FrameLabel struct {
	Header
	Name        string
	NamedAnchor bool
}

func (t *FrameLabel) Type() TagType { return TagFrameLabel }

func (t *FrameLabel) String() string {
	s := fmt.Sprintf("FrameLabel %q", displayString(t.Name, t.SWFVersion))
	if t.NamedAnchor {
		s += " anchor"
	}
	return s
}

func (t *FrameLabel) encode(w *binary.Writer) error {
	if err := w.WriteCString(t.Name); err != nil {
		return err
	}
	if t.NamedAnchor {
		if t.SWFVersion < 6 {
			return invalidField(t, "named anchor needs version 6")
		}
		w.Byte(1)
	}
	return nil
}

// DebugID ties a file to its debug information.
type DebugID struct {
	Header
	ID uuid.UUID
}

func (t *DebugID) Type() TagType { return TagDebugID }

func (t *DebugID) String() string {
	return "DebugID " + t.ID.String()
}

func (t *DebugID) encode(w *binary.Writer) error {
	w.WriteBytes(t.ID[:])
	return nil
}

// EnableDebugger2 enables remote debugging, guarded by an MD5 password hash.
type EnableDebugger2 struct {
	Header
	Password string
	Reserved uint16
}

func (t *EnableDebugger2) Type() TagType { return TagEnableDebugger2 }

func (t *EnableDebugger2) String() string {
	if t.Password == "" {
		return "EnableDebugger2"
	}
	return "EnableDebugger2 password=" + t.Password
}

func (t *EnableDebugger2) encode(w *binary.Writer) error {
	w.WriteU16(t.Reserved)
	return w.WriteCString(t.Password)
}

// ScriptLimits overrides the player's script limits.
type ScriptLimits struct {
	Header
	MaxRecursionDepth    uint16
	ScriptTimeoutSeconds uint16
}

func (t *ScriptLimits) Type() TagType { return TagScriptLimits }

func (t *ScriptLimits) String() string {
	return fmt.Sprintf("ScriptLimits recursion=%d timeout=%ds", t.MaxRecursionDepth, t.ScriptTimeoutSeconds)
}

func (t *ScriptLimits) encode(w *binary.Writer) error {
	w.WriteU16(t.MaxRecursionDepth)
	w.WriteU16(t.ScriptTimeoutSeconds)
	return nil
}

// SetTabIndex sets the tab order of the object at a depth.
type SetTabIndex struct {
	Header
	Depth    uint16
	TabIndex uint16
}

func (t *SetTabIndex) Type() TagType { return TagSetTabIndex }

func (t *SetTabIndex) String() string {
	return fmt.Sprintf("SetTabIndex depth=%d index=%d", t.Depth, t.TabIndex)
}

func (t *SetTabIndex) encode(w *binary.Writer) error {
	w.WriteU16(t.Depth)
	w.WriteU16(t.TabIndex)
	return nil
}

// FileAttributes flags.
const (
	AttrUseNetwork         uint32 = 0x01
	AttrNoCrossDomainCache uint32 = 0x04
	AttrActionScript3      uint32 = 0x08
	AttrHasMetadata        uint32 = 0x10
	AttrUseGPU             uint32 = 0x20
	AttrUseDirectBlit      uint32 = 0x40
)

var attrNames = []struct {
	flag uint32
	name string
}{
	{AttrUseDirectBlit, "directblit"},
	{AttrUseGPU, "gpu"},
	{AttrHasMetadata, "metadata"},
	{AttrActionScript3, "as3"},
	{AttrNoCrossDomainCache, "nocrossdomaincache"},
	{AttrUseNetwork, "network"},
}

// FileAttributes describes file-wide capabilities.
type FileAttributes struct {
	Header
	Flags uint32
}

func (t *FileAttributes) Type() TagType { return TagFileAttributes }

// ActionScript3 reports whether the file carries AVM2 code.
func (t *FileAttributes) ActionScript3() bool { return t.Flags&AttrActionScript3 != 0 }

func (t *FileAttributes) String() string {
	var names []string
	for _, a := range attrNames {
		if t.Flags&a.flag != 0 {
			names = append(names, a.name)
		}
	}
	if len(names) == 0 {
		return "FileAttributes"
	}
	return "FileAttributes " + strings.Join(names, ",")
}

func (t *FileAttributes) encode(w *binary.Writer) error {
	w.WriteU32LE(t.Flags)
	return nil
}

// CodeTag is implemented by tags that carry an ABC unit.
type CodeTag interface {
	Tag
	ABCData() []byte
}

// DoABCDefine carries an ABC unit with no header fields.
type DoABCDefine struct {
	Header
	Data []byte
}

func (t *DoABCDefine) Type() TagType   { return TagDoABCDefine }
func (t *DoABCDefine) ABCData() []byte { return t.Data }

func (t *DoABCDefine) String() string {
	return fmt.Sprintf("DoABCDefine len=%d", len(t.Data))
}

func (t *DoABCDefine) encode(w *binary.Writer) error {
	w.WriteBytes(t.Data)
	return nil
}

// DoABC flags.
const DoABCLazyInitialize uint32 = 1

// DoABC carries a named ABC unit.
type DoABC struct {
	Header
	Name  string
	Data  []byte
	Flags uint32
}

func (t *DoABC) Type() TagType   { return TagDoABC }
func (t *DoABC) ABCData() []byte { return t.Data }

// ABC parses the carried unit.
func (t *DoABC) ABC() (*abc.File, error) { return abc.Parse(t.Data) }

func (t *DoABC) String() string {
	s := fmt.Sprintf("DoABC %q len=%d", t.Name, len(t.Data))
	if t.Flags&DoABCLazyInitialize != 0 {
		s += " lazy"
	}
	return s
}

func (t *DoABC) encode(w *binary.Writer) error {
	w.WriteU32LE(t.Flags)
	if err := w.WriteCString(t.Name); err != nil {
		return err
	}
	w.WriteBytes(t.Data)
	return nil
}

// Symbol links a character id to a class name. Id 0 is the main timeline.
type Symbol struct {
	Name string
	ID   uint16
}

// SymbolClass binds characters to ActionScript classes.
type SymbolClass struct {
	Header
	Symbols []Symbol
}

func (t *SymbolClass) Type() TagType { return TagSymbolClass }

func (t *SymbolClass) String() string {
	var b strings.Builder
	b.WriteString("SymbolClass")
	for _, s := range t.Symbols {
		fmt.Fprintf(&b, " %d=%s", s.ID, displayString(s.Name, t.SWFVersion))
	}
	return b.String()
}

func (t *SymbolClass) encode(w *binary.Writer) error {
	if len(t.Symbols) > 0xFFFF {
		return invalidField(t, "too many symbols")
	}
	w.WriteU16(uint16(len(t.Symbols)))
	for _, s := range t.Symbols {
		w.WriteU16(s.ID)
		if err := w.WriteCString(s.Name); err != nil {
			return err
		}
	}
	return nil
}

// Metadata holds an XMP document describing the file.
type Metadata struct {
	Header
	XML string
}

func (t *Metadata) Type() TagType { return TagMetadata }

func (t *Metadata) String() string {
	return fmt.Sprintf("Metadata len=%d", len(t.XML))
}

func (t *Metadata) encode(w *binary.Writer) error {
	return w.WriteCString(t.XML)
}

// displayString converts a string stored by a pre-6 file, which used the
// system code page, for display. Later versions store UTF-8.
func displayString(s string, version uint8) string {
	if version >= 6 {
		return s
	}
	out, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
