package swf_test

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/swf"
)

func TestRemoveObject2Scenario(t *testing.T) {
	for _, version := range []uint8{1, 6, 10, 40} {
		tag, err := swf.Decode(swf.TagRemoveObject2, []byte{0x05, 0x00}, version)
		if err != nil {
			t.Fatalf("version %d: %v", version, err)
		}
		ro, ok := tag.(*swf.RemoveObject2)
		if !ok {
			t.Fatalf("version %d: got %T", version, tag)
		}
		if ro.Depth != 5 || ro.Version() != version {
			t.Errorf("version %d: depth=%d version=%d", version, ro.Depth, ro.Version())
		}
		out, err := swf.Encode(tag)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, []byte{0x05, 0x00}) {
			t.Errorf("version %d: Encode = % x", version, out)
		}
	}
}

func TestOpaqueTagFidelity(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	tag, err := swf.Decode(swf.TagType(26), payload, 10)
	if err != nil {
		t.Fatal(err)
	}
	u, ok := tag.(*swf.Unknown)
	if !ok {
		t.Fatalf("got %T, want *swf.Unknown", tag)
	}
	if u.Type() != 26 || u.Type().String() != "PlaceObject2" {
		t.Errorf("type = %d %s", u.Type(), u.Type())
	}
	out, err := swf.Encode(tag)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, payload) {
		t.Errorf("Encode = % x, want % x", out, payload)
	}
}

func TestTagRoundTrip(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name    string
		code    swf.TagType
		version uint8
		payload []byte
		want    swf.Tag
	}{
		{"end", swf.TagEnd, 10, nil, &swf.End{Header: swf.Header{SWFVersion: 10}}},
		{"show frame", swf.TagShowFrame, 10, nil, &swf.ShowFrame{Header: swf.Header{SWFVersion: 10}}},
		{"remove object", swf.TagRemoveObject, 4, []byte{0x01, 0x02, 0x03, 0x00},
			&swf.RemoveObject{Header: swf.Header{SWFVersion: 4}, CharacterID: 0x0201, Depth: 3}},
		{"background", swf.TagSetBackgroundColor, 10, []byte{0xFF, 0x80, 0x00},
			&swf.SetBackgroundColor{Header: swf.Header{SWFVersion: 10}, Color: swf.RGB{R: 0xFF, G: 0x80, B: 0x00}}},
		{"frame label", swf.TagFrameLabel, 10, []byte{'i', 'n', 't', 'r', 'o', 0},
			&swf.FrameLabel{Header: swf.Header{SWFVersion: 10}, Name: "intro"}},
		{"frame label anchor", swf.TagFrameLabel, 6, []byte{'a', 0, 1},
			&swf.FrameLabel{Header: swf.Header{SWFVersion: 6}, Name: "a", NamedAnchor: true}},
		{"debug id", swf.TagDebugID, 10, id[:],
			&swf.DebugID{Header: swf.Header{SWFVersion: 10}, ID: id}},
		{"enable debugger", swf.TagEnableDebugger2, 10, []byte{0, 0, '$', '1', 0},
			&swf.EnableDebugger2{Header: swf.Header{SWFVersion: 10}, Password: "$1"}},
		{"script limits", swf.TagScriptLimits, 10, []byte{0xE8, 0x03, 0x0F, 0x00},
			&swf.ScriptLimits{Header: swf.Header{SWFVersion: 10}, MaxRecursionDepth: 1000, ScriptTimeoutSeconds: 15}},
		{"tab index", swf.TagSetTabIndex, 10, []byte{0x02, 0x00, 0x07, 0x00},
			&swf.SetTabIndex{Header: swf.Header{SWFVersion: 10}, Depth: 2, TabIndex: 7}},
		{"file attributes", swf.TagFileAttributes, 10, []byte{0x19, 0, 0, 0},
			&swf.FileAttributes{Header: swf.Header{SWFVersion: 10}, Flags: swf.AttrUseNetwork | swf.AttrActionScript3 | swf.AttrHasMetadata}},
		{"do abc define", swf.TagDoABCDefine, 9, []byte{0x10, 0x00, 0x2E, 0x00},
			&swf.DoABCDefine{Header: swf.Header{SWFVersion: 9}, Data: []byte{0x10, 0x00, 0x2E, 0x00}}},
		{"do abc", swf.TagDoABC, 10, []byte{1, 0, 0, 0, 'm', 0, 0x10, 0x00},
			&swf.DoABC{Header: swf.Header{SWFVersion: 10}, Flags: swf.DoABCLazyInitialize, Name: "m", Data: []byte{0x10, 0x00}}},
		{"symbol class", swf.TagSymbolClass, 10, []byte{2, 0, 0, 0, 'M', 'a', 'i', 'n', 0, 5, 0, 'B', 0},
			&swf.SymbolClass{Header: swf.Header{SWFVersion: 10}, Symbols: []swf.Symbol{{ID: 0, Name: "Main"}, {ID: 5, Name: "B"}}}},
		{"metadata", swf.TagMetadata, 10, []byte{'<', 'x', '/', '>', 0},
			&swf.Metadata{Header: swf.Header{SWFVersion: 10}, XML: "<x/>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := swf.Decode(tt.code, tt.payload, tt.version)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(tag, tt.want) {
				t.Errorf("Decode = %#v, want %#v", tag, tt.want)
			}
			if tag.Type() != tt.code {
				t.Errorf("Type = %s, want %s", tag.Type(), tt.code)
			}
			out, err := swf.Encode(tag)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(out, tt.payload) {
				t.Errorf("Encode = % x, want % x", out, tt.payload)
			}
		})
	}
}

func TestTrailingBytesKeepTagOpaque(t *testing.T) {
	tests := []struct {
		name    string
		code    swf.TagType
		version uint8
		payload []byte
	}{
		{"remove object2", swf.TagRemoveObject2, 10, []byte{0x05, 0x00, 0x01}},
		{"show frame", swf.TagShowFrame, 10, []byte{0x00}},
		{"anchor before version 6", swf.TagFrameLabel, 5, []byte{'a', 0, 1}},
		{"bad anchor flag", swf.TagFrameLabel, 8, []byte{'a', 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := swf.Decode(tt.code, tt.payload, tt.version)
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := tag.(*swf.Unknown); !ok {
				t.Fatalf("got %T, want *swf.Unknown", tag)
			}
			if tag.Type() != tt.code {
				t.Errorf("Type = %s, want %s", tag.Type(), tt.code)
			}
			out, _ := swf.Encode(tag)
			if !bytes.Equal(out, tt.payload) {
				t.Errorf("Encode = % x, want % x", out, tt.payload)
			}
		})
	}
}

func TestDecodeTruncatedTag(t *testing.T) {
	tests := []struct {
		name     string
		code     swf.TagType
		payload  []byte
		consumed int
	}{
		{"remove object2", swf.TagRemoveObject2, []byte{0x05}, 0},
		{"remove object", swf.TagRemoveObject, []byte{0x01, 0x00, 0x02}, 2},
		{"debug id", swf.TagDebugID, make([]byte, 15), 0},
		{"unterminated label", swf.TagFrameLabel, []byte{'a', 'b'}, 0},
		{"do abc flags", swf.TagDoABC, []byte{1, 0}, 0},
		{"symbol count", swf.TagSymbolClass, []byte{9, 0, 1, 0, 'a', 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := swf.Decode(tt.code, tt.payload, 10)
			if !stderrors.Is(err, errors.ErrUnexpectedEndOfData) {
				t.Fatalf("err = %v, want unexpected end", err)
			}
			var e *errors.Error
			stderrors.As(err, &e)
			if len(e.Consumed) != tt.consumed {
				t.Errorf("consumed %d bytes, want %d", len(e.Consumed), tt.consumed)
			}
			if len(e.Path) != 1 || e.Path[0] != tt.code.String() {
				t.Errorf("path = %v", e.Path)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		tag  swf.Tag
	}{
		{"anchor before version 6", &swf.FrameLabel{Header: swf.Header{SWFVersion: 5}, Name: "a", NamedAnchor: true}},
		{"nul in label", &swf.FrameLabel{Header: swf.Header{SWFVersion: 10}, Name: "a\x00b"}},
		{"nul in abc name", &swf.DoABC{Name: "\x00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := swf.Encode(tt.tag)
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidInput {
				t.Errorf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestTagString(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		tag  swf.Tag
		want string
	}{
		{&swf.RemoveObject2{Depth: 5}, "RemoveObject2 depth=5"},
		{&swf.SetBackgroundColor{Color: swf.RGB{R: 0xFF, G: 0xFF, B: 0xFF}}, "SetBackgroundColor #ffffff"},
		{&swf.FrameLabel{Header: swf.Header{SWFVersion: 10}, Name: "intro", NamedAnchor: true}, `FrameLabel "intro" anchor`},
		{&swf.FrameLabel{Header: swf.Header{SWFVersion: 5}, Name: "caf\xe9"}, `FrameLabel "café"`},
		{&swf.FileAttributes{Flags: swf.AttrActionScript3 | swf.AttrUseNetwork}, "FileAttributes as3,network"},
		{&swf.FileAttributes{}, "FileAttributes"},
		{&swf.DebugID{ID: id}, "DebugID 6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{&swf.DoABC{Name: "frame1", Data: make([]byte, 3), Flags: swf.DoABCLazyInitialize}, `DoABC "frame1" len=3 lazy`},
		{&swf.SymbolClass{Header: swf.Header{SWFVersion: 10}, Symbols: []swf.Symbol{{ID: 0, Name: "Main"}}}, "SymbolClass 0=Main"},
		{&swf.ScriptLimits{MaxRecursionDepth: 256, ScriptTimeoutSeconds: 15}, "ScriptLimits recursion=256 timeout=15s"},
		{&swf.Unknown{Code: 26, Payload: make([]byte, 4)}, "PlaceObject2 len=4"},
		{&swf.Unknown{Code: 1000}, "Unknown(1000) len=0"},
	}
	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFileAttributesActionScript3(t *testing.T) {
	if !(&swf.FileAttributes{Flags: swf.AttrActionScript3}).ActionScript3() {
		t.Error("ActionScript3 flag not reported")
	}
	if (&swf.FileAttributes{Flags: swf.AttrUseNetwork}).ActionScript3() {
		t.Error("ActionScript3 reported without flag")
	}
}
