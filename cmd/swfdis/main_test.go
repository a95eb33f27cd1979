package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/swfkit/abc"
	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/swf"
)

func testUnit() *abc.File {
	pool := abc.NewConstantPool()
	pool.Strings = append(pool.Strings, "trace", "hello")
	pool.Namespaces = append(pool.Namespaces, abc.Namespace{Kind: abc.NamespacePackage, Name: 0})
	pool.Multinames = append(pool.Multinames, abc.Multiname{Kind: abc.KindQName, Namespace: 1, Name: 1})
	return &abc.File{
		Pool:    pool,
		Methods: []abc.MethodInfo{{}},
		Scripts: []abc.Script{{Init: 0}},
		Bodies: []abc.MethodBody{{
			Method:        0,
			MaxStack:      2,
			LocalCount:    1,
			MaxScopeDepth: 1,
			Code: []byte{
				abc.OpGetLocal0, abc.OpPushScope,
				abc.OpFindPropStrict, 0x01,
				abc.OpPushString, 0x02,
				abc.OpCallPropVoid, 0x01, 0x01,
				abc.OpReturnVoid,
			},
		}},
		Minor: 16,
		Major: 46,
	}
}

func writeTestSWF(t *testing.T) string {
	t.Helper()
	data, err := testUnit().Encode()
	if err != nil {
		t.Fatal(err)
	}
	return writeSWF(t, data)
}

// writeSWF writes a compressed file with one DoABC tag per unit.
func writeSWF(t *testing.T, units ...[]byte) string {
	t.Helper()
	h := swf.Header{SWFVersion: 10}
	f := &swf.File{
		Compressed: true,
		Version:    10,
		FrameSize:  swf.Rect{XMax: 8000, YMax: 6000},
		FrameRate:  30 << 8,
		FrameCount: 1,
		Records:    []swf.Record{{Tag: &swf.FileAttributes{Header: h, Flags: swf.AttrActionScript3}}},
	}
	for i, data := range units {
		name := "main"
		if i > 0 {
			name = fmt.Sprintf("unit%d", i)
		}
		f.Records = append(f.Records, swf.Record{Tag: &swf.DoABC{Header: h, Flags: swf.DoABCLazyInitialize, Name: name, Data: data}})
	}
	f.Records = append(f.Records, swf.Record{Tag: &swf.ShowFrame{Header: h}}, swf.Record{Tag: &swf.End{Header: h}})
	out, err := f.Encode()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "test.swf")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSWF(t *testing.T) {
	path := writeTestSWF(t)

	var buf bytes.Buffer
	if err := run(&buf, config{swfFile: path, method: -1, opts: abc.ListingOptions{}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Compression: zlib",
		"Frame rate: 30 fps",
		`DoABC "main"`,
		"ABC unit 0 (46.16)",
		"method 0 script0/init",
		`findpropstrict m[1]"trace"`,
		`pushstring "hello"`,
		"returnvoid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunTagsOnly(t *testing.T) {
	path := writeTestSWF(t)

	var buf bytes.Buffer
	if err := run(&buf, config{swfFile: path, method: -1, tags: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "returnvoid") {
		t.Error("tag listing should not disassemble code")
	}
	if !strings.Contains(buf.String(), "ShowFrame") {
		t.Errorf("output missing ShowFrame:\n%s", buf.String())
	}
}

func TestRunMethodSkipsUnitsWithoutBody(t *testing.T) {
	empty, err := (&abc.File{Pool: abc.NewConstantPool(), Minor: 16, Major: 46}).Encode()
	if err != nil {
		t.Fatal(err)
	}
	code, err := testUnit().Encode()
	if err != nil {
		t.Fatal(err)
	}
	path := writeSWF(t, empty, code)

	var buf bytes.Buffer
	if err := run(&buf, config{swfFile: path, method: 0}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "ABC unit 0 ") {
		t.Errorf("unit without the body should be skipped:\n%s", out)
	}
	if !strings.Contains(out, "ABC unit 1 (46.16)") || !strings.Contains(out, "returnvoid") {
		t.Errorf("output:\n%s", out)
	}

	buf.Reset()
	if err := run(&buf, config{swfFile: path, method: 7}); err == nil {
		t.Error("expected error when no unit has the body")
	}
}

func TestRunListsUnrecognizedOpcodes(t *testing.T) {
	unit := testUnit()
	unit.Bodies[0].Code = []byte{abc.OpNop, 0xFF, abc.OpReturnVoid}
	data, err := unit.Encode()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "test.abc")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := run(&buf, config{abcFile: path, method: -1}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "OP_0xFF ff") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "opcode 0xFF at offset 1") {
		t.Errorf("diagnostic missing:\n%s", out)
	}
}

func TestRunABC(t *testing.T) {
	data, err := testUnit().Encode()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "test.abc")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := run(&buf, config{abcFile: path, method: 0, opts: abc.ListingOptions{Addresses: true}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0000 getlocal_0") {
		t.Errorf("output:\n%s", buf.String())
	}

	if err := run(&buf, config{abcFile: path, method: 3}); err == nil {
		t.Error("expected error for a method without body")
	}

	buf.Reset()
	if err := run(&buf, config{abcFile: path, method: -1, dump: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "MaxStack: (uint32) 2") {
		t.Errorf("dump:\n%s", buf.String())
	}
}

func TestDisassembleHex(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []string
	}{
		{
			name: "jump label",
			code: "d0 30 10 01 00 00 02 47",
			want: []string{"jump ofs0007", "ofs0007:\n", "returnvoid"},
		},
		{
			name: "pool references by index",
			code: "6005 2c02 47",
			want: []string{"getlex m[5]", "pushstring s[2]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := disassembleHex(&buf, tt.code, abc.ListingOptions{}); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestDisassembleHexErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := disassembleHex(&buf, "zz", abc.ListingOptions{}); err == nil {
		t.Error("expected error for bad hex")
	}

	buf.Reset()
	err := disassembleHex(&buf, "d0 10 01", abc.ListingOptions{})
	if !stderrors.Is(err, errors.ErrUnexpectedEndOfData) {
		t.Errorf("err = %v, want unexpected end", err)
	}
	if !strings.Contains(buf.String(), "getlocal_0") {
		t.Errorf("partial listing missing:\n%s", buf.String())
	}
}

func TestWithoutPoolErrors(t *testing.T) {
	pool := errors.InvalidPoolIndex(errors.PhaseRender, "string", 4, 1)
	other := errors.InvalidInput(errors.PhaseEncode, "bad")
	err := stderrors.Join(stderrors.Join(pool, other), pool)

	got := flatten(withoutPoolErrors(err))
	if len(got) != 1 || got[0] != other {
		t.Errorf("got %v", got)
	}
	if withoutPoolErrors(pool) != nil {
		t.Error("pool error should be dropped")
	}
}

func TestCommentLines(t *testing.T) {
	err := stderrors.Join(stderrors.New("first"), stderrors.New("second"))
	if got := commentLines(err); got != "; first\n; second" {
		t.Errorf("commentLines = %q", got)
	}
}

func TestFilterEntries(t *testing.T) {
	entries := []methodEntry{
		{label: "Main/constructor"},
		{label: "Main/get width"},
		{label: "script0/init"},
	}
	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{0, 1, 2}},
		{"main", []int{0, 1}},
		{" WIDTH ", []int{1}},
		{"nothing", []int{}},
	}
	for _, tt := range tests {
		if got := filterEntries(entries, tt.query); !slices.Equal(got, tt.want) {
			t.Errorf("filterEntries(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestInteractiveModel(t *testing.T) {
	m := newInteractiveModel(config{abcFile: "test.abc", opts: abc.ListingOptions{Addresses: true}})
	unit := testUnit()
	m.Update(loadedMsg{entries: collectEntries([]*abc.File{unit, unit})})

	if len(m.visible) != 2 || m.entries[1].label != "1:script0/init" {
		t.Fatalf("entries = %+v", m.entries)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Errorf("selected = %d after down", m.selected)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateShowListing {
		t.Fatal("enter should open the listing")
	}
	if !strings.Contains(m.View(), "getlocal_0") {
		t.Errorf("view:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateSelectMethod {
		t.Error("esc should return to the method list")
	}
}

func TestInteractiveModelPartialLoad(t *testing.T) {
	m := newInteractiveModel(config{swfFile: "test.swf"})
	m.Update(loadedMsg{
		entries: collectEntries([]*abc.File{testUnit()}),
		warn:    stderrors.New("records/3/DoABC: parse abc"),
	})
	if m.err != nil || !m.loaded {
		t.Fatalf("err = %v loaded = %v", m.err, m.loaded)
	}
	view := m.View()
	if !strings.Contains(view, "; records/3/DoABC: parse abc") || !strings.Contains(view, "script0/init") {
		t.Errorf("view:\n%s", view)
	}

	m = newInteractiveModel(config{swfFile: "test.swf"})
	m.Update(loadedMsg{err: stderrors.New("parse swf")})
	if !strings.Contains(m.View(), "Error: parse swf") {
		t.Errorf("view:\n%s", m.View())
	}
}
