package abc_test

import (
	"bytes"
	stderrors "errors"
	"slices"
	"testing"

	"github.com/wippyai/swfkit/abc"
	"github.com/wippyai/swfkit/errors"
)

// branchy is:
//
//	0000 getlocal_0
//	0001 iffalse ofs000b
//	0005 pushbyte 1
//	0007 jump ofs000d
//	000b pushbyte 2
//	000d returnvalue
var branchy = []byte{
	abc.OpGetLocal0,
	abc.OpIfFalse, 0x06, 0x00, 0x00,
	abc.OpPushByte, 0x01,
	abc.OpJump, 0x02, 0x00, 0x00,
	abc.OpPushByte, 0x02,
	abc.OpReturnValue,
}

func TestDisassemble(t *testing.T) {
	code, err := abc.Disassemble(branchy)
	if err != nil {
		t.Fatal(err)
	}
	wantOffsets := []int{0, 1, 5, 7, 11, 13}
	if len(code) != len(wantOffsets) {
		t.Fatalf("got %d instructions, want %d", len(code), len(wantOffsets))
	}
	for i, in := range code {
		if in.Offset != wantOffsets[i] {
			t.Errorf("instruction %d at %d, want %d", i, in.Offset, wantOffsets[i])
		}
	}
	out, err := code.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, branchy) {
		t.Errorf("Encode = % x, want % x", out, branchy)
	}
}

func TestDisassembleEmpty(t *testing.T) {
	code, err := abc.Disassemble(nil)
	if err != nil || len(code) != 0 {
		t.Errorf("Disassemble(nil) = %v, %v", code, err)
	}
}

func TestDisassembleUnknownOpcodeSurvives(t *testing.T) {
	body := []byte{abc.OpNop, 0xFF, abc.OpGetLocal, 0x02, abc.OpReturnVoid}
	code, err := abc.Disassemble(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 4 {
		t.Fatalf("got %d instructions, want 4", len(code))
	}
	bad := code[1]
	if bad.Def.Assigned || bad.Offset != 1 || len(bad.Raw) != 1 {
		t.Errorf("placeholder = %s at %d raw % x", bad.Def, bad.Offset, bad.Raw)
	}
	if code[2].Def.Code != abc.OpGetLocal || code[2].Offset != 2 {
		t.Errorf("instruction after unknown = %s at %d", code[2].Def, code[2].Offset)
	}
	out, err := code.Encode()
	if err != nil || !bytes.Equal(out, body) {
		t.Errorf("Encode = % x, %v", out, err)
	}
}

func TestUnrecognized(t *testing.T) {
	code, err := abc.Disassemble([]byte{abc.OpNop, 0xFF, abc.OpGetLocal, 0x02, 0x00, abc.OpReturnVoid})
	if err != nil {
		t.Fatal(err)
	}
	diag := code.Unrecognized()
	if !stderrors.Is(diag, errors.ErrUnrecognizedOpcode) {
		t.Fatalf("Unrecognized = %v", diag)
	}
	var e *errors.Error
	if !stderrors.As(diag, &e) || e.Offset != 1 || !bytes.Equal(e.Consumed, []byte{0xFF}) {
		t.Errorf("first diagnostic = %+v", e)
	}
	if n := len(diag.(interface{ Unwrap() []error }).Unwrap()); n != 2 {
		t.Errorf("got %d diagnostics, want 2", n)
	}

	clean, err := abc.Disassemble(branchy)
	if err != nil {
		t.Fatal(err)
	}
	if err := clean.Unrecognized(); err != nil {
		t.Errorf("Unrecognized = %v, want nil", err)
	}
}

func TestDisassembleTruncated(t *testing.T) {
	code, err := abc.Disassemble([]byte{abc.OpNop, abc.OpJump, 0x01})
	if len(code) != 1 {
		t.Errorf("decoded %d instructions before failure, want 1", len(code))
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("err = %v", err)
	}
	if e.Kind != errors.KindUnexpectedEnd || e.Offset != 1 || !bytes.Equal(e.Consumed, []byte{abc.OpJump}) {
		t.Errorf("got %v", e)
	}
}

func TestTargetsAndIndexOf(t *testing.T) {
	code, err := abc.Disassemble(branchy)
	if err != nil {
		t.Fatal(err)
	}
	targets, err := code.Targets()
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{11, 13}; !slices.Equal(targets, want) {
		t.Errorf("Targets = %v, want %v", targets, want)
	}
	if i := code.IndexOf(11); i != 4 {
		t.Errorf("IndexOf(11) = %d, want 4", i)
	}
	if i := code.IndexOf(12); i != -1 {
		t.Errorf("IndexOf(12) = %d, want -1", i)
	}
}

func TestListing(t *testing.T) {
	code, err := abc.Disassemble(branchy)
	if err != nil {
		t.Fatal(err)
	}
	got, err := code.Listing(nil, abc.ListingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := `getlocal_0
iffalse ofs000b
pushbyte 1
jump ofs000d
ofs000b:
pushbyte 2
ofs000d:
returnvalue
`
	if got != want {
		t.Errorf("Listing =\n%s\nwant\n%s", got, want)
	}
}

func TestListingCollectsErrors(t *testing.T) {
	body := []byte{abc.OpPushString, 0x01, abc.OpGetLex, 0x09, abc.OpReturnVoid}
	code, err := abc.Disassemble(body)
	if err != nil {
		t.Fatal(err)
	}
	got, err := code.Listing(abc.NewConstantPool(), abc.ListingOptions{})
	if !stderrors.Is(err, errors.ErrInvalidConstantPoolIndex) {
		t.Errorf("err = %v, want invalid pool index", err)
	}
	if want := "pushstring s[1]\ngetlex m[9]\nreturnvoid\n"; got != want {
		t.Errorf("Listing = %q, want %q", got, want)
	}
}

func TestRelayoutInsert(t *testing.T) {
	code, err := abc.Disassemble(branchy)
	if err != nil {
		t.Fatal(err)
	}
	// insert a nop before the jump, at its old address
	nop := abc.Instruction{Def: abc.Lookup(abc.OpNop), Offset: 7}
	code = slices.Insert(code, 3, nop)
	if err := code.Relayout(); err != nil {
		t.Fatal(err)
	}

	want := []byte{
		abc.OpGetLocal0,
		abc.OpIfFalse, 0x07, 0x00, 0x00,
		abc.OpPushByte, 0x01,
		abc.OpNop,
		abc.OpJump, 0x02, 0x00, 0x00,
		abc.OpPushByte, 0x02,
		abc.OpReturnValue,
	}
	out, err := code.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, want) {
		t.Errorf("Encode = % x, want % x", out, want)
	}
	targets, _ := code.Targets()
	if !slices.Equal(targets, []int{12, 14}) {
		t.Errorf("Targets = %v, want [12 14]", targets)
	}
	for i := range code {
		if !bytes.Equal(code[i].Raw, out[code[i].Offset:code[i].Offset+len(code[i].Raw)]) {
			t.Errorf("instruction %d raw out of sync", i)
		}
	}
}

func TestRelayoutInsertBranch(t *testing.T) {
	code, err := abc.Disassemble(branchy)
	if err != nil {
		t.Fatal(err)
	}
	// a fresh jump to the returnvalue at 000d, with no raw bytes yet
	jump := abc.Instruction{Def: abc.Lookup(abc.OpJump), Operands: []int{2}, Offset: 7}
	code = slices.Insert(code, 3, jump)
	if err := code.Relayout(); err != nil {
		t.Fatal(err)
	}

	want := []byte{
		abc.OpGetLocal0,
		abc.OpIfFalse, 0x0A, 0x00, 0x00,
		abc.OpPushByte, 0x01,
		abc.OpJump, 0x06, 0x00, 0x00,
		abc.OpJump, 0x02, 0x00, 0x00,
		abc.OpPushByte, 0x02,
		abc.OpReturnValue,
	}
	out, err := code.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, want) {
		t.Errorf("Encode = % x, want % x", out, want)
	}
	targets, err := code[3].BranchTargets()
	if err != nil || !slices.Equal(targets, []int{17}) {
		t.Errorf("inserted jump targets = %v, %v", targets, err)
	}
	if i := code.IndexOf(17); i != 6 || code[i].Def.Code != abc.OpReturnValue {
		t.Errorf("IndexOf(17) = %d", i)
	}
}

func TestRelayoutRemoveWithSwitch(t *testing.T) {
	body := []byte{
		abc.OpLookupSwitch, 0x09, 0x00, 0x00, 0x00, 0x0A, 0x00, 0x00,
		abc.OpNop,
		abc.OpReturnVoid,
		abc.OpReturnVoid,
	}
	code, err := abc.Disassemble(body)
	if err != nil {
		t.Fatal(err)
	}
	code = slices.Delete(code, 1, 2)
	if err := code.Relayout(); err != nil {
		t.Fatal(err)
	}
	if want := []int{8, 0, 9}; !slices.Equal(code[0].Operands, want) {
		t.Errorf("operands = %v, want %v", code[0].Operands, want)
	}
}

func TestRelayoutGrowingOperand(t *testing.T) {
	body := []byte{
		abc.OpJump, 0x02, 0x00, 0x00,
		abc.OpGetLocal, 0x01,
		abc.OpReturnVoid,
	}
	code, err := abc.Disassemble(body)
	if err != nil {
		t.Fatal(err)
	}
	code[1].Operands[0] = 300
	if err := code.Relayout(); err != nil {
		t.Fatal(err)
	}
	if code[0].Operands[0] != 3 {
		t.Errorf("jump delta = %d, want 3", code[0].Operands[0])
	}
	if code[2].Offset != 7 {
		t.Errorf("returnvoid at %d, want 7", code[2].Offset)
	}
}

func TestRelayoutRejectsBadOperands(t *testing.T) {
	code := abc.Code{{Def: abc.Lookup(abc.OpPushByte), Operands: []int{1000}}}
	if err := code.Relayout(); !stderrors.Is(err, errors.ErrOverflow) {
		t.Errorf("err = %v, want overflow", err)
	}
}
