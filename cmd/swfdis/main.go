package main

import (
	"encoding/hex"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/swfkit/abc"
	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/swf"
)

type config struct {
	swfFile string
	abcFile string
	codeHex string
	method  int
	opts    abc.ListingOptions
	tags    bool
	raw     bool
	dump    bool
	styled  bool
}

func main() {
	var (
		swfFile     = flag.String("swf", "", "Path to SWF file")
		abcFile     = flag.String("abc", "", "Path to a raw ABC unit")
		codeHex     = flag.String("code", "", "Method body bytecode as hex")
		method      = flag.Int("method", -1, "Disassemble only this method index")
		tags        = flag.Bool("tags", false, "List tags and exit")
		raw         = flag.Bool("raw", false, "Do not decode tag payloads")
		dump        = flag.Bool("dump", false, "Dump parsed structures")
		noBytes     = flag.Bool("nobytes", false, "Hide instruction bytes")
		verbose     = flag.Bool("v", false, "Debug logging to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *swfFile == "" && *abcFile == "" && *codeHex == "" {
		fmt.Fprintln(os.Stderr, "Usage: swfdis -swf <file.swf> [-tags] [-raw] [-method n] [-dump]")
		fmt.Fprintln(os.Stderr, "       swfdis -abc <file.abc> [-method n] [-dump]")
		fmt.Fprintln(os.Stderr, "       swfdis -code <hex>")
		fmt.Fprintln(os.Stderr, "       swfdis -swf <file.swf> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = l.Sync() }()
		abc.SetLogger(l.Named("abc"))
		swf.SetLogger(l.Named("swf"))
	}

	cfg := config{
		swfFile: *swfFile,
		abcFile: *abcFile,
		codeHex: *codeHex,
		method:  *method,
		opts:    abc.ListingOptions{Addresses: true, Bytes: !*noBytes},
		tags:    *tags,
		raw:     *raw,
		dump:    *dump,
		styled:  term.IsTerminal(int(os.Stdout.Fd())),
	}

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	err   lipgloss.Style
	dim   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, label: plain, err: plain, dim: plain}
	}
	return styles{
		title: titleStyle,
		label: funcStyle,
		err:   errorStyle,
		dim:   helpStyle,
	}
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func run(w io.Writer, cfg config) error {
	st := newStyles(cfg.styled)

	if cfg.codeHex != "" {
		return disassembleHex(w, cfg.codeHex, cfg.opts)
	}

	if cfg.abcFile != "" {
		data, err := os.ReadFile(cfg.abcFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		file, err := abc.Parse(data)
		if err != nil {
			return fmt.Errorf("parse abc: %w", err)
		}
		if cfg.dump {
			dumper.Fdump(w, file)
			return nil
		}
		if cfg.method >= 0 && file.BodyOf(cfg.method) == nil {
			return fmt.Errorf("method %d has no body", cfg.method)
		}
		writeUnit(w, st, file, cfg)
		return nil
	}

	f, err := loadSWF(cfg)
	if err != nil {
		return err
	}
	if cfg.dump {
		dumper.Fdump(w, f)
		return nil
	}

	fmt.Fprintf(w, "%s %s\n", st.title.Render("SWF"), cfg.swfFile)
	writeSummary(w, f)
	fmt.Fprintln(w)
	writeTags(w, st, f)
	if cfg.tags {
		return nil
	}

	units, err := f.ABC()
	found := false
	for i, u := range units {
		// with -method, units without that body are skipped
		if cfg.method >= 0 && u.BodyOf(cfg.method) == nil {
			continue
		}
		found = true
		fmt.Fprintf(w, "\n%s\n\n", st.title.Render(fmt.Sprintf("ABC unit %d (%d.%d)", i, u.Major, u.Minor)))
		writeUnit(w, st, u, cfg)
	}
	if cfg.method >= 0 && !found {
		return stderrors.Join(fmt.Errorf("method %d has no body", cfg.method), err)
	}
	return err
}

func loadSWF(cfg config) (*swf.File, error) {
	data, err := os.ReadFile(cfg.swfFile)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	opts := swf.DefaultParseOptions()
	opts.DecodeTags = !cfg.raw
	f, err := swf.ParseWithOptions(data, opts)
	if err != nil {
		return nil, fmt.Errorf("parse swf: %w", err)
	}
	return f, nil
}

// loadUnits returns every ABC unit named by cfg.
func loadUnits(cfg config) ([]*abc.File, error) {
	if cfg.abcFile != "" {
		data, err := os.ReadFile(cfg.abcFile)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		file, err := abc.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse abc: %w", err)
		}
		return []*abc.File{file}, nil
	}
	f, err := loadSWF(cfg)
	if err != nil {
		return nil, err
	}
	return f.ABC()
}

func writeSummary(w io.Writer, f *swf.File) {
	compression := "none"
	if f.Compressed {
		compression = "zlib"
	}
	fmt.Fprintf(w, "Version: %d\n", f.Version)
	fmt.Fprintf(w, "Compression: %s\n", compression)
	fmt.Fprintf(w, "Frame size: %dx%d twips\n", f.FrameSize.XMax-f.FrameSize.XMin, f.FrameSize.YMax-f.FrameSize.YMin)
	fmt.Fprintf(w, "Frame rate: %g fps\n", f.FPS())
	fmt.Fprintf(w, "Frames: %d\n", f.FrameCount)
	fmt.Fprintf(w, "Tags: %d\n", len(f.Records))
}

func writeTags(w io.Writer, st styles, f *swf.File) {
	for i, rec := range f.Records {
		fmt.Fprintf(w, "%4d  %s", i, rec.Tag)
		if rec.Err != nil {
			fmt.Fprint(w, st.err.Render("  ; "+rec.Err.Error()))
		}
		fmt.Fprintln(w)
	}
	if len(f.Trailing) > 0 {
		fmt.Fprintln(w, st.dim.Render(fmt.Sprintf("      %d bytes after End", len(f.Trailing))))
	}
}

func writeUnit(w io.Writer, st styles, file *abc.File, cfg config) {
	for i := range file.Bodies {
		body := &file.Bodies[i]
		if cfg.method >= 0 && int(body.Method) != cfg.method {
			continue
		}
		fmt.Fprintln(w, st.label.Render(methodHeader(file, body)))
		text, err := bodyListing(file, body, cfg.opts)
		io.WriteString(w, text)
		if err != nil {
			fmt.Fprintln(w, st.err.Render(commentLines(err)))
		}
		fmt.Fprintln(w)
	}
}

func methodHeader(file *abc.File, body *abc.MethodBody) string {
	return fmt.Sprintf("method %d %s  max_stack=%d locals=%d scope=%d..%d code=%d",
		body.Method, file.MethodLabel(int(body.Method)),
		body.MaxStack, body.LocalCount, body.InitScopeDepth, body.MaxScopeDepth, len(body.Code))
}

// bodyListing disassembles a body against its unit's pool. A body that
// fails to decode still lists the instructions before the failure.
func bodyListing(file *abc.File, body *abc.MethodBody, opts abc.ListingOptions) (string, error) {
	code, derr := body.Disassemble()
	text, lerr := code.Listing(file.Pool, opts)
	return text, stderrors.Join(derr, code.Unrecognized(), lerr)
}

func disassembleHex(w io.Writer, s string, opts abc.ListingOptions) error {
	data, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	code, derr := abc.Disassemble(data)
	text, lerr := code.Listing(nil, opts)
	io.WriteString(w, text)
	// there is no pool to resolve against
	return stderrors.Join(derr, withoutPoolErrors(lerr))
}

func withoutPoolErrors(err error) error {
	var keep []error
	for _, e := range flatten(err) {
		if !stderrors.Is(e, errors.ErrInvalidConstantPoolIndex) {
			keep = append(keep, e)
		}
	}
	return stderrors.Join(keep...)
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func commentLines(err error) string {
	lines := strings.Split(err.Error(), "\n")
	for i, l := range lines {
		lines[i] = "; " + l
	}
	return strings.Join(lines, "\n")
}
