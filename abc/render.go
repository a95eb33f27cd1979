package abc

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// ListingOptions selects the columns of a listing line.
type ListingOptions struct {
	Addresses bool // leading four-digit hex address
	Bytes     bool // encoded bytes, padded to a fixed column
}

const bytesColumn = 30

// Render formats the instruction as mnemonic, operands and comment,
// resolving pool references against pool.
//
// The text is always complete. Operands that cannot be resolved are printed
// by index and the resolution errors are returned joined.
func (in *Instruction) Render(pool *ConstantPool) (string, error) {
	return in.Text(pool, ListingOptions{})
}

// Line formats the instruction as a full listing line: address, bytes,
// mnemonic, operands and comment.
func (in *Instruction) Line(pool *ConstantPool) (string, error) {
	return in.Text(pool, ListingOptions{Addresses: true, Bytes: true})
}

// Text formats the instruction with the given columns.
func (in *Instruction) Text(pool *ConstantPool, opts ListingOptions) (string, error) {
	var b strings.Builder
	if opts.Addresses {
		b.WriteString(formatAddress(in.Offset))
		b.WriteByte(' ')
	}
	if opts.Bytes {
		raw, err := in.Encode()
		if err != nil {
			raw = in.Raw
		}
		b.WriteString(padRight(hexBytes(raw), bytesColumn))
	}
	if in.Def == nil {
		b.WriteString("<nil>")
		return b.String(), nil
	}
	b.WriteString(in.Def.Name)
	if !in.Def.Assigned && !opts.Bytes && len(in.Raw) > 0 {
		// placeholders carry their bytes even without the bytes column
		b.WriteString(" " + strings.TrimSpace(hexBytes(in.Raw)))
	}
	err := in.writeParams(&b, pool)
	b.WriteString(in.commentSuffix())
	return b.String(), err
}

func (in *Instruction) writeParams(b *strings.Builder, pool *ConstantPool) error {
	var errs []error
	for i, slot := range in.Def.Operands {
		if i >= len(in.Operands) {
			break
		}
		v := in.Operands[i]
		b.WriteByte(' ')
		switch slot.Semantic {
		case SemMultiname:
			s, err := pool.MultinameString(v)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(b, "m[%d]", v)
				continue
			}
			fmt.Fprintf(b, "m[%d]\"%s\"", v, escapeString(s))
		case SemString:
			s, err := pool.String(v)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(b, "s[%d]", v)
				continue
			}
			b.WriteString(`"` + escapeString(s) + `"`)
		case SemInt:
			n, err := pool.Int(v)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(b, "i[%d]", v)
				continue
			}
			b.WriteString(strconv.FormatInt(int64(n), 10))
		case SemUint:
			n, err := pool.Uint(v)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(b, "u[%d]", v)
				continue
			}
			b.WriteString(strconv.FormatUint(uint64(n), 10))
		case SemDouble:
			d, err := pool.Double(v)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(b, "d[%d]", v)
				continue
			}
			b.WriteString(strconv.FormatFloat(d, 'g', -1, 64))
		case SemNamespace:
			s, err := pool.NamespaceName(v)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(b, "ns[%d]", v)
				continue
			}
			fmt.Fprintf(b, "ns[%d]\"%s\"", v, escapeString(s))
		case SemOffset:
			n := len(in.Raw)
			if l, err := in.Len(); err == nil {
				n = l
			}
			b.WriteString("ofs" + formatAddress(in.Offset+v+n))
		case SemCaseBase:
			b.WriteString("ofs" + formatAddress(in.Offset+v))
		case SemCaseOffsets:
			b.WriteString(strconv.Itoa(v))
			for _, d := range in.Operands[i+1:] {
				b.WriteString(" ofs" + formatAddress(in.Offset+d))
			}
		default:
			b.WriteString(strconv.Itoa(v))
		}
	}
	return stderrors.Join(errs...)
}

func (in *Instruction) commentSuffix() string {
	if in.Ignored {
		return " ;ignored"
	}
	if in.Comment == "" {
		return ""
	}
	return " ;" + in.Comment
}

func formatAddress(addr int) string {
	return fmt.Sprintf("%04x", addr)
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, "%02x ", c)
	}
	return sb.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

// escapeString escapes s for display between double quotes.
func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
