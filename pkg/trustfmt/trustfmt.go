// Package trustfmt renders a Trusted attribute for people. It is
// not used by decoding, encoding or any access decision.
package trustfmt

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

// ClassNames carries the names of the enclosing class's direct
// supertypes, used to label permit class indices.
type ClassNames struct {
	Interfaces []string
	Superclass string
}

// PermitClassName labels a permit's class index. Indices below
// len(Interfaces) name an interface; the index equal to
// len(Interfaces) names the superclass. Anything else is shown as
// "#<index>".
func PermitClassName(names ClassNames, classIndex uint16) string {
	i := int(classIndex)
	switch {
	case i < len(names.Interfaces):
		return names.Interfaces[i]
	case i == len(names.Interfaces) && names.Superclass != "":
		return names.Superclass
	default:
		return "#" + strconv.Itoa(i)
	}
}

// Options tunes the rendering.
type Options struct {
	// BlobPrefix limits how many bytes of each key or signature
	// are shown. Zero shows 8.
	BlobPrefix int
	// SkipPool omits the secure pool listing.
	SkipPool bool
}

// Write renders a to w.
func Write(
	w io.Writer,
	a *trusted.Attribute,
	names ClassNames,
	opts Options,
) error {
	if opts.BlobPrefix <= 0 {
		opts.BlobPrefix = 8
	}
	p := &printer{w: w, opts: opts}

	p.line(0, "%s attribute (%d bytes)", trusted.AttributeName, a.Length())
	p.line(1, "csp: %s", cspLabel(a))
	p.line(1, "access flags: %s", a.AccessFlags())
	p.line(1, "cp extra entry offset: %d", a.CPExtraEntryOffset())
	p.line(1, "subclass key: %s",
		p.key(a.Pool(), a.SubclassKeyIndex()))
	p.line(1, "class resource access key: %s",
		p.key(a.Pool(), a.ResourceAccessKeyIndex()))
	p.line(1, "fields: %s",
		accessibility(a.DefaultFieldAccessibility(), a.FieldsAccessibility()))
	p.line(1, "methods: %s",
		accessibility(a.DefaultMethodAccessibility(), a.MethodsAccessibility()))

	for _, kind := range []trusted.PermitKind{
		trusted.SubclassPermit,
		trusted.ResourceAccessPermit,
		trusted.RefResourceAccessPermit,
	} {
		permits := a.Permits(kind)
		p.line(1, "%s permits: %d", kind, len(permits))
		for i, pm := range permits {
			p.line(2, "[%d] %s -> signature #%d%s",
				i,
				PermitClassName(names, pm.ClassIndex),
				pm.SigIndex,
				p.signature(a.Pool(), pm.SigIndex))
		}
	}

	domains := a.Domains()
	p.line(1, "domains: %d", len(domains))
	for i, d := range domains {
		p.line(2, "[%d] key %s, signature %s",
			i, p.blob(d.Key()), p.blob(d.Signature()))
	}

	if !opts.SkipPool {
		pool := a.Pool()
		p.line(1, "secure pool: %d entries", pool.Len())
		for i := 1; i <= pool.Len(); i++ {
			e, _ := pool.Entry(uint16(i))
			p.line(2, "#%d (virtual %d) %s",
				i, a.VirtualIndex(uint16(i)), p.entry(e))
		}
	}
	return p.err
}

// String renders a with default options.
func String(a *trusted.Attribute, names ClassNames) string {
	var sb strings.Builder
	_ = Write(&sb, a, names, Options{})
	return sb.String()
}

type printer struct {
	w    io.Writer
	opts Options
	err  error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(
		p.w,
		"%s%s\n",
		strings.Repeat("  ", depth),
		fmt.Sprintf(format, args...),
	)
}

func (p *printer) blob(b []byte) string {
	n := len(b)
	if n == 0 {
		return "(empty)"
	}
	shown := b
	suffix := ""
	if n > p.opts.BlobPrefix {
		shown = b[:p.opts.BlobPrefix]
		suffix = "..."
	}
	return fmt.Sprintf("%d bytes %s%s", n, hex.EncodeToString(shown), suffix)
}

func (p *printer) key(pool *trusted.SecurePool, index uint16) string {
	if index == 0 {
		return "none"
	}
	key, err := pool.Key(index)
	if err != nil {
		return fmt.Sprintf("#%d <%v>", index, err)
	}
	return fmt.Sprintf("#%d %s", index, p.blob(key))
}

func (p *printer) signature(pool *trusted.SecurePool, index uint16) string {
	sig, err := pool.Signature(index)
	if err != nil {
		return fmt.Sprintf(" <%v>", err)
	}
	return " (" + p.blob(sig) + ")"
}

func (p *printer) entry(e trusted.Entry) string {
	switch v := e.(type) {
	case trusted.Utf8Entry:
		return fmt.Sprintf("Utf8 %q", v.Value)
	case trusted.IntegerEntry:
		return fmt.Sprintf("Integer %d", v.Value)
	case trusted.FloatEntry:
		return fmt.Sprintf("Float %g", v.Float())
	case trusted.ClassEntry:
		return fmt.Sprintf("Class #%d", v.NameIndex)
	case trusted.StringEntry:
		return fmt.Sprintf("String #%d", v.StringIndex)
	case trusted.RefEntry:
		return fmt.Sprintf("%s #%d.#%d", v.Kind, v.ClassIndex, v.NameAndTypeIndex)
	case trusted.NameAndTypeEntry:
		return fmt.Sprintf("NameAndType #%d:#%d", v.NameIndex, v.DescriptorIndex)
	case trusted.KeyEntry:
		return "PublicKey " + p.blob(v.Bytes())
	case trusted.SignatureEntry:
		return "Signature " + p.blob(v.Bytes())
	default:
		return fmt.Sprintf("%v", e)
	}
}

func cspLabel(a *trusted.Attribute) string {
	name, err := a.CSPName()
	if err != nil {
		return fmt.Sprintf("#%d <%v>", a.CSPIdentifier(), err)
	}
	return fmt.Sprintf("%s (#%d)", name, a.CSPIdentifier())
}

func accessibility(def bool, except []uint16) string {
	label := "inaccessible"
	if def {
		label = "accessible"
	}
	if len(except) == 0 {
		return "default " + label
	}
	parts := make([]string, len(except))
	for i, v := range except {
		parts[i] = strconv.Itoa(int(v))
	}
	return fmt.Sprintf("default %s, except [%s]", label, strings.Join(parts, " "))
}
