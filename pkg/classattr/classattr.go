// Package classattr is the boundary between a class's attribute
// table and the Trusted attribute codec. It reads the attribute
// header, resolves the name through the ordinary constant pool and
// hands Trusted bodies to package trusted. Other attributes are
// kept as raw bytes.
package classattr

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

const (
	logKeyName   = "name"
	logKeyLength = "length"
	logKeyError  = "error"
)

// headerSize is the name index plus the 32-bit body length.
const headerSize = 6

// ConstantPool resolves names in the class's ordinary constant
// pool. It is only consulted for names, never for a security
// decision.
type ConstantPool interface { // A
	Utf8(index uint16) (string, error)
}

// Attribute is one entry of an attribute table. Exactly one of
// Trusted and Raw is set, unless Err reports a skipped Trusted
// attribute.
type Attribute struct { // A
	NameIndex uint16
	Name      string
	Length    uint32
	Trusted   *trusted.Attribute
	Raw       []byte
	Err       error
}

// DecodeError reports a Trusted attribute that failed to decode.
type DecodeError struct { // A
	Name string
	Err  error
}

func (e *DecodeError) Error() string { // A
	return fmt.Sprintf("decode %s attribute: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err } // A

// Options configures a Reader.
type Options struct { // A
	// SkipInvalid keeps reading after a Trusted attribute fails
	// to decode. The failed attribute is returned with Err set and
	// its remaining bytes are discarded.
	SkipInvalid bool
	Logger      *slog.Logger
}

// Reader reads attribute tables.
type Reader struct { // A
	pool ConstantPool
	opts Options
	log  *slog.Logger
}

// NewReader returns a Reader resolving names through pool.
func NewReader(pool ConstantPool, opts Options) *Reader { // A
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reader{pool: pool, opts: opts, log: logger}
}

// Read reads one attribute from src.
func (r *Reader) Read(src io.Reader) (Attribute, error) { // A
	var hdr [headerSize]byte
	if _, err := io.ReadFull(src, hdr[:]); err != nil {
		return Attribute{}, fmt.Errorf("read attribute header: %w", err)
	}
	attr := Attribute{
		NameIndex: binary.BigEndian.Uint16(hdr[:2]),
		Length:    binary.BigEndian.Uint32(hdr[2:]),
	}
	name, err := r.pool.Utf8(attr.NameIndex)
	if err != nil {
		return Attribute{}, fmt.Errorf(
			"resolve attribute name #%d: %w",
			attr.NameIndex,
			err,
		)
	}
	attr.Name = name

	body := io.LimitReader(src, int64(attr.Length))
	if name != trusted.AttributeName {
		r.log.DebugContext(context.Background(), "keeping raw attribute",
			logKeyName, name,
			logKeyLength, attr.Length)
		attr.Raw, err = readRaw(body, attr.Length)
		if err != nil {
			return Attribute{}, err
		}
		return attr, nil
	}

	decoded, err := trusted.Decode(body, attr.Length)
	if err != nil {
		derr := &DecodeError{Name: name, Err: err}
		if !r.opts.SkipInvalid || !errors.Is(err, trusted.ErrFormat) {
			return Attribute{}, derr
		}
		r.log.WarnContext(context.Background(), "skipping invalid attribute",
			logKeyName, name,
			logKeyLength, attr.Length,
			logKeyError, err)
		if _, err := io.Copy(io.Discard, body); err != nil {
			return Attribute{}, fmt.Errorf("skip %s attribute: %w", name, err)
		}
		attr.Err = derr
		return attr, nil
	}
	attr.Trusted = decoded
	return attr, nil
}

// readRaw reads the body from r, which must already be limited to
// n bytes. The buffer grows with the bytes actually read, so a
// header declaring more than the stream holds costs nothing.
func readRaw(r io.Reader, n uint32) ([]byte, error) { // A
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %d byte attribute body: %w", n, err)
	}
	if uint64(len(buf)) != uint64(n) {
		return nil, fmt.Errorf(
			"read %d byte attribute body: got %d bytes: %w",
			n,
			len(buf),
			io.ErrUnexpectedEOF,
		)
	}
	return buf, nil
}

// ReadTable reads a 16-bit attribute count followed by that many
// attributes.
func (r *Reader) ReadTable(src io.Reader) ([]Attribute, error) { // A
	var cnt [2]byte
	if _, err := io.ReadFull(src, cnt[:]); err != nil {
		return nil, fmt.Errorf("read attribute count: %w", err)
	}
	n := int(binary.BigEndian.Uint16(cnt[:]))
	attrs := make([]Attribute, 0, n)
	for i := 0; i < n; i++ {
		a, err := r.Read(src)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// Trusted returns the first decoded Trusted attribute in attrs.
func Trusted(attrs []Attribute) (*trusted.Attribute, bool) { // A
	for _, a := range attrs {
		if a.Trusted != nil {
			return a.Trusted, true
		}
	}
	return nil, false
}

// Write writes one attribute: the header followed by the Trusted
// encoding or the raw body.
func Write(w io.Writer, a Attribute) error { // A
	length := a.Length
	if a.Trusted != nil {
		length = a.Trusted.Length()
	} else if len(a.Raw) != int(a.Length) {
		return fmt.Errorf(
			"raw body is %d bytes, header says %d",
			len(a.Raw),
			a.Length,
		)
	}
	var hdr [headerSize]byte
	binary.BigEndian.PutUint16(hdr[:2], a.NameIndex)
	binary.BigEndian.PutUint32(hdr[2:], length)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write attribute header: %w", err)
	}
	if a.Trusted != nil {
		return a.Trusted.Encode(w)
	}
	if _, err := w.Write(a.Raw); err != nil {
		return fmt.Errorf("write attribute body: %w", err)
	}
	return nil
}

// WriteTable writes a 16-bit attribute count followed by attrs.
func WriteTable(w io.Writer, attrs []Attribute) error { // A
	if len(attrs) > 0xFFFF {
		return fmt.Errorf("too many attributes: %d", len(attrs))
	}
	var cnt [2]byte
	binary.BigEndian.PutUint16(cnt[:], uint16(len(attrs)))
	if _, err := w.Write(cnt[:]); err != nil {
		return fmt.Errorf("write attribute count: %w", err)
	}
	for i, a := range attrs {
		if err := Write(w, a); err != nil {
			return fmt.Errorf("attribute %d: %w", i, err)
		}
	}
	return nil
}
