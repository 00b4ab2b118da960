package trusted

import (
	"fmt"
	"io"
	"math"
)

// MaxPoolEntries is the largest number of entries a secure
// pool can hold, indices 1 through MaxPoolEntries.
const MaxPoolEntries = math.MaxUint16

// SecurePool is the attribute's own constant pool. A verifier
// trusts it independently of the class's ordinary pool. Index 0
// is reserved; valid indices are 1..Len(). A SecurePool is
// immutable once built.
type SecurePool struct { // A
	entries []Entry
}

// NewSecurePool builds a pool whose first entry gets index 1.
func NewSecurePool(entries ...Entry) (*SecurePool, error) { // A
	if len(entries) > MaxPoolEntries {
		return nil, fmt.Errorf(
			"secure pool has %d entries, limit is %d",
			len(entries),
			MaxPoolEntries,
		)
	}
	p := &SecurePool{entries: make([]Entry, 1, len(entries)+1)}
	for i, e := range entries {
		if e == nil {
			return nil, fmt.Errorf(
				"secure pool entry %d is nil",
				i+1,
			)
		}
		if err := checkEntry(e); err != nil {
			return nil, fmt.Errorf(
				"secure pool entry %d: %w",
				i+1,
				err,
			)
		}
		p.entries = append(p.entries, e)
	}
	return p, nil
}

func checkEntry(e Entry) error { // A
	switch v := e.(type) {
	case Utf8Entry:
		if len(v.Value) > MaxBlobLen {
			return fmt.Errorf(
				"text constant is %d bytes, limit is %d",
				len(v.Value),
				MaxBlobLen,
			)
		}
	case RefEntry:
		if !isRefKind(v.Kind) {
			return fmt.Errorf("%s is not a reference kind", v.Kind)
		}
	case IntegerEntry, FloatEntry, ClassEntry, StringEntry,
		NameAndTypeEntry, KeyEntry, SignatureEntry:
	default:
		return fmt.Errorf("unsupported entry type %T", e)
	}
	return nil
}

// Len returns the number of entries, not counting index 0.
func (p *SecurePool) Len() int { // A
	if p == nil || len(p.entries) == 0 {
		return 0
	}
	return len(p.entries) - 1
}

// Entries returns the entries in index order, starting with
// index 1. The returned slice is a copy.
func (p *SecurePool) Entries() []Entry { // A
	if p.Len() == 0 {
		return nil
	}
	out := make([]Entry, p.Len())
	copy(out, p.entries[1:])
	return out
}

// Entry returns the entry at index without checking its tag.
func (p *SecurePool) Entry(index uint16) (Entry, bool) { // A
	if index == 0 || int(index) > p.Len() {
		return nil, false
	}
	return p.entries[index], true
}

// Resolve returns the entry at index, failing with a
// *ReferenceError when index is 0, out of range, or holds an
// entry whose tag is not want.
func (p *SecurePool) Resolve( // A
	index uint16,
	want Tag,
) (Entry, error) {
	e, ok := p.Entry(index)
	if !ok {
		return nil, &ReferenceError{
			Index:    index,
			Expected: want,
			PoolLen:  p.Len(),
		}
	}
	if e.Tag() != want {
		return nil, &ReferenceError{
			Index:    index,
			Expected: want,
			Actual:   e.Tag(),
			PoolLen:  p.Len(),
		}
	}
	return e, nil
}

// Key returns a copy of the public key stored at index.
func (p *SecurePool) Key(index uint16) ([]byte, error) { // A
	e, err := p.Resolve(index, TagPublicKey)
	if err != nil {
		return nil, err
	}
	return e.(KeyEntry).Bytes(), nil
}

// Signature returns a copy of the signature stored at index.
func (p *SecurePool) Signature(index uint16) ([]byte, error) { // A
	e, err := p.Resolve(index, TagSignature)
	if err != nil {
		return nil, err
	}
	return e.(SignatureEntry).Bytes(), nil
}

// Utf8 returns the text constant stored at index.
func (p *SecurePool) Utf8(index uint16) (string, error) { // A
	e, err := p.Resolve(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return e.(Utf8Entry).Value, nil
}

// ClassName follows a Class entry to its Utf8 name.
func (p *SecurePool) ClassName(index uint16) (string, error) { // A
	e, err := p.Resolve(index, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(e.(ClassEntry).NameIndex)
}

// EncodedLen returns the number of bytes WriteSecurePool
// produces for p.
func (p *SecurePool) EncodedLen() int { // A
	n := 2
	for i := 1; i <= p.Len(); i++ {
		n += 1 + entryPayloadLen(p.entries[i])
	}
	return n
}

// Equal reports whether both pools hold the same entries in
// the same order.
func (p *SecurePool) Equal(other *SecurePool) bool { // A
	if p.Len() != other.Len() {
		return false
	}
	for i := 1; i <= p.Len(); i++ {
		if !entriesEqual(p.entries[i], other.entries[i]) {
			return false
		}
	}
	return true
}

func entryPayloadLen(e Entry) int { // A
	switch v := e.(type) {
	case Utf8Entry:
		return 2 + len(v.Value)
	case KeyEntry:
		return 2 + len(v.data)
	case SignatureEntry:
		return 2 + len(v.data)
	case ClassEntry, StringEntry:
		return 2
	default:
		return 4
	}
}

// ReadSecurePool decodes a 16-bit entry count followed by that
// many tagged entries.
func ReadSecurePool(r io.Reader) (*SecurePool, error) { // A
	count, err := readU16(r)
	if err != nil {
		return nil, fmt.Errorf("read secure pool count: %w", err)
	}
	p := &SecurePool{entries: make([]Entry, 1, int(count)+1)}
	for i := 1; i <= int(count); i++ {
		e, err := readEntry(r, i)
		if err != nil {
			return nil, err
		}
		p.entries = append(p.entries, e)
	}
	return p, nil
}

func readEntry(r io.Reader, index int) (Entry, error) { // A
	raw, err := readU8(r)
	if err != nil {
		return nil, fmt.Errorf(
			"read tag of secure pool entry %d: %w",
			index,
			err,
		)
	}
	tag := Tag(raw)
	e, err := readPayload(r, tag)
	if err != nil {
		if err == errUnknownTag {
			return nil, &TagError{Tag: tag, Index: index}
		}
		return nil, fmt.Errorf(
			"read %s entry %d: %w",
			tag,
			index,
			err,
		)
	}
	return e, nil
}

var errUnknownTag = fmt.Errorf("%w: unknown tag", ErrFormat)

func readPayload(r io.Reader, tag Tag) (Entry, error) { // A
	switch tag {
	case TagUtf8:
		b, err := readBlob(r)
		if err != nil {
			return nil, err
		}
		return Utf8Entry{Value: string(b)}, nil
	case TagPublicKey:
		b, err := readBlob(r)
		if err != nil {
			return nil, err
		}
		return KeyEntry{data: b}, nil
	case TagSignature:
		b, err := readBlob(r)
		if err != nil {
			return nil, err
		}
		return SignatureEntry{data: b}, nil
	case TagInteger:
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		return IntegerEntry{Value: int32(v)}, nil
	case TagFloat:
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		return FloatEntry{Bits: v}, nil
	case TagClass:
		v, err := readU16(r)
		if err != nil {
			return nil, err
		}
		return ClassEntry{NameIndex: v}, nil
	case TagString:
		v, err := readU16(r)
		if err != nil {
			return nil, err
		}
		return StringEntry{StringIndex: v}, nil
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		a, b, err := readIndexPair(r)
		if err != nil {
			return nil, err
		}
		return RefEntry{
			Kind:             tag,
			ClassIndex:       a,
			NameAndTypeIndex: b,
		}, nil
	case TagNameAndType:
		a, b, err := readIndexPair(r)
		if err != nil {
			return nil, err
		}
		return NameAndTypeEntry{
			NameIndex:       a,
			DescriptorIndex: b,
		}, nil
	default:
		return nil, errUnknownTag
	}
}

func readIndexPair(r io.Reader) (uint16, uint16, error) { // A
	a, err := readU16(r)
	if err != nil {
		return 0, 0, err
	}
	b, err := readU16(r)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// WriteSecurePool encodes p in the layout ReadSecurePool reads.
func WriteSecurePool(w io.Writer, p *SecurePool) error { // A
	count, err := lenToUint16(p.Len())
	if err != nil {
		return fmt.Errorf("secure pool count: %w", err)
	}
	if err := writeU16(w, count); err != nil {
		return fmt.Errorf("write secure pool count: %w", err)
	}
	for i := 1; i <= p.Len(); i++ {
		if err := writeEntry(w, p.entries[i]); err != nil {
			return fmt.Errorf(
				"write secure pool entry %d: %w",
				i,
				err,
			)
		}
	}
	return nil
}

func writeEntry(w io.Writer, e Entry) error { // A
	if err := writeU8(w, uint8(e.Tag())); err != nil {
		return err
	}
	switch v := e.(type) {
	case Utf8Entry:
		return writeBlob(w, []byte(v.Value))
	case KeyEntry:
		return writeBlob(w, v.data)
	case SignatureEntry:
		return writeBlob(w, v.data)
	case IntegerEntry:
		return writeU32(w, uint32(v.Value))
	case FloatEntry:
		return writeU32(w, v.Bits)
	case ClassEntry:
		return writeU16(w, v.NameIndex)
	case StringEntry:
		return writeU16(w, v.StringIndex)
	case RefEntry:
		return writeIndexPair(w, v.ClassIndex, v.NameAndTypeIndex)
	case NameAndTypeEntry:
		return writeIndexPair(w, v.NameIndex, v.DescriptorIndex)
	default:
		return fmt.Errorf("unsupported entry type %T", e)
	}
}

func writeIndexPair(w io.Writer, a, b uint16) error { // A
	if err := writeU16(w, a); err != nil {
		return err
	}
	return writeU16(w, b)
}
