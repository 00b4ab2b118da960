package trusted

import (
	"errors"
	"fmt"
)

// Builder assembles a SecurePool for a packaging tool. Indices
// returned by the Add methods stay valid in the pool returned by
// Pool.
type Builder struct { // A
	entries []Entry
	utf8    map[string]uint16
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { // A
	return &Builder{utf8: make(map[string]uint16)}
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int { return len(b.entries) } // A

func (b *Builder) add(e Entry) (uint16, error) { // A
	if len(b.entries) >= MaxPoolEntries {
		return 0, fmt.Errorf(
			"secure pool is full (%d entries)",
			MaxPoolEntries,
		)
	}
	if err := checkEntry(e); err != nil {
		return 0, err
	}
	b.entries = append(b.entries, e)
	// #nosec G115 -- bounded by MaxPoolEntries above.
	return uint16(len(b.entries)), nil
}

// AddUtf8 adds a text constant. Identical text is stored once.
func (b *Builder) AddUtf8(s string) (uint16, error) { // A
	if idx, ok := b.utf8[s]; ok {
		return idx, nil
	}
	idx, err := b.add(Utf8Entry{Value: s})
	if err != nil {
		return 0, err
	}
	b.utf8[s] = idx
	return idx, nil
}

// AddClass adds a Class entry and the Utf8 entry naming it.
func (b *Builder) AddClass(name string) (uint16, error) { // A
	nameIndex, err := b.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	return b.add(ClassEntry{NameIndex: nameIndex})
}

// AddPublicKey adds an encoded public key.
func (b *Builder) AddPublicKey(key []byte) (uint16, error) { // A
	e, err := NewKeyEntry(key)
	if err != nil {
		return 0, err
	}
	return b.add(e)
}

// AddSignature adds an encoded signature.
func (b *Builder) AddSignature(sig []byte) (uint16, error) { // A
	e, err := NewSignatureEntry(sig)
	if err != nil {
		return 0, err
	}
	return b.add(e)
}

// AddEntry adds any other entry, such as an IntegerEntry.
func (b *Builder) AddEntry(e Entry) (uint16, error) { // A
	if e == nil {
		return 0, errors.New("entry must not be nil")
	}
	return b.add(e)
}

// Pool freezes the entries added so far into a SecurePool. The
// Builder can keep growing; earlier pools are unaffected.
func (b *Builder) Pool() (*SecurePool, error) { // A
	return NewSecurePool(b.entries...)
}
