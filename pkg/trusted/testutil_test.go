package trusted

import (
	"bytes"
	"testing"
)

// sampleIndices records where sampleAttribute placed its pool
// entries.
type sampleIndices struct { // A
	csp         uint16
	subclassKey uint16
	resourceKey uint16
	sigA        uint16
	sigB        uint16
	sigC        uint16
}

// sampleAttribute builds a fully populated, valid attribute.
func sampleAttribute( // A
	t *testing.T,
) (*Attribute, sampleIndices) {
	t.Helper()
	b := NewBuilder()
	var idx sampleIndices
	idx.csp = mustAdd(t)(b.AddUtf8("Ed25519"))
	if _, err := b.AddClass("com/example/Base"); err != nil {
		t.Fatalf("AddClass: %v", err)
	}
	idx.subclassKey = mustAdd(t)(b.AddPublicKey(bytes.Repeat([]byte{0xAA}, 32)))
	idx.resourceKey = mustAdd(t)(b.AddPublicKey(bytes.Repeat([]byte{0xBB}, 32)))
	idx.sigA = mustAdd(t)(b.AddSignature(bytes.Repeat([]byte{0x01}, 64)))
	idx.sigB = mustAdd(t)(b.AddSignature(bytes.Repeat([]byte{0x02}, 64)))
	idx.sigC = mustAdd(t)(b.AddSignature([]byte{}))
	if _, err := b.AddEntry(IntegerEntry{Value: -7}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	pool, err := b.Pool()
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}

	d1 := mustDomain(t, []byte("domain-key-1"), []byte("domain-sig-1"))
	d2 := mustDomain(t, nil, []byte{0xFF})

	a, err := New(Params{
		Pool:               pool,
		CPExtraEntryOffset: 41,
		CSPIdentifier:      idx.csp,
		AccessFlags: FlagSubclassGated |
			FlagResourceAccessGated,
		SubclassKey:                idx.subclassKey,
		ResourceAccessKey:          idx.resourceKey,
		DefaultFieldAccessibility:  true,
		NonDefaultFields:           []uint16{2, 5},
		DefaultMethodAccessibility: false,
		NonDefaultMethods:          []uint16{1},
		SubclassPermits: []Permit{
			{ClassIndex: 0, SigIndex: idx.sigA},
			{ClassIndex: 1, SigIndex: idx.sigB},
		},
		ResourceAccessPermits: []Permit{
			{ClassIndex: 3, SigIndex: idx.sigC},
		},
		RefResourceAccessPermits: []Permit{
			{ClassIndex: 4, SigIndex: idx.sigA},
			{ClassIndex: 6, SigIndex: idx.sigA},
		},
		Domains: []Domain{d1, d2},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, idx
}

// minimalAttribute builds an attribute with only a CSP name.
func minimalAttribute(t *testing.T) *Attribute { // A
	t.Helper()
	pool, err := NewSecurePool(Utf8Entry{Value: "X"})
	if err != nil {
		t.Fatalf("NewSecurePool: %v", err)
	}
	a, err := New(Params{
		Pool:                      pool,
		CSPIdentifier:             1,
		DefaultFieldAccessibility: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func mustAdd(t *testing.T) func(uint16, error) uint16 { // A
	t.Helper()
	return func(idx uint16, err error) uint16 {
		t.Helper()
		if err != nil {
			t.Fatalf("add pool entry: %v", err)
		}
		return idx
	}
}

func mustDomain( // A
	t *testing.T,
	key []byte,
	sig []byte,
) Domain {
	t.Helper()
	d, err := NewDomain(key, sig)
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	return d
}

func mustMarshal(t *testing.T, a *Attribute) []byte { // A
	t.Helper()
	data, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return data
}
