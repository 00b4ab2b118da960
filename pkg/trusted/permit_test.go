package trusted

import (
	"bytes"
	"testing"
)

func TestFindClassForSignatureFirstMatch(t *testing.T) { // A
	t.Parallel()
	permits := []Permit{
		{ClassIndex: 3, SigIndex: 9},
		{ClassIndex: 4, SigIndex: 9},
	}
	got, ok := FindClassForSignature(permits, 9)
	if !ok || got != 3 {
		t.Fatalf("got (%d, %v), want (3, true)", got, ok)
	}
}

func TestFindSignatureForClassFirstMatch(t *testing.T) { // A
	t.Parallel()
	permits := []Permit{
		{ClassIndex: 7, SigIndex: 1},
		{ClassIndex: 8, SigIndex: 2},
		{ClassIndex: 7, SigIndex: 3},
	}
	got, ok := FindSignatureForClass(permits, 7)
	if !ok || got != 1 {
		t.Fatalf("got (%d, %v), want (1, true)", got, ok)
	}
}

func TestPermitLookupNoMatch(t *testing.T) { // A
	t.Parallel()
	if _, ok := FindClassForSignature(nil, 9); ok {
		t.Fatal("empty permit list should not match")
	}
	if _, ok := FindClassForSignature([]Permit{}, 9); ok {
		t.Fatal("empty permit list should not match")
	}
	permits := []Permit{{ClassIndex: 1, SigIndex: 2}}
	if _, ok := FindSignatureForClass(permits, 999); ok {
		t.Fatal("class 999 is not referenced by any permit")
	}
}

func TestPermitWireFormat(t *testing.T) { // A
	t.Parallel()
	var buf bytes.Buffer
	p := Permit{ClassIndex: 0x0102, SigIndex: 0xFFFE}
	if err := WritePermit(&buf, p); err != nil {
		t.Fatalf("WritePermit: %v", err)
	}
	want := []byte{0x01, 0x02, 0xFF, 0xFE}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("wire = %x, want %x", buf.Bytes(), want)
	}
	got, err := ReadPermit(&buf)
	if err != nil {
		t.Fatalf("ReadPermit: %v", err)
	}
	if got != p {
		t.Fatalf("got %+v, want %+v", got, p)
	}
	if _, err := ReadPermit(bytes.NewReader([]byte{0x01})); err == nil {
		t.Fatal("expected error for short permit")
	}
}

func TestAttributePermitQueries(t *testing.T) { // A
	t.Parallel()
	a, idx := sampleAttribute(t)

	got, ok := a.PermitClass(RefResourceAccessPermit, idx.sigA)
	if !ok || got != 4 {
		t.Fatalf("got (%d, %v), want (4, true)", got, ok)
	}
	sig, ok := a.PermitSignature(SubclassPermit, 1)
	if !ok || sig != idx.sigB {
		t.Fatalf("got (%d, %v), want (%d, true)", sig, ok, idx.sigB)
	}
	if _, ok := a.PermitClass(ResourceAccessPermit, idx.sigA); ok {
		t.Fatal("resource permits do not carry sigA")
	}
	if _, ok := a.PermitClass(PermitKind(7), idx.sigA); ok {
		t.Fatal("unknown kind should not match")
	}

	raw, ok, err := a.PermitSignatureBytes(SubclassPermit, 0)
	if err != nil || !ok {
		t.Fatalf("PermitSignatureBytes: (%v, %v)", ok, err)
	}
	if !bytes.Equal(raw, bytes.Repeat([]byte{0x01}, 64)) {
		t.Fatalf("signature = %x", raw)
	}
	if _, ok, err := a.PermitSignatureBytes(
		SubclassPermit, 42,
	); ok || err != nil {
		t.Fatalf("got (%v, %v), want (false, nil)", ok, err)
	}
}

func TestPermitKindString(t *testing.T) { // A
	t.Parallel()
	if SubclassPermit.String() != "subclass" {
		t.Fatalf("got %q", SubclassPermit.String())
	}
	if PermitKind(9).String() != "PermitKind(9)" {
		t.Fatalf("got %q", PermitKind(9).String())
	}
}
