package classattr

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

func buildTrusted(t *testing.T) *trusted.Attribute { // A
	t.Helper()
	b := trusted.NewBuilder()
	cspIndex, err := b.AddUtf8("Ed25519")
	if err != nil {
		t.Fatalf("AddUtf8: %v", err)
	}
	sigIndex, err := b.AddSignature([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("AddSignature: %v", err)
	}
	pool, err := b.Pool()
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	a, err := trusted.New(trusted.Params{
		Pool:          pool,
		CSPIdentifier: cspIndex,
		SubclassPermits: []trusted.Permit{
			{ClassIndex: 0, SigIndex: sigIndex},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestTableRoundTrip(t *testing.T) { // A
	t.Parallel()
	pool := NewPool("SourceFile", trusted.AttributeName)
	ta := buildTrusted(t)
	attrs := []Attribute{
		{NameIndex: 1, Length: 2, Raw: []byte{0x00, 0x07}},
		{NameIndex: 2, Trusted: ta},
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, attrs); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	buf.WriteString("tail")

	got, err := NewReader(pool, Options{}).ReadTable(&buf)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attributes, want 2", len(got))
	}
	if got[0].Name != "SourceFile" || !bytes.Equal(got[0].Raw, []byte{0, 7}) {
		t.Fatalf("raw attribute = %+v", got[0])
	}
	if got[1].Name != trusted.AttributeName || got[1].Length != ta.Length() {
		t.Fatalf("trusted header = %+v", got[1])
	}
	decoded, ok := Trusted(got)
	if !ok || !decoded.Equal(ta) {
		t.Fatal("trusted attribute did not round trip")
	}
	if buf.String() != "tail" {
		t.Fatalf("reader consumed past the table: %q left", buf.String())
	}
}

func corruptTable(t *testing.T) (Pool, []byte) { // A
	t.Helper()
	pool := NewPool(trusted.AttributeName, "Deprecated")
	var buf bytes.Buffer
	if err := WriteTable(&buf, []Attribute{
		{NameIndex: 1, Trusted: buildTrusted(t)},
		{NameIndex: 2, Length: 0, Raw: []byte{}},
	}); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	data := buf.Bytes()
	// Grow the declared length of the Trusted attribute by one
	// and insert a byte so the table stays well framed.
	length := uint32(data[4])<<24 | uint32(data[5])<<16 |
		uint32(data[6])<<8 | uint32(data[7])
	length++
	data[4], data[5], data[6], data[7] = byte(length>>24),
		byte(length>>16), byte(length>>8), byte(length)
	end := 2 + headerSize + int(length) - 1
	out := append([]byte{}, data[:end]...)
	out = append(out, 0xEE)
	out = append(out, data[end:]...)
	return pool, out
}

func TestReadFailsOnInvalidTrusted(t *testing.T) { // A
	t.Parallel()
	pool, data := corruptTable(t)
	_, err := NewReader(pool, Options{}).ReadTable(bytes.NewReader(data))
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if !errors.Is(err, trusted.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestReadSkipsInvalidTrusted(t *testing.T) { // A
	t.Parallel()
	pool, data := corruptTable(t)
	got, err := NewReader(pool, Options{SkipInvalid: true}).
		ReadTable(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attributes, want 2", len(got))
	}
	if got[0].Err == nil || got[0].Trusted != nil {
		t.Fatalf("first attribute = %+v, want skipped", got[0])
	}
	if got[1].Name != "Deprecated" {
		t.Fatalf("second attribute = %+v", got[1])
	}
	if _, ok := Trusted(got); ok {
		t.Fatal("no valid Trusted attribute expected")
	}
}

func TestReadUnknownName(t *testing.T) { // A
	t.Parallel()
	data := []byte{0x00, 0x05, 0x00, 0x00, 0x00, 0x00}
	_, err := NewReader(NewPool("A"), Options{}).Read(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected error for unresolvable name")
	}
}

func TestWriteRejectsInconsistentRaw(t *testing.T) { // A
	t.Parallel()
	err := Write(&bytes.Buffer{}, Attribute{NameIndex: 1, Length: 3, Raw: []byte{1}})
	if err == nil {
		t.Fatal("expected error for raw length mismatch")
	}
}

func TestReadRawHugeDeclaredLength(t *testing.T) { // A
	// Not parallel: measures process-wide allocation.
	data := []byte{0x00, 0x01, 0x40, 0x00, 0x00, 0x00, 0x00, 0x03}
	r := NewReader(NewPool("SourceFile"), Options{})

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := r.Read(bytes.NewReader(data))
	runtime.ReadMemStats(&after)

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	const limit = 64 << 20
	if grown := after.TotalAlloc - before.TotalAlloc; grown > limit {
		t.Fatalf("reading an 8-byte input allocated %d bytes", grown)
	}
}

func TestReadRawShortBody(t *testing.T) { // A
	t.Parallel()
	data := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x04, 0xAA, 0xBB}
	_, err := NewReader(NewPool("SourceFile"), Options{}).Read(bytes.NewReader(data))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestPoolRoundTrip(t *testing.T) { // A
	t.Parallel()
	p := NewPool("a", "", "Trusted")
	var buf bytes.Buffer
	if err := WritePool(&buf, p); err != nil {
		t.Fatalf("WritePool: %v", err)
	}
	back, err := ReadPool(&buf)
	if err != nil {
		t.Fatalf("ReadPool: %v", err)
	}
	if len(back) != len(p) || back.Index("Trusted") != 3 {
		t.Fatalf("pool = %q", back)
	}
	if _, err := back.Utf8(4); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := back.Utf8(0); err == nil {
		t.Fatal("expected error for index 0")
	}
}
