package trusted

import "testing"

func TestBuilderIndices(t *testing.T) { // A
	t.Parallel()
	b := NewBuilder()
	csp := mustAdd(t)(b.AddUtf8("Ed25519"))
	again := mustAdd(t)(b.AddUtf8("Ed25519"))
	if csp != 1 || again != 1 {
		t.Fatalf("Utf8 indices = %d, %d; want 1, 1", csp, again)
	}
	class := mustAdd(t)(b.AddClass("com/example/A"))
	if class != 3 {
		t.Fatalf("class index = %d, want 3", class)
	}
	sig := mustAdd(t)(b.AddSignature([]byte{1}))
	if sig != 4 || b.Len() != 4 {
		t.Fatalf("sig = %d, len = %d", sig, b.Len())
	}

	pool, err := b.Pool()
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if name, err := pool.ClassName(class); err != nil ||
		name != "com/example/A" {
		t.Fatalf("ClassName = (%q, %v)", name, err)
	}

	mustAdd(t)(b.AddPublicKey([]byte{2}))
	if pool.Len() != 4 {
		t.Fatal("frozen pool grew with the builder")
	}
	if _, err := b.AddEntry(nil); err == nil {
		t.Fatal("expected error for nil entry")
	}
}

func TestBuilderFull(t *testing.T) { // A
	t.Parallel()
	b := NewBuilder()
	for i := 0; i < MaxPoolEntries; i++ {
		if _, err := b.AddEntry(IntegerEntry{Value: int32(i)}); err != nil {
			t.Fatalf("AddEntry %d: %v", i, err)
		}
	}
	if _, err := b.AddEntry(IntegerEntry{}); err == nil {
		t.Fatal("expected error once the pool is full")
	}
}
