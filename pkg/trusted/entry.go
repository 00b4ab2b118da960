package trusted

import (
	"bytes"
	"fmt"
	"math"
)

// Tag identifies the payload shape of a secure pool entry.
type Tag uint8 // A

// Pass-through tags share their payload layout with the
// ordinary constant pool. TagPublicKey and TagSignature only
// appear in the secure pool.
const ( // A
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagPublicKey          Tag = 32
	TagSignature          Tag = 33
)

// String returns the constant kind name.
func (t Tag) String() string { // A
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagPublicKey:
		return "PublicKey"
	case TagSignature:
		return "Signature"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Entry is a single secure pool constant. Entries are values;
// none of them can be changed once created.
type Entry interface { // A
	Tag() Tag
}

// Utf8Entry is a text constant.
type Utf8Entry struct { // A
	Value string
}

func (Utf8Entry) Tag() Tag { return TagUtf8 } // A

// IntegerEntry is a 32-bit integer constant.
type IntegerEntry struct { // A
	Value int32
}

func (IntegerEntry) Tag() Tag { return TagInteger } // A

// FloatEntry keeps the raw IEEE 754 bits so that NaN payloads
// survive a round trip.
type FloatEntry struct { // A
	Bits uint32
}

func (FloatEntry) Tag() Tag { return TagFloat } // A

// Float returns the constant as a float32.
func (e FloatEntry) Float() float32 { // A
	return math.Float32frombits(e.Bits)
}

// ClassEntry names a class through a Utf8 entry.
type ClassEntry struct { // A
	NameIndex uint16
}

func (ClassEntry) Tag() Tag { return TagClass } // A

// StringEntry is a string literal backed by a Utf8 entry.
type StringEntry struct { // A
	StringIndex uint16
}

func (StringEntry) Tag() Tag { return TagString } // A

// RefEntry is a field, method or interface method reference.
// Kind selects which of the three it is.
type RefEntry struct { // A
	Kind             Tag
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (e RefEntry) Tag() Tag { return e.Kind } // A

// NameAndTypeEntry pairs a member name with its descriptor.
type NameAndTypeEntry struct { // A
	NameIndex       uint16
	DescriptorIndex uint16
}

func (NameAndTypeEntry) Tag() Tag { return TagNameAndType } // A

// KeyEntry holds an encoded public key. The encoding belongs to
// the cryptographic service provider named by the attribute.
type KeyEntry struct { // A
	data []byte
}

// NewKeyEntry copies data into a new KeyEntry.
func NewKeyEntry(data []byte) (KeyEntry, error) { // A
	if len(data) > MaxBlobLen {
		return KeyEntry{}, fmt.Errorf(
			"public key is %d bytes, limit is %d",
			len(data),
			MaxBlobLen,
		)
	}
	return KeyEntry{data: bytes.Clone(data)}, nil
}

func (KeyEntry) Tag() Tag { return TagPublicKey } // A

// Bytes returns a copy of the encoded key.
func (e KeyEntry) Bytes() []byte { // A
	return cloneBlob(e.data)
}

// Len returns the encoded key length.
func (e KeyEntry) Len() int { return len(e.data) } // A

// SignatureEntry holds an encoded digital signature.
type SignatureEntry struct { // A
	data []byte
}

// NewSignatureEntry copies data into a new SignatureEntry.
func NewSignatureEntry(data []byte) (SignatureEntry, error) { // A
	if len(data) > MaxBlobLen {
		return SignatureEntry{}, fmt.Errorf(
			"signature is %d bytes, limit is %d",
			len(data),
			MaxBlobLen,
		)
	}
	return SignatureEntry{data: bytes.Clone(data)}, nil
}

func (SignatureEntry) Tag() Tag { return TagSignature } // A

// Bytes returns a copy of the encoded signature.
func (e SignatureEntry) Bytes() []byte { // A
	return cloneBlob(e.data)
}

// Len returns the encoded signature length.
func (e SignatureEntry) Len() int { return len(e.data) } // A

// cloneBlob copies b, returning an empty non-nil slice for
// empty input.
func cloneBlob(b []byte) []byte { // A
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func isRefKind(t Tag) bool { // A
	return t == TagFieldref ||
		t == TagMethodref ||
		t == TagInterfaceMethodref
}

// entriesEqual compares two entries by tag and payload.
func entriesEqual(a, b Entry) bool { // A
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Tag() != b.Tag() {
		return false
	}
	switch av := a.(type) {
	case KeyEntry:
		return bytes.Equal(av.data, b.(KeyEntry).data)
	case SignatureEntry:
		return bytes.Equal(av.data, b.(SignatureEntry).data)
	default:
		return a == b
	}
}
