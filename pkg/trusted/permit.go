package trusted

import (
	"fmt"
	"io"
)

// permitSize is the encoded size of a Permit.
const permitSize = 4

// Permit grants a capability to the class referenced by
// ClassIndex, provided the caller can present the signature
// stored at SigIndex in the secure pool.
type Permit struct { // A
	ClassIndex uint16
	SigIndex   uint16
}

// PermitKind selects one of the three permit arrays of an
// attribute.
type PermitKind int // A

const ( // A
	// SubclassPermit allows subclassing a gated class.
	SubclassPermit PermitKind = iota
	// ResourceAccessPermit allows access to class-private
	// fields and methods.
	ResourceAccessPermit
	// RefResourceAccessPermit allows access to class-private
	// members of classes this class refers to.
	RefResourceAccessPermit
)

const permitKinds = 3

// String returns a short label for the permit array.
func (k PermitKind) String() string { // A
	switch k {
	case SubclassPermit:
		return "subclass"
	case ResourceAccessPermit:
		return "class-resource-access"
	case RefResourceAccessPermit:
		return "ref-class-resource-access"
	default:
		return fmt.Sprintf("PermitKind(%d)", int(k))
	}
}

func (k PermitKind) valid() bool { // A
	return k >= 0 && int(k) < permitKinds
}

// ReadPermit decodes two consecutive big-endian 16-bit fields.
func ReadPermit(r io.Reader) (Permit, error) { // A
	classIndex, sigIndex, err := readIndexPair(r)
	if err != nil {
		return Permit{}, err
	}
	return Permit{ClassIndex: classIndex, SigIndex: sigIndex}, nil
}

// WritePermit encodes p without padding.
func WritePermit(w io.Writer, p Permit) error { // A
	return writeIndexPair(w, p.ClassIndex, p.SigIndex)
}

// FindClassForSignature scans permits in order and returns the
// class index of the first permit carrying sigIndex. Later
// permits with the same signature index are never reported.
func FindClassForSignature( // A
	permits []Permit,
	sigIndex uint16,
) (uint16, bool) {
	for _, p := range permits {
		if p.SigIndex == sigIndex {
			return p.ClassIndex, true
		}
	}
	return 0, false
}

// FindSignatureForClass scans permits in order and returns the
// signature index of the first permit naming classIndex.
func FindSignatureForClass( // A
	permits []Permit,
	classIndex uint16,
) (uint16, bool) {
	for _, p := range permits {
		if p.ClassIndex == classIndex {
			return p.SigIndex, true
		}
	}
	return 0, false
}

func copyPermits(permits []Permit) []Permit { // A
	if permits == nil {
		return nil
	}
	out := make([]Permit, len(permits))
	copy(out, permits)
	return out
}

func readPermits(r io.Reader, n uint16) ([]Permit, error) { // A
	permits := make([]Permit, 0, n)
	for i := 0; i < int(n); i++ {
		p, err := ReadPermit(r)
		if err != nil {
			return nil, fmt.Errorf("read permit %d: %w", i, err)
		}
		permits = append(permits, p)
	}
	return permits, nil
}

func writePermits(w io.Writer, permits []Permit) error { // A
	for i, p := range permits {
		if err := WritePermit(w, p); err != nil {
			return fmt.Errorf("write permit %d: %w", i, err)
		}
	}
	return nil
}
