package trusted

import (
	"bytes"
	"fmt"
	"io"
)

// Domain is a trust-domain membership credential: an encoded
// public key and a signature, both opaque to this package.
type Domain struct { // A
	key       []byte
	signature []byte
}

// NewDomain copies key and signature into a Domain.
func NewDomain(key, signature []byte) (Domain, error) { // A
	if len(key) > MaxBlobLen {
		return Domain{}, fmt.Errorf(
			"domain key is %d bytes, limit is %d",
			len(key),
			MaxBlobLen,
		)
	}
	if len(signature) > MaxBlobLen {
		return Domain{}, fmt.Errorf(
			"domain signature is %d bytes, limit is %d",
			len(signature),
			MaxBlobLen,
		)
	}
	return Domain{
		key:       cloneBlob(key),
		signature: cloneBlob(signature),
	}, nil
}

// Key returns a copy of the encoded domain key.
func (d Domain) Key() []byte { // A
	return cloneBlob(d.key)
}

// Signature returns a copy of the encoded domain signature.
func (d Domain) Signature() []byte { // A
	return cloneBlob(d.signature)
}

// Equal reports whether both domains carry the same bytes.
func (d Domain) Equal(other Domain) bool { // A
	return bytes.Equal(d.key, other.key) &&
		bytes.Equal(d.signature, other.signature)
}

func (d Domain) encodedLen() int { // A
	return 2 + len(d.key) + 2 + len(d.signature)
}

// ReadDomain decodes a length-prefixed key followed by a
// length-prefixed signature.
func ReadDomain(r io.Reader) (Domain, error) { // A
	key, err := readBlob(r)
	if err != nil {
		return Domain{}, fmt.Errorf("read domain key: %w", err)
	}
	sig, err := readBlob(r)
	if err != nil {
		return Domain{}, fmt.Errorf(
			"read domain signature: %w",
			err,
		)
	}
	return Domain{key: key, signature: sig}, nil
}

// WriteDomain encodes d in the layout ReadDomain reads.
func WriteDomain(w io.Writer, d Domain) error { // A
	if err := writeBlob(w, d.key); err != nil {
		return fmt.Errorf("write domain key: %w", err)
	}
	if err := writeBlob(w, d.signature); err != nil {
		return fmt.Errorf("write domain signature: %w", err)
	}
	return nil
}

// copyDomains returns a new slice. The byte slices inside each
// Domain are shared; they are never written after construction.
func copyDomains(domains []Domain) []Domain { // A
	if domains == nil {
		return nil
	}
	out := make([]Domain, len(domains))
	copy(out, domains)
	return out
}
