// Package csp provides the cryptographic service providers named
// by a Trusted attribute. A provider encodes and decodes public
// keys and signatures and performs signing and verification; the
// attribute itself only ever sees the resulting byte blobs.
package csp

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"

	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

// ErrUnknownProvider is returned for a provider name no scheme
// is registered under.
var ErrUnknownProvider = errors.New("csp: unknown provider")

// Provider is a cryptographic service provider.
type Provider interface { // A
	// Name is the text stored in the attribute's secure pool.
	Name() string
	GenerateKey() (sign.PublicKey, sign.PrivateKey, error)
	EncodePublicKey(pk sign.PublicKey) ([]byte, error)
	DecodePublicKey(data []byte) (sign.PublicKey, error)
	EncodeSignature(sig []byte) ([]byte, error)
	DecodeSignature(data []byte) ([]byte, error)
	Sign(sk sign.PrivateKey, message []byte) ([]byte, error)
	Verify(pk sign.PublicKey, message, sig []byte) (bool, error)
}

// schemeProvider adapts a circl signature scheme.
type schemeProvider struct { // A
	scheme sign.Scheme
}

// ByName returns the provider registered under name. Lookup is
// case-insensitive, e.g. "Ed25519" or "ML-DSA-65".
func ByName(name string) (Provider, error) { // A
	scheme := schemes.ByName(name)
	if scheme == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return &schemeProvider{scheme: scheme}, nil
}

// ForAttribute returns the provider named by the attribute's
// CSP identifier.
func ForAttribute(a *trusted.Attribute) (Provider, error) { // A
	name, err := a.CSPName()
	if err != nil {
		return nil, fmt.Errorf("resolve csp identifier: %w", err)
	}
	return ByName(name)
}

// Names lists every available provider name.
func Names() []string { // A
	all := schemes.All()
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name())
	}
	return names
}

func (p *schemeProvider) Name() string { // A
	return p.scheme.Name()
}

func (p *schemeProvider) GenerateKey() ( // A
	sign.PublicKey,
	sign.PrivateKey,
	error,
) {
	return p.scheme.GenerateKey()
}

func (p *schemeProvider) EncodePublicKey( // A
	pk sign.PublicKey,
) ([]byte, error) {
	if pk == nil {
		return nil, errors.New("public key must not be nil")
	}
	if pk.Scheme().Name() != p.scheme.Name() {
		return nil, sign.ErrTypeMismatch
	}
	data, err := pk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if len(data) > trusted.MaxBlobLen {
		return nil, fmt.Errorf(
			"encoded %s key is %d bytes, limit is %d",
			p.scheme.Name(),
			len(data),
			trusted.MaxBlobLen,
		)
	}
	return data, nil
}

func (p *schemeProvider) DecodePublicKey( // A
	data []byte,
) (sign.PublicKey, error) {
	return p.scheme.UnmarshalBinaryPublicKey(data)
}

// EncodeSignature checks the size of a raw signature; the
// schemes' wire form is the raw signature itself.
func (p *schemeProvider) EncodeSignature( // A
	sig []byte,
) ([]byte, error) {
	if err := p.checkSignatureSize(sig); err != nil {
		return nil, err
	}
	return append([]byte(nil), sig...), nil
}

func (p *schemeProvider) DecodeSignature( // A
	data []byte,
) ([]byte, error) {
	if err := p.checkSignatureSize(data); err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

func (p *schemeProvider) checkSignatureSize(sig []byte) error { // A
	if len(sig) != p.scheme.SignatureSize() {
		return fmt.Errorf(
			"%s signature is %d bytes, want %d",
			p.scheme.Name(),
			len(sig),
			p.scheme.SignatureSize(),
		)
	}
	return nil
}

func (p *schemeProvider) Sign( // A
	sk sign.PrivateKey,
	message []byte,
) ([]byte, error) {
	if sk == nil {
		return nil, errors.New("private key must not be nil")
	}
	if sk.Scheme().Name() != p.scheme.Name() {
		return nil, sign.ErrTypeMismatch
	}
	return p.scheme.Sign(sk, message, nil), nil
}

func (p *schemeProvider) Verify( // A
	pk sign.PublicKey,
	message []byte,
	sig []byte,
) (bool, error) {
	if pk == nil {
		return false, errors.New("public key must not be nil")
	}
	if pk.Scheme().Name() != p.scheme.Name() {
		return false, sign.ErrTypeMismatch
	}
	return p.scheme.Verify(pk, message, sig, nil), nil
}
