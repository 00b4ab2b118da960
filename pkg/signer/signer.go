// Package signer is the packaging-tool side of the Trusted
// attribute: it signs capability payloads with a CSP and places
// the resulting keys, signatures, permits and domains into an
// attribute under construction.
package signer

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign"

	"github.com/i5heu/ouroboros-trusted/pkg/csp"
	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

// Signer holds one key pair of a CSP.
type Signer struct { // A
	provider   csp.Provider
	publicKey  sign.PublicKey
	privateKey sign.PrivateKey
}

// New returns a Signer for an existing key pair.
func New( // A
	provider csp.Provider,
	pk sign.PublicKey,
	sk sign.PrivateKey,
) (*Signer, error) {
	if provider == nil {
		return nil, errors.New("provider must not be nil")
	}
	if pk == nil || sk == nil {
		return nil, errors.New("key pair must not be nil")
	}
	return &Signer{
		provider:   provider,
		publicKey:  pk,
		privateKey: sk,
	}, nil
}

// Generate returns a Signer with a fresh key pair.
func Generate(provider csp.Provider) (*Signer, error) { // A
	if provider == nil {
		return nil, errors.New("provider must not be nil")
	}
	pk, sk, err := provider.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate %s key: %w", provider.Name(), err)
	}
	return New(provider, pk, sk)
}

// Provider returns the CSP the signer uses.
func (s *Signer) Provider() csp.Provider { return s.provider } // A

// PublicKey returns the CSP encoding of the public key.
func (s *Signer) PublicKey() ([]byte, error) { // A
	return s.provider.EncodePublicKey(s.publicKey)
}

// SignBytes signs message and returns the CSP encoding of the
// signature.
func (s *Signer) SignBytes(message []byte) ([]byte, error) { // A
	sig, err := s.provider.Sign(s.privateKey, message)
	if err != nil {
		return nil, err
	}
	return s.provider.EncodeSignature(sig)
}

// AddKey stores the public key in the builder's pool.
func (s *Signer) AddKey(b *trusted.Builder) (uint16, error) { // A
	key, err := s.PublicKey()
	if err != nil {
		return 0, err
	}
	return b.AddPublicKey(key)
}

// AddCSP stores the provider name in the builder's pool.
func (s *Signer) AddCSP(b *trusted.Builder) (uint16, error) { // A
	return b.AddUtf8(s.provider.Name())
}

// Permit signs message, stores the signature in the builder's
// pool and returns a permit pairing it with classIndex.
func (s *Signer) Permit( // A
	b *trusted.Builder,
	classIndex uint16,
	message []byte,
) (trusted.Permit, error) {
	sig, err := s.SignBytes(message)
	if err != nil {
		return trusted.Permit{}, fmt.Errorf("sign permit: %w", err)
	}
	sigIndex, err := b.AddSignature(sig)
	if err != nil {
		return trusted.Permit{}, err
	}
	return trusted.Permit{ClassIndex: classIndex, SigIndex: sigIndex}, nil
}

// Domain signs message and returns a domain credential carrying
// the encoded public key and the signature.
func (s *Signer) Domain(message []byte) (trusted.Domain, error) { // A
	key, err := s.PublicKey()
	if err != nil {
		return trusted.Domain{}, err
	}
	sig, err := s.SignBytes(message)
	if err != nil {
		return trusted.Domain{}, fmt.Errorf("sign domain: %w", err)
	}
	return trusted.NewDomain(key, sig)
}
