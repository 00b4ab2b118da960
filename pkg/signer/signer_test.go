package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/ouroboros-trusted/pkg/csp"
	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

func newSigner(t *testing.T) *Signer { // A
	t.Helper()
	p, err := csp.ByName("Ed25519")
	require.NoError(t, err)
	s, err := Generate(p)
	require.NoError(t, err)
	return s
}

func TestSignedAttributeVerifies(t *testing.T) { // A
	t.Parallel()
	s := newSigner(t)
	b := trusted.NewBuilder()

	cspIndex, err := s.AddCSP(b)
	require.NoError(t, err)
	keyIndex, err := s.AddKey(b)
	require.NoError(t, err)
	permit, err := s.Permit(b, 0, []byte("com/example/Child"))
	require.NoError(t, err)
	domain, err := s.Domain([]byte("domain:payments"))
	require.NoError(t, err)

	pool, err := b.Pool()
	require.NoError(t, err)
	a, err := trusted.New(trusted.Params{
		Pool:            pool,
		CSPIdentifier:   cspIndex,
		AccessFlags:     trusted.FlagSubclassGated,
		SubclassKey:     keyIndex,
		SubclassPermits: []trusted.Permit{permit},
		Domains:         []trusted.Domain{domain},
	})
	require.NoError(t, err)

	data, err := trusted.Marshal(a)
	require.NoError(t, err)
	back, err := trusted.Unmarshal(data)
	require.NoError(t, err)

	p, err := csp.ForAttribute(back)
	require.NoError(t, err)
	rawKey, ok, err := back.SubclassKeyBytes()
	require.NoError(t, err)
	require.True(t, ok)
	pk, err := p.DecodePublicKey(rawKey)
	require.NoError(t, err)

	sig, ok, err := back.PermitSignatureBytes(trusted.SubclassPermit, 0)
	require.NoError(t, err)
	require.True(t, ok)
	valid, err := p.Verify(pk, []byte("com/example/Child"), sig)
	require.NoError(t, err)
	assert.True(t, valid)

	d := back.Domains()[0]
	domainKey, err := p.DecodePublicKey(d.Key())
	require.NoError(t, err)
	valid, err = p.Verify(domainKey, []byte("domain:payments"), d.Signature())
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestNewRejectsNil(t *testing.T) { // A
	t.Parallel()
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
	_, err = Generate(nil)
	assert.Error(t, err)
}
