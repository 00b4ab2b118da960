package csp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

func TestByNameUnknown(t *testing.T) { // A
	t.Parallel()
	_, err := ByName("no-such-scheme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestEd25519SignVerify(t *testing.T) { // A
	t.Parallel()
	p, err := ByName("Ed25519")
	require.NoError(t, err)
	assert.Equal(t, "Ed25519", p.Name())

	pk, sk, err := p.GenerateKey()
	require.NoError(t, err)

	encoded, err := p.EncodePublicKey(pk)
	require.NoError(t, err)
	assert.Len(t, encoded, 32)

	decoded, err := p.DecodePublicKey(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(pk))

	msg := []byte("com/example/Base")
	sig, err := p.Sign(sk, msg)
	require.NoError(t, err)

	wire, err := p.EncodeSignature(sig)
	require.NoError(t, err)
	back, err := p.DecodeSignature(wire)
	require.NoError(t, err)

	ok, err := p.Verify(decoded, msg, back)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Verify(decoded, []byte("tampered"), back)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeSignatureWrongSize(t *testing.T) { // A
	t.Parallel()
	p, err := ByName("Ed25519")
	require.NoError(t, err)
	_, err = p.DecodeSignature([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodePublicKeyErrorPropagates(t *testing.T) { // A
	t.Parallel()
	p, err := ByName("Ed25519")
	require.NoError(t, err)
	_, err = p.DecodePublicKey([]byte{1})
	assert.Error(t, err)
}

func TestForAttribute(t *testing.T) { // A
	t.Parallel()
	pool, err := trusted.NewSecurePool(
		trusted.Utf8Entry{Value: "Ed25519"},
	)
	require.NoError(t, err)
	a, err := trusted.New(trusted.Params{
		Pool:          pool,
		CSPIdentifier: 1,
	})
	require.NoError(t, err)

	p, err := ForAttribute(a)
	require.NoError(t, err)
	assert.Equal(t, "Ed25519", p.Name())
	assert.Contains(t, Names(), "Ed25519")
}
