package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "./trusted-store", cfg.StorePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Ed25519", cfg.CSP)
	assert.False(t, cfg.InMemory)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trustdump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storePath: /var/lib/trusted
inMemory: true
minimumFreeGB: 2
logLevel: debug
noColor: true
skipInvalid: true
interfaces:
  - com/example/Iface
superclass: com/example/Base
csp: ML-DSA-65
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		StorePath:     "/var/lib/trusted",
		InMemory:      true,
		MinimumFreeGB: 2,
		LogLevel:      "debug",
		NoColor:       true,
		SkipInvalid:   true,
		Interfaces:    []string{"com/example/Iface"},
		Superclass:    "com/example/Base",
		CSP:           "ML-DSA-65",
	}, cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4242\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
