package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func writeKey(t *testing.T, block *pem.Block) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestCheckPrivateKey(t *testing.T) {
	t.Parallel()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	plain, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	assert.NoError(t, CheckPrivateKey(writeKey(t, plain)))

	protected, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte("hunter2"))
	require.NoError(t, err)
	assert.NoError(t, CheckPrivateKey(writeKey(t, protected)))
}

func TestCheckPrivateKey_Invalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "not-a-key")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	err := CheckPrivateKey(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse private key")

	err = CheckPrivateKey(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read private key")
}

func TestExpandHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/.ssh/id_rsa")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh/id_rsa"), got)

	got, err = expandHome("/abs/key")
	require.NoError(t, err)
	assert.Equal(t, "/abs/key", got)
}
