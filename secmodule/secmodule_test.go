package secmodule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevModuleRandomFillsBuffer(t *testing.T) {
	m := NewDevModule()
	out := make([]byte, 32)
	err := m.Random(out)
	require.NoError(t, err)

	zero := make([]byte, 32)
	assert.NotEqual(t, zero, out, "software RNG should not return an all-zero buffer")
}

func TestDevModuleAttestReturnsEmptyDocument(t *testing.T) {
	m := NewDevModule()
	doc, err := m.Attest([]byte("user-data"), []byte("nonce"), []byte("pubkey"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestDevModuleClose(t *testing.T) {
	m := NewDevModule()
	assert.NoError(t, m.Close())
}
