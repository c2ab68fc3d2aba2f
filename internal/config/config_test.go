package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZkeyPath(t *testing.T) {
	cfg := Default()
	cfg.ZkeyRoot = "/zkeys"
	cfg.CircuitZkeyMap = map[string]string{"c1": "c1_final.zkey"}

	assert.Equal(t, filepath.Join("/zkeys", "c1_final.zkey"), cfg.ZkeyPath("c1"))
	assert.Equal(t, "", cfg.ZkeyPath("unknown"))
}

func TestWitnessCalculatorPath(t *testing.T) {
	cfg := Default()
	cfg.CircuitRoot = "/circuits"
	assert.Equal(t, filepath.Join("/circuits", "c1_cpp", "c1"), cfg.WitnessCalculatorPath("c1"))
}

func TestHasCircuit(t *testing.T) {
	cfg := Default()
	cfg.CircuitZkeyMap = map[string]string{"c1": "c1.zkey"}
	assert.True(t, cfg.HasCircuit("c1"))
	assert.False(t, cfg.HasCircuit("c2"))
}

func TestValidateFailsWhenProverMissing(t *testing.T) {
	cfg := Default()
	dir := t.TempDir()
	cfg.RapidsnarkRoot = filepath.Join(dir, "no-such-root")
	cfg.CircuitZkeyMap = map[string]string{"c1": "c1.zkey"}

	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidatePassesWhenAllPathsExist(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.RapidsnarkRoot = dir
	cfg.ZkeyRoot = dir
	cfg.CircuitRoot = dir
	cfg.CircuitZkeyMap = map[string]string{"c1": "c1.zkey"}

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "package", "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package", "bin", "prover"), []byte("x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c1.zkey"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "c1_cpp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c1_cpp", "c1"), []byte("x"), 0o755))

	assert.NoError(t, cfg.Validate())
}
