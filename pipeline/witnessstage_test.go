package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
)

func writeFakeWitnessCalculator(t *testing.T, circuitRoot, circuitName string, succeed bool) {
	t.Helper()
	dir := filepath.Join(circuitRoot, circuitName+"_cpp")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	script := "#!/bin/sh\ntouch \"$2\"\n"
	if !succeed {
		script = "#!/bin/sh\necho boom 1>&2\nexit 1\n"
	}
	path := filepath.Join(dir, circuitName)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

func TestWitnessStageSuccess(t *testing.T) {
	chdirTemp(t)

	circuitRoot := t.TempDir()
	writeFakeWitnessCalculator(t, circuitRoot, "register", true)

	cfg := config.Default()
	cfg.CircuitRoot = circuitRoot
	cfg.CircuitZkeyMap = map[string]string{"register": "register.zkey"}

	require.NoError(t, os.MkdirAll(workingDir("req-1"), 0o700))

	stage := WitnessStage{Config: cfg}
	proofJob, err := stage.Run(WitnessJob{ID: "req-1", CircuitName: "register", OnChain: true})
	require.NoError(t, err)
	assert.Equal(t, "req-1", proofJob.ID)
	assert.Equal(t, filepath.Join(cfg.ZkeyRoot, "register.zkey"), proofJob.ZkeyPath)

	_, err = os.Stat(witnessOutputPath("req-1"))
	assert.NoError(t, err)
}

func TestWitnessStageMissingExecutable(t *testing.T) {
	chdirTemp(t)

	cfg := config.Default()
	cfg.CircuitRoot = t.TempDir()

	require.NoError(t, os.MkdirAll(workingDir("req-2"), 0o700))

	stage := WitnessStage{Config: cfg}
	_, err := stage.Run(WitnessJob{ID: "req-2", CircuitName: "register"})
	require.Error(t, err)

	var rpcErr *rpcerr.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpcerr.KindCircuitNotFound, rpcErr.Kind)
}

func TestWitnessStageExecutionFailure(t *testing.T) {
	chdirTemp(t)

	circuitRoot := t.TempDir()
	writeFakeWitnessCalculator(t, circuitRoot, "register", false)

	cfg := config.Default()
	cfg.CircuitRoot = circuitRoot
	cfg.CircuitZkeyMap = map[string]string{"register": "register.zkey"}

	require.NoError(t, os.MkdirAll(workingDir("req-3"), 0o700))

	stage := WitnessStage{Config: cfg}
	_, err := stage.Run(WitnessJob{ID: "req-3", CircuitName: "register"})
	require.Error(t, err)

	var rpcErr *rpcerr.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpcerr.KindExecutionFailed, rpcErr.Kind)
}
