package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zk-passport/tee-prover-server/model"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestFileStageWritesInput(t *testing.T) {
	chdirTemp(t)

	job := FileJob{
		ID: "req-1",
		Request: model.ProofRequest{
			OnChain: true,
			Type:    model.ProofTypeRegister,
			Circuit: model.Circuit{Name: "register", Inputs: `{"a":1}`},
		},
	}

	witnessJob, err := FileStage{}.Run(job)
	require.NoError(t, err)
	assert.Equal(t, "req-1", witnessJob.ID)
	assert.Equal(t, "register", witnessJob.CircuitName)
	assert.True(t, witnessJob.OnChain)

	data, err := os.ReadFile(filepath.Join("tmp_req-1", "input.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}
