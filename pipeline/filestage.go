package pipeline

import (
	"os"

	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
)

// FileStage materializes the per-request working directory and writes
// input.json with the bytes of circuit.inputs.
type FileStage struct{}

// Run creates the working directory and input file for job, returning the
// WitnessJob to hand to the next stage.
func (FileStage) Run(job FileJob) (WitnessJob, error) {
	dir := workingDir(job.ID)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return WitnessJob{}, rpcerr.Wrap(rpcerr.KindIoError, "failed to create working directory", err)
	}

	if err := os.WriteFile(inputPath(job.ID), []byte(job.Request.Circuit.Inputs), 0o600); err != nil {
		return WitnessJob{}, rpcerr.Wrap(rpcerr.KindIoError, "failed to write input.json", err)
	}

	return WitnessJob{
		ID:          job.ID,
		CircuitName: job.Request.Circuit.Name,
		OnChain:     job.Request.OnChain,
	}, nil
}
