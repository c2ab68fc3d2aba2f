package pipeline

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
)

// WitnessStage invokes the per-circuit witness-calculator subprocess.
type WitnessStage struct {
	Config *config.Config
}

// Run locates <circuit_root>/<circuit_name>_cpp/<circuit_name>, invokes it
// with "input.json output.wtns" inside the per-request working directory,
// and returns the ProofJob to hand to the next stage.
func (s WitnessStage) Run(job WitnessJob) (ProofJob, error) {
	exePath := s.Config.WitnessCalculatorPath(job.CircuitName)
	if _, err := os.Stat(exePath); err != nil {
		return ProofJob{}, rpcerr.Wrap(rpcerr.KindCircuitNotFound,
			"witness calculator executable not found", err)
	}

	dir := workingDir(job.ID)
	cmd := exec.Command(exePath, "input.json", "output.wtns")
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ProofJob{}, rpcerr.Wrap(rpcerr.KindExecutionFailed, stderr.String(), err)
	}
	if stderr.Len() > 0 {
		return ProofJob{}, rpcerr.New(rpcerr.KindExecutionFailed, stderr.String())
	}

	zkeyPath := s.Config.ZkeyPath(job.CircuitName)
	return ProofJob{ID: job.ID, ZkeyPath: zkeyPath, OnChain: job.OnChain}, nil
}
