package pipeline

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
)

// ProofStage invokes the Groth16 prover binary.
type ProofStage struct {
	Config *config.Config
}

// Run ensures output.wtns exists, then invokes the rapidsnark prover with
// "<zkey_path> output.wtns proof.json public_inputs.json" inside the
// per-request working directory.
func (s ProofStage) Run(job ProofJob) error {
	dir := workingDir(job.ID)

	if _, err := os.Stat(witnessOutputPath(job.ID)); err != nil {
		return rpcerr.Wrap(rpcerr.KindWitnessMissing, "output.wtns not found", err)
	}

	cmd := exec.Command(s.Config.ProverPath(), job.ZkeyPath, "output.wtns", "proof.json", "public_inputs.json")
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return rpcerr.Wrap(rpcerr.KindExecutionFailed, stderr.String(), err)
	}
	if stderr.Len() > 0 {
		return rpcerr.New(rpcerr.KindExecutionFailed, stderr.String())
	}

	return nil
}
