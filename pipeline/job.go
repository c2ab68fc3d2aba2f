// Package pipeline implements the three-stage
// asynchronous proof pipeline (FileStage -> WitnessStage -> ProofStage)
// behind bounded queues, with per-request failure containment and
// resource cleanup.
package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/zk-passport/tee-prover-server/model"
)

// FileJob is the unit of work handed from submit_request into Q_file.
type FileJob struct {
	ID      string
	Request model.ProofRequest
}

// WitnessJob is the unit of work handed from FileStage into Q_witness.
type WitnessJob struct {
	ID          string
	CircuitName string
	OnChain     bool
}

// ProofJob is the unit of work handed from WitnessStage into Q_proof.
type ProofJob struct {
	ID       string
	ZkeyPath string
	OnChain  bool
}

// workingDir returns the deterministic per-request directory path:
// "./tmp_<uuid>/".
func workingDir(id string) string {
	return filepath.Join(".", fmt.Sprintf("tmp_%s", id))
}

func inputPath(id string) string        { return filepath.Join(workingDir(id), "input.json") }
func witnessOutputPath(id string) string { return filepath.Join(workingDir(id), "output.wtns") }
func proofOutputPath(id string) string   { return filepath.Join(workingDir(id), "proof.json") }
func publicInputsPath(id string) string  { return filepath.Join(workingDir(id), "public_inputs.json") }
