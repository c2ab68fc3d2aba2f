// Package model holds the data types shared across the prover service:
// the submitted proof request shape, the persisted proof record, and the
// Groth16 proof encoding.
package model

import "time"

// ProofType identifies which of the three ProofRequest variants a record
// was created from.
type ProofType int

const (
	ProofTypeRegister ProofType = iota
	ProofTypeDsc
	ProofTypeDisclose
)

func (t ProofType) String() string {
	switch t {
	case ProofTypeRegister:
		return "register"
	case ProofTypeDsc:
		return "dsc"
	case ProofTypeDisclose:
		return "disclose"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a ProofRecord. Transitions are
// monotonic: Pending -> WitnessGenerated -> ProofGenerated, or from any
// non-terminal state to Failed. Never reopened.
type Status int

const (
	StatusPending Status = iota
	StatusWitnessGenerated
	StatusProofGenerated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusWitnessGenerated:
		return "witness_generated"
	case StatusProofGenerated:
		return "proof_generated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EndpointType is the disclose-only delivery target for a proof.
type EndpointType string

const (
	EndpointCelo  EndpointType = "celo"
	EndpointHTTPS EndpointType = "https"
)

// Circuit carries the inputs a witness-calculator consumes verbatim.
type Circuit struct {
	Name   string `json:"name"`
	Inputs string `json:"inputs"`
}

// ProofRequest is the tagged variant submitted inside submit_request's
// encrypted payload. Exactly one of the three shapes is populated,
// selected by Type.
type ProofRequest struct {
	OnChain bool      `json:"onchain"`
	Type    ProofType `json:"-"`
	Circuit Circuit   `json:"circuit"`

	// Populated only when Type == ProofTypeDisclose.
	EndpointType EndpointType `json:"endpointType,omitempty"`
	Endpoint     string       `json:"endpoint,omitempty"`
}

// wireProofRequest mirrors the camelCase JSON wire format used on the submit_request wire.
type wireProofRequest struct {
	OnChain      bool         `json:"onchain"`
	Type         string       `json:"type"`
	Circuit      Circuit      `json:"circuit"`
	EndpointType EndpointType `json:"endpointType,omitempty"`
	Endpoint     string       `json:"endpoint,omitempty"`
}

// Proof is the Groth16 proof triple. PiA and PiC carry 3 decimal-string
// field elements each; PiB is a 3x2 matrix. The last element of PiA/PiC and
// the last row of PiB are projective-coordinate normalizers excluded from
// signing (see cryptocore.CanonicalBytes).
type Proof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
}

// ProofRecord is the persisted row tracking a proof request's lifecycle.
type ProofRecord struct {
	RequestID  string
	ProofType  ProofType
	Status     Status
	CircuitName string
	OnChain    bool

	EndpointType *EndpointType
	Endpoint     *string

	CreatedAt           time.Time
	WitnessGeneratedAt  *time.Time
	ProofGeneratedAt    *time.Time

	Proof        *Proof
	PublicInputs []string
	Signature    *string
	FailureReason *string
}
