package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zk-passport/tee-prover-server/model"
)

// Create inserts a row with status=Pending, created_at=now.
// endpointType/endpoint are only written for Disclose requests.
func (g *Gateway) Create(ctx context.Context, id string, proofType model.ProofType, circuitName string, onChain bool, endpointType *model.EndpointType, endpoint *string) error {
	const query = `
		INSERT INTO proofs (request_id, proof_type, status, circuit_name, onchain, endpoint_type, endpoint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var endpointTypeText *string
	if endpointType != nil {
		s := string(*endpointType)
		endpointTypeText = &s
	}

	_, err := g.pool.Exec(ctx, query,
		id, int(proofType), int(model.StatusPending), circuitName, onChain, endpointTypeText, endpoint, time.Now().UTC(),
	)
	if err != nil {
		return wrapDBErr("create proof record", err)
	}
	return nil
}

// MarkWitnessGenerated sets status=WitnessGenerated, witness_generated_at=now.
func (g *Gateway) MarkWitnessGenerated(ctx context.Context, id string) error {
	const query = `
		UPDATE proofs SET status = $1, witness_generated_at = $2 WHERE request_id = $3
	`
	_, err := g.pool.Exec(ctx, query, int(model.StatusWitnessGenerated), time.Now().UTC(), id)
	if err != nil {
		return wrapDBErr("mark witness generated", err)
	}
	return nil
}

// UpdateWithProof sets proof, public_inputs, signature, status=ProofGenerated,
// proof_generated_at=now.
func (g *Gateway) UpdateWithProof(ctx context.Context, id string, proof model.Proof, publicInputs []string, signature string) error {
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return wrapDBErr("marshal proof", err)
	}

	const query = `
		UPDATE proofs
		SET proof = $1, public_inputs = $2, signature = $3, status = $4, proof_generated_at = $5
		WHERE request_id = $6
	`
	_, err = g.pool.Exec(ctx, query,
		proofJSON, publicInputs, signature, int(model.StatusProofGenerated), time.Now().UTC(), id,
	)
	if err != nil {
		return wrapDBErr("update with proof", err)
	}
	return nil
}

// Fail sets status=Failed, reason=<message>. Idempotent with respect to
// Failed: calling it twice for the same id is harmless.
func (g *Gateway) Fail(ctx context.Context, id string, reason string) error {
	const query = `
		UPDATE proofs SET status = $1, reason = $2 WHERE request_id = $3
	`
	_, err := g.pool.Exec(ctx, query, int(model.StatusFailed), reason, id)
	if err != nil {
		return wrapDBErr("mark failed", err)
	}
	return nil
}

// Get retrieves a proof record by id, used by tests and operator tooling
// (not by the hot path, which only writes).
func (g *Gateway) Get(ctx context.Context, id string) (*model.ProofRecord, error) {
	const query = `
		SELECT request_id, proof_type, status, circuit_name, onchain, endpoint_type, endpoint,
		       created_at, witness_generated_at, proof_generated_at, proof, public_inputs, signature, reason
		FROM proofs WHERE request_id = $1
	`

	var (
		rec                                     model.ProofRecord
		proofType, status                       int
		endpointType, endpoint, signature, reason *string
		proofJSON                               []byte
		publicInputs                            []string
	)

	row := g.pool.QueryRow(ctx, query, id)
	err := row.Scan(
		&rec.RequestID, &proofType, &status, &rec.CircuitName, &rec.OnChain,
		&endpointType, &endpoint,
		&rec.CreatedAt, &rec.WitnessGeneratedAt, &rec.ProofGeneratedAt,
		&proofJSON, &publicInputs, &signature, &reason,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErr("get proof record", err)
	}

	rec.ProofType = model.ProofType(proofType)
	rec.Status = model.Status(status)
	rec.Signature = signature
	rec.FailureReason = reason
	rec.PublicInputs = publicInputs

	if endpointType != nil {
		et := model.EndpointType(*endpointType)
		rec.EndpointType = &et
	}
	rec.Endpoint = endpoint

	if len(proofJSON) > 0 {
		var p model.Proof
		if err := json.Unmarshal(proofJSON, &p); err != nil {
			return nil, wrapDBErr("unmarshal proof", err)
		}
		rec.Proof = &p
	}

	return &rec, nil
}
