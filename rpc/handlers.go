package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zk-passport/tee-prover-server/internal/metrics"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
	"github.com/zk-passport/tee-prover-server/model"
	"github.com/zk-passport/tee-prover-server/session"
)

const sec1PubKeyLen = 65

// handleHello derives a session secret via ephemeral ECDH, requests an
// attestation document binding the client's public key, and inserts the
// session keyed by the client-supplied uuid.
func (s *Server) handleHello(raw json.RawMessage) (*HelloResult, error) {
	outcome := "failure"
	defer func() { metrics.SessionsCreated.WithLabelValues(outcome).Inc() }()

	var params HelloParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindInvalidParams, "malformed hello params", err)
	}

	if len(params.UserPubkey) != sec1PubKeyLen {
		return nil, rpcerr.New(rpcerr.KindInvalidRequest,
			fmt.Sprintf("user_pubkey must be %d bytes, got %d", sec1PubKeyLen, len(params.UserPubkey)))
	}
	if _, err := uuid.Parse(params.UUID); err != nil {
		return nil, rpcerr.New(rpcerr.KindInvalidRequest, "uuid must be a valid UUID")
	}

	myPub, secret, err := s.Crypto.Derive(params.UserPubkey)
	if err != nil {
		return nil, err
	}

	attestation, err := s.Module.Attest(params.UserPubkey, nil, myPub)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindInternal, "attestation failed", err)
	}

	if err := s.Sessions.Insert(params.UUID, secret); err != nil {
		if err == session.ErrDuplicate {
			outcome = "duplicate"
			return nil, rpcerr.New(rpcerr.KindInvalidRequest, "UUID already exists")
		}
		return nil, rpcerr.Wrap(rpcerr.KindInternal, "session insertion failed", err)
	}

	outcome = "success"
	return &HelloResult{UUID: params.UUID, Attestation: attestation}, nil
}

// handleSubmitRequest decrypts the encrypted payload against the session
// secret, validates it against the enabled endpoint kind and the
// configured circuit map, and hands it to the pipeline orchestrator.
func (s *Server) handleSubmitRequest(ctx context.Context, raw json.RawMessage) (string, error) {
	var params SubmitRequestParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", rpcerr.Wrap(rpcerr.KindInvalidParams, "malformed submit_request params", err)
	}
	if _, err := uuid.Parse(params.UUID); err != nil {
		return "", rpcerr.New(rpcerr.KindInvalidRequest, "uuid must be a valid UUID")
	}

	secret, ok := s.Sessions.Get(params.UUID)
	if !ok {
		return "", rpcerr.New(rpcerr.KindInvalidRequest, "no session for uuid")
	}

	plaintext, err := s.Crypto.Decrypt(secret, params.Nonce, params.CipherText, params.AuthTag)
	if err != nil {
		return "", err
	}

	var request model.ProofRequest
	if err := json.Unmarshal(plaintext, &request); err != nil {
		return "", rpcerr.Wrap(rpcerr.KindDecodeFailed, "decrypted payload is not a valid submit_request document", err)
	}
	// onchain is carried twice on the wire (the cleartext RPC param and the
	// encrypted payload's own field); the cleartext param is authoritative.
	request.OnChain = params.OnChain

	if request.Type != s.Config.Endpoint {
		return "", rpcerr.New(rpcerr.KindInvalidRequest,
			fmt.Sprintf("This endpoint only allows %s inputs", s.Config.Endpoint))
	}
	if !s.Config.HasCircuit(request.Circuit.Name) {
		return "", rpcerr.New(rpcerr.KindInvalidRequest,
			fmt.Sprintf("Could not find the given circuit name: %s", request.Circuit.Name))
	}

	if err := s.Orchestrator.Submit(ctx, params.UUID, request); err != nil {
		return "", err
	}

	return params.UUID, nil
}

// handleAttestation is a direct pass-through to the SecureModule adapter.
func (s *Server) handleAttestation(raw json.RawMessage) ([]byte, error) {
	var params AttestationParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, rpcerr.Wrap(rpcerr.KindInvalidParams, "malformed attestation params", err)
		}
	}

	doc, err := s.Module.Attest(params.UserData, params.Nonce, params.PublicKey)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindInternal, "attestation failed", err)
	}
	return doc, nil
}
