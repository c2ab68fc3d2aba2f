// Package rpc implements the JSON-RPC 2.0 surface: namespace "openpassport",
// methods hello/submit_request/attestation, dispatched by qualified method
// name to a small handler table.
package rpc

import "encoding/json"

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result/Error
// is populated.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// ErrorObject is the JSON-RPC 2.0 error shape.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const namespace = "openpassport"

func qualify(method string) string {
	return namespace + "_" + method
}

// HelloParams is hello's parameter shape.
type HelloParams struct {
	UserPubkey []byte `json:"user_pubkey"`
	UUID       string `json:"uuid"`
}

// HelloResult is hello's successful response shape.
type HelloResult struct {
	UUID        string `json:"uuid"`
	Attestation []byte `json:"attestation"`
}

// SubmitRequestParams is submit_request's parameter shape.
type SubmitRequestParams struct {
	UUID       string `json:"uuid"`
	Nonce      []byte `json:"nonce"`
	CipherText []byte `json:"cipher_text"`
	AuthTag    []byte `json:"auth_tag"`
	OnChain    bool   `json:"onchain"`
}

// AttestationParams is attestation's parameter shape; every field is
// optional.
type AttestationParams struct {
	UserData  []byte `json:"user_data,omitempty"`
	Nonce     []byte `json:"nonce,omitempty"`
	PublicKey []byte `json:"public_key,omitempty"`
}
