package rpc

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zk-passport/tee-prover-server/cryptocore"
	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/model"
	"github.com/zk-passport/tee-prover-server/session"
)

type fakeModule struct {
	failAttest bool
}

func (m *fakeModule) Random(out []byte) error { _, err := rand.Read(out); return err }

func (m *fakeModule) Attest(userData, nonce, publicKey []byte) ([]byte, error) {
	if m.failAttest {
		return nil, errors.New("attest failed")
	}
	return []byte("attestation-doc"), nil
}

func (m *fakeModule) Close() error { return nil }

func newTestServer() (*Server, *fakeModule) {
	mod := &fakeModule{}
	cfg := config.Default()
	cfg.Endpoint = model.ProofTypeDisclose
	cfg.CircuitZkeyMap = map[string]string{"c1": "c1.zkey"}

	return &Server{
		Sessions: session.NewMutexStore(),
		Crypto:   cryptocore.New(rand.Reader),
		Module:   mod,
		Config:   cfg,
	}, mod
}

func peerPub65(t *testing.T) []byte {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv.PublicKey().Bytes()
}

func doRequest(t *testing.T, s *Server, method string, params interface{}) Response {
	t.Helper()
	paramsJSON, err := json.Marshal(params)
	require.NoError(t, err)

	req := Request{JSONRPC: "2.0", Method: method, Params: paramsJSON, ID: json.RawMessage(`1`)}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httpReq)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHelloSuccess(t *testing.T) {
	s, _ := newTestServer()
	id := uuid.NewString()

	resp := doRequest(t, s, qualify("hello"), HelloParams{UserPubkey: peerPub65(t), UUID: id})
	require.Nil(t, resp.Error)

	var result HelloResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, id, result.UUID)
	assert.Equal(t, 1, s.Sessions.Len())
}

func TestHelloRejectsShortKey(t *testing.T) {
	s, _ := newTestServer()

	resp := doRequest(t, s, qualify("hello"), HelloParams{UserPubkey: []byte{1, 2, 3}, UUID: uuid.NewString()})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 0, s.Sessions.Len())
}

func TestHelloRejectsMalformedUUID(t *testing.T) {
	s, _ := newTestServer()

	resp := doRequest(t, s, qualify("hello"), HelloParams{UserPubkey: peerPub65(t), UUID: "not-a-uuid"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 0, s.Sessions.Len())
}

func TestHelloRejectsDuplicateUUID(t *testing.T) {
	s, _ := newTestServer()
	id := uuid.NewString()

	first := doRequest(t, s, qualify("hello"), HelloParams{UserPubkey: peerPub65(t), UUID: id})
	require.Nil(t, first.Error)

	second := doRequest(t, s, qualify("hello"), HelloParams{UserPubkey: peerPub65(t), UUID: id})
	require.NotNil(t, second.Error)
	assert.Contains(t, second.Error.Message, "already exists")
}

func TestAttestationPassthrough(t *testing.T) {
	s, _ := newTestServer()

	resp := doRequest(t, s, qualify("attestation"), AttestationParams{})
	require.Nil(t, resp.Error)

	var doc []byte
	require.NoError(t, json.Unmarshal(resp.Result, &doc))
	assert.Equal(t, []byte("attestation-doc"), doc)
}

func TestSubmitRequestRejectsUnknownSession(t *testing.T) {
	s, _ := newTestServer()

	resp := doRequest(t, s, qualify("submit_request"), SubmitRequestParams{UUID: uuid.NewString()})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "no session")
}

func TestSubmitRequestRejectsMalformedUUID(t *testing.T) {
	s, _ := newTestServer()

	resp := doRequest(t, s, qualify("submit_request"), SubmitRequestParams{UUID: "not-a-uuid"})
	require.NotNil(t, resp.Error)
}

func TestUnknownMethod(t *testing.T) {
	s, _ := newTestServer()

	resp := doRequest(t, s, "openpassport_bogus", struct{}{})
	require.NotNil(t, resp.Error)
}
