package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zk-passport/tee-prover-server/cryptocore"
	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/internal/logger"
	"github.com/zk-passport/tee-prover-server/internal/metrics"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
	"github.com/zk-passport/tee-prover-server/pipeline"
	"github.com/zk-passport/tee-prover-server/secmodule"
	"github.com/zk-passport/tee-prover-server/session"
)

// Server dispatches the three openpassport methods over a single HTTP
// endpoint, following JSON-RPC 2.0 request/response shaping.
type Server struct {
	Sessions     session.Store
	Crypto       *cryptocore.Core
	Module       secmodule.Module
	Orchestrator *pipeline.Orchestrator
	Config       *config.Config
}

// Handler returns an http.Handler that accepts POSTed JSON-RPC requests.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, errorResponse(nil, rpcerr.KindInvalidRequest.JSONRPCCode(), "malformed JSON-RPC envelope"))
			return
		}

		resp := s.dispatch(r, req)
		writeJSON(w, resp)
	})
}

func (s *Server) dispatch(r *http.Request, req Request) Response {
	start := time.Now()
	method := req.Method
	outcome := "success"
	defer func() {
		metrics.RPCRequests.WithLabelValues(method, outcome).Inc()
		metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	var result interface{}
	var err error

	switch req.Method {
	case qualify("hello"):
		result, err = s.handleHello(req.Params)
	case qualify("submit_request"):
		result, err = s.handleSubmitRequest(r.Context(), req.Params)
	case qualify("attestation"):
		result, err = s.handleAttestation(req.Params)
	default:
		err = rpcerr.New(rpcerr.KindInvalidRequest, "unknown method "+req.Method)
	}

	if err != nil {
		outcome = "error"
		logger.Warn("rpc call failed", logger.String("method", req.Method), logger.Error(err))
		return errorResponseFor(req.ID, err)
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		outcome = "error"
		return errorResponse(req.ID, rpcerr.KindInternal.JSONRPCCode(), "failed to marshal response")
	}
	return Response{JSONRPC: "2.0", Result: payload, ID: req.ID}
}

func errorResponseFor(id json.RawMessage, err error) Response {
	if rpcErr, ok := err.(*rpcerr.Error); ok {
		return errorResponse(id, rpcErr.Kind.JSONRPCCode(), rpcErr.Message)
	}
	return errorResponse(id, rpcerr.KindInternal.JSONRPCCode(), err.Error())
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error:   &ErrorObject{Code: code, Message: message},
		ID:      id,
	}
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
