package model

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders a ProofRequest in its camelCase wire format:
// {"onchain", "type", "circuit", ["endpointType","endpoint"]}.
func (r ProofRequest) MarshalJSON() ([]byte, error) {
	w := wireProofRequest{
		OnChain: r.OnChain,
		Type:    r.Type.String(),
		Circuit: r.Circuit,
	}
	if r.Type == ProofTypeDisclose {
		w.EndpointType = r.EndpointType
		w.Endpoint = r.Endpoint
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the SubmitRequest wire document, validating that
// endpointType/endpoint are present if and only if type == "disclose".
func (r *ProofRequest) UnmarshalJSON(data []byte) error {
	var w wireProofRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var t ProofType
	switch w.Type {
	case "register":
		t = ProofTypeRegister
	case "dsc":
		t = ProofTypeDsc
	case "disclose":
		t = ProofTypeDisclose
	default:
		return fmt.Errorf("unknown proof request type %q", w.Type)
	}

	hasEndpoint := w.EndpointType != "" || w.Endpoint != ""
	if t == ProofTypeDisclose {
		if w.EndpointType == "" || w.Endpoint == "" {
			return fmt.Errorf("disclose requests require endpointType and endpoint")
		}
		if w.EndpointType != EndpointCelo && w.EndpointType != EndpointHTTPS {
			return fmt.Errorf("unknown endpointType %q", w.EndpointType)
		}
	} else if hasEndpoint {
		return fmt.Errorf("endpointType/endpoint are only valid for disclose requests")
	}

	r.OnChain = w.OnChain
	r.Type = t
	r.Circuit = w.Circuit
	r.EndpointType = w.EndpointType
	r.Endpoint = w.Endpoint
	return nil
}
