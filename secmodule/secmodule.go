// Package secmodule is the sole adapter over the enclave security module.
// No other package in this service touches the module directly; everything
// else goes through the four operations exposed here.
package secmodule

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/zk-passport/tee-prover-server/internal/logger"
)

// Module is the capability surface the rest of the service depends on.
// The development-mode implementation below degrades to a software RNG and
// an empty attestation document; a production build wires this interface
// to the enclave's native driver, out of scope for this repository.
type Module interface {
	// Random fills out completely or returns an error.
	Random(out []byte) error
	// Attest returns the opaque attestation document binding the supplied
	// fields, or an empty document in development mode.
	Attest(userData, nonce, publicKey []byte) ([]byte, error)
	// Close tears down the module handle.
	Close() error
}

// devModule is the development-mode Module: software RNG, empty
// attestation. Selecting it is a configuration decision, not a runtime
// fallback — there is no code path that silently switches into it after a
// real module failure.
type devModule struct {
	mu     sync.Mutex
	reader io.Reader
}

// NewDevModule constructs the development-mode adapter.
func NewDevModule() Module {
	return &devModule{reader: rand.Reader}
}

func (m *devModule) Random(out []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := io.ReadFull(m.reader, out)
	return err
}

func (m *devModule) Attest(userData, nonce, publicKey []byte) ([]byte, error) {
	logger.Debug("attestation requested in development mode; returning empty document",
		logger.Int("user_data_len", len(userData)),
		logger.Int("nonce_len", len(nonce)),
		logger.Int("public_key_len", len(publicKey)),
	)
	return nil, nil
}

func (m *devModule) Close() error { return nil }
