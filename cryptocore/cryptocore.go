// Package cryptocore implements the session cryptography and proof
// signing the prover depends on: ephemeral ECDH key agreement over
// P-256, AES-256-GCM AEAD decryption, and secp256k1 recoverable-signature
// signing of Groth16 proofs.
package cryptocore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"fmt"
	"io"

	"github.com/zk-passport/tee-prover-server/internal/logger"
	"github.com/zk-passport/tee-prover-server/internal/metrics"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
)

const (
	aeadKeySize   = 32
	aeadNonceSize = 12
	aeadTagSize   = 16
	sec1PubKeyLen = 65
)

// Core bundles the stateless cryptographic operations the RPC and pipeline
// layers depend on. A zero value is usable; it carries no mutable state of
// its own (the session secret lives in the SessionStore, the operator key
// is held separately by the signer).
type Core struct {
	rng io.Reader
}

// New builds a Core reading ephemeral key material from rng (typically
// the SecureModule adapter's RNG, via an io.Reader shim).
func New(rng io.Reader) *Core {
	return &Core{rng: rng}
}

// Derive generates an ephemeral P-256 key pair, computes the ECDH shared
// secret against peerPub (a 65-byte SEC1-uncompressed public key), and
// returns both the ephemeral public key (SEC1-uncompressed, to hand back
// to the client) and the 32-byte raw shared secret.
//
// The raw ECDH output is used directly as the session secret, with no
// additional hashing step: for a NIST curve, crypto/ecdh's ECDH method
// already returns the big-endian X-coordinate directly.
func (c *Core) Derive(peerPub []byte) (myPub []byte, secret [32]byte, err error) {
	timer := newTimer()
	defer func() { metrics.SessionDuration.WithLabelValues("derive").Observe(timer()) }()

	if len(peerPub) != sec1PubKeyLen {
		return nil, secret, rpcerr.New(rpcerr.KindInvalidPeerKey,
			fmt.Sprintf("peer public key must be %d bytes, got %d", sec1PubKeyLen, len(peerPub)))
	}

	curve := ecdh.P256()
	peer, err := curve.NewPublicKey(peerPub)
	if err != nil {
		return nil, secret, rpcerr.Wrap(rpcerr.KindInvalidPeerKey, "peer public key failed SEC1 parsing", err)
	}

	priv, err := curve.GenerateKey(c.rng)
	if err != nil {
		return nil, secret, rpcerr.Wrap(rpcerr.KindInternal, "ephemeral key generation failed", err)
	}

	raw, err := priv.ECDH(peer)
	if err != nil {
		return nil, secret, rpcerr.Wrap(rpcerr.KindInternal, "ECDH agreement failed", err)
	}
	if len(raw) != 32 {
		return nil, secret, rpcerr.New(rpcerr.KindInternal, "unexpected shared secret length")
	}
	copy(secret[:], raw)

	return priv.PublicKey().Bytes(), secret, nil
}

// Decrypt performs AES-256-GCM authenticated decryption. ciphertext and tag
// are concatenated (ciphertext || tag) before being handed to the AEAD
// primitive, matching the client's wire format.
func (c *Core) Decrypt(key [32]byte, nonce, ciphertext, tag []byte) ([]byte, error) {
	timer := newTimer()
	defer func() { metrics.SessionDuration.WithLabelValues("decrypt").Observe(timer()) }()

	if len(nonce) != aeadNonceSize {
		return nil, rpcerr.New(rpcerr.KindDecryptFailed, "malformed nonce length")
	}
	if len(tag) != aeadTagSize {
		return nil, rpcerr.New(rpcerr.KindDecryptFailed, "malformed authentication tag length")
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindInternal, "failed to construct AES cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindInternal, "failed to construct GCM AEAD", err)
	}

	combined := make([]byte, 0, len(ciphertext)+len(tag))
	combined = append(combined, ciphertext...)
	combined = append(combined, tag...)

	plaintext, err := aead.Open(nil, nonce, combined, nil)
	if err != nil {
		logger.Debug("AEAD decryption failed", logger.Error(err))
		return nil, rpcerr.Wrap(rpcerr.KindDecryptFailed, "authentication tag mismatch or malformed ciphertext", err)
	}
	return plaintext, nil
}
