package cryptocore

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/zk-passport/tee-prover-server/internal/metrics"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
	"github.com/zk-passport/tee-prover-server/model"
)

const signAlgorithm = "secp256k1"

const fieldElementSize = 32

// Signer holds the operator's secp256k1 private key and produces
// Ethereum-style recoverable signatures over canonicalized Groth16 proofs.
type Signer struct {
	privateKey *secp256k1.PrivateKey
}

// NewSigner wraps an operator private key loaded from configuration.
func NewSigner(privateKey *secp256k1.PrivateKey) *Signer {
	return &Signer{privateKey: privateKey}
}

// GenerateSigner creates a fresh operator key pair (development/test use).
func GenerateSigner() (*Signer, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{privateKey: priv}, nil
}

// Address returns the Ethereum-style address derived from the operator's
// public key, used by callers verifying signature soundness.
func (s *Signer) Address() string {
	return ethcrypto.PubkeyToAddress(s.privateKey.ToECDSA().PublicKey).Hex()
}

// CanonicalBytes concatenates the big-endian 32-byte encodings of a proof's
// field elements, excluding the trailing projective-coordinate normalizer
// of each group element.
func CanonicalBytes(p model.Proof) ([]byte, error) {
	if len(p.PiA) == 0 || len(p.PiC) == 0 || len(p.PiB) == 0 {
		return nil, rpcerr.New(rpcerr.KindInternal, "proof is missing pi_a/pi_b/pi_c elements")
	}

	var out []byte

	appendElems := func(elems []string) error {
		for _, e := range elems {
			b, err := decimalToFieldElement(e)
			if err != nil {
				return err
			}
			out = append(out, b...)
		}
		return nil
	}

	if err := appendElems(p.PiA[:len(p.PiA)-1]); err != nil {
		return nil, err
	}
	for _, row := range p.PiB[:len(p.PiB)-1] {
		if err := appendElems(row); err != nil {
			return nil, err
		}
	}
	if err := appendElems(p.PiC[:len(p.PiC)-1]); err != nil {
		return nil, err
	}

	return out, nil
}

func decimalToFieldElement(s string) ([]byte, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, rpcerr.New(rpcerr.KindInternal, fmt.Sprintf("invalid field element %q", s))
	}
	b := n.Bytes()
	if len(b) > fieldElementSize {
		return nil, rpcerr.New(rpcerr.KindInternal, fmt.Sprintf("field element %q exceeds 32 bytes", s))
	}
	out := make([]byte, fieldElementSize)
	copy(out[fieldElementSize-len(b):], b)
	return out, nil
}

// Sign canonicalizes proof, hashes it with keccak256, and produces a
// 65-byte r||s||v recoverable signature (v = 27 + parity), returned as a
// hex-encoded string.
func (s *Signer) Sign(proof model.Proof) (string, error) {
	timer := newTimer()
	defer func() {
		metrics.CryptoOperationDuration.WithLabelValues("sign", signAlgorithm).Observe(timer())
	}()

	canonical, err := CanonicalBytes(proof)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("sign").Inc()
		return "", err
	}

	hash := ethcrypto.Keccak256(canonical)

	sig, err := ethcrypto.Sign(hash, s.privateKey.ToECDSA())
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("sign").Inc()
		return "", rpcerr.Wrap(rpcerr.KindInternal, "signing failed", err)
	}
	if len(sig) != 65 {
		metrics.CryptoErrors.WithLabelValues("sign").Inc()
		return "", rpcerr.New(rpcerr.KindInternal, "unexpected signature length")
	}

	// go-ethereum's Sign returns v in {0,1}; the Ethereum convention used
	// on-chain is v = 27 + parity.
	sig[64] += 27

	metrics.CryptoOperations.WithLabelValues("sign", signAlgorithm).Inc()
	return "0x" + hex.EncodeToString(sig), nil
}
