package cryptocore

import (
	"encoding/hex"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/zk-passport/tee-prover-server/internal/metrics"
	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
	"github.com/zk-passport/tee-prover-server/model"
)

// VerifySignature recovers the signer address from a signature over proof
// and reports whether it matches wantAddress. Used by tests and operator
// tooling to check signature soundness, not by the hot path (the service
// only signs, it never needs to verify its own signatures at runtime).
func VerifySignature(proof model.Proof, signatureHex, wantAddress string) (bool, error) {
	timer := newTimer()
	defer func() {
		metrics.CryptoOperationDuration.WithLabelValues("verify", signAlgorithm).Observe(timer())
	}()

	canonical, err := CanonicalBytes(proof)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("verify").Inc()
		return false, err
	}
	hash := ethcrypto.Keccak256(canonical)

	sig, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil || len(sig) != 65 {
		metrics.CryptoErrors.WithLabelValues("verify").Inc()
		return false, rpcerr.New(rpcerr.KindInternal, "malformed signature")
	}

	// ecrecover expects v in {0,1}; undo the 27/28 normalization applied at
	// signing time.
	recSig := make([]byte, 65)
	copy(recSig, sig)
	if recSig[64] >= 27 {
		recSig[64] -= 27
	}

	pubKey, err := ethcrypto.SigToPub(hash, recSig)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("verify").Inc()
		return false, rpcerr.Wrap(rpcerr.KindInternal, "ecrecover failed", err)
	}

	metrics.CryptoOperations.WithLabelValues("verify", signAlgorithm).Inc()
	return strings.EqualFold(ethcrypto.PubkeyToAddress(*pubKey).Hex(), wantAddress), nil
}
