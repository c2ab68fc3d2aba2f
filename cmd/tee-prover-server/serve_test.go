package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/model"
)

func resetFlags() {
	flagConfigFile = ""
	flagBindAddr = ""
	flagDatabaseURL = ""
	flagCircuitRoot = ""
	flagZkeyRoot = ""
	flagRapidsnarkRoot = ""
	flagCircuits = nil
	flagEndpoint = ""
	flagOperatorKey = ""
	flagNotifyAddr = ""
	flagQueueCapacity = 0
	flagLogLevel = ""
}

func TestParseEndpoint(t *testing.T) {
	cases := map[string]model.ProofType{
		"register": model.ProofTypeRegister,
		"dsc":      model.ProofTypeDsc,
		"disclose": model.ProofTypeDisclose,
	}
	for in, want := range cases {
		got, err := parseEndpoint(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseEndpoint("bogus")
	assert.Error(t, err)
}

func TestResolveConfigAppliesFlagsOverDefaults(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	flagBindAddr = "127.0.0.1:9000"
	flagDatabaseURL = "postgres://localhost/test"
	flagEndpoint = "dsc"
	flagCircuits = []string{"register_sha256=register.zkey", "dsc_ecdsa=dsc.zkey"}
	flagQueueCapacity = 5

	cfg, err := resolveConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.BindAddr)
	assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	assert.Equal(t, model.ProofTypeDsc, cfg.Endpoint)
	assert.Equal(t, 5, cfg.QueueCapacity)
	assert.Equal(t, "register.zkey", cfg.CircuitZkeyMap["register_sha256"])
	assert.Equal(t, "dsc.zkey", cfg.CircuitZkeyMap["dsc_ecdsa"])
}

func TestResolveConfigRejectsMalformedCircuitFlag(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	flagEndpoint = "register"
	flagCircuits = []string{"missing-equals-sign"}

	_, err := resolveConfig()
	assert.Error(t, err)
}

func TestResolveConfigRejectsUnknownEndpoint(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	flagEndpoint = "not-a-real-endpoint"

	_, err := resolveConfig()
	assert.Error(t, err)
}

func TestResolveSignerGeneratesEphemeralKeyWhenUnconfigured(t *testing.T) {
	signer, err := resolveSigner(&config.Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, signer.Address())
}

func TestResolveSignerRejectsMalformedHex(t *testing.T) {
	_, err := resolveSigner(&config.Config{OperatorKeyHex: "not-hex"})
	assert.Error(t, err)
}

func TestResolveSignerAcceptsHexKey(t *testing.T) {
	keyHex := "0x" + strings.Repeat("46", 32)
	signer, err := resolveSigner(&config.Config{OperatorKeyHex: keyHex})
	require.NoError(t, err)
	assert.NotEmpty(t, signer.Address())
}
