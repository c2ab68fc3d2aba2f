// Package config holds the operator-supplied startup configuration: bind
// address, database URL, circuit/zkey/rapidsnark roots, the circuit->zkey
// map, and the enabled endpoint kind. CLI flags (cmd/tee-prover-server)
// are the primary input path; an optional YAML/JSON file only supplies
// defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zk-passport/tee-prover-server/model"
)

// Config is the fully resolved startup configuration for one running
// instance of the service.
type Config struct {
	BindAddr       string `yaml:"bind_addr" json:"bind_addr"`
	DatabaseURL    string `yaml:"database_url" json:"database_url"`
	CircuitRoot    string `yaml:"circuit_root" json:"circuit_root"`
	ZkeyRoot       string `yaml:"zkey_root" json:"zkey_root"`
	RapidsnarkRoot string `yaml:"rapidsnark_root" json:"rapidsnark_root"`

	// CircuitZkeyMap maps circuit name -> zkey filename (relative to
	// ZkeyRoot), supplied as repeated --circuit key=value flags.
	CircuitZkeyMap map[string]string `yaml:"circuit_zkey_map" json:"circuit_zkey_map"`

	// Endpoint is the single enabled ProofRequest kind for this process,
	// a required startup flag (see DESIGN.md Open Question (c)).
	Endpoint model.ProofType `yaml:"-" json:"-"`

	// OperatorKeyHex is the hex-encoded secp256k1 private key used to sign
	// produced proofs.
	OperatorKeyHex string `yaml:"-" json:"-"`

	QueueCapacity int    `yaml:"queue_capacity" json:"queue_capacity"`
	DBMaxConns    int32  `yaml:"db_max_conns" json:"db_max_conns"`
	LogLevel      string `yaml:"log_level" json:"log_level"`

	// NotifyAddr, if non-empty, enables the supplemented WebSocket
	// status-notification side channel (see notify package).
	NotifyAddr string `yaml:"notify_addr" json:"notify_addr"`
}

// Default returns a Config with the service's documented defaults filled in.
func Default() *Config {
	return &Config{
		BindAddr:      "0.0.0.0:3001",
		ZkeyRoot:      "./zkeys",
		CircuitRoot:   "../circuits",
		QueueCapacity: 10,
		DBMaxConns:    20,
		LogLevel:      "info",
	}
}

// LoadFromFile loads defaults from a YAML or JSON file. CLI flags
// (cmd/tee-prover-server) are applied on top and take precedence.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config file (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// ZkeyPath returns the absolute zkey path for circuitName, or "" if the
// circuit is not in the operator-configured map.
func (c *Config) ZkeyPath(circuitName string) string {
	filename, ok := c.CircuitZkeyMap[circuitName]
	if !ok {
		return ""
	}
	return filepath.Join(c.ZkeyRoot, filename)
}

// WitnessCalculatorPath returns the expected path of a circuit's
// witness-calculator executable.
func (c *Config) WitnessCalculatorPath(circuitName string) string {
	return filepath.Join(c.CircuitRoot, circuitName+"_cpp", circuitName)
}

// ProverPath returns the expected path of the rapidsnark prover binary.
func (c *Config) ProverPath() string {
	return filepath.Join(c.RapidsnarkRoot, "package", "bin", "prover")
}

// HasCircuit reports whether circuitName is a key in the operator's map.
func (c *Config) HasCircuit(circuitName string) bool {
	_, ok := c.CircuitZkeyMap[circuitName]
	return ok
}
