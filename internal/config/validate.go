package config

import (
	"fmt"
	"os"
)

// Validate performs the fatal startup checks this service requires: the
// rapidsnark prover binary must exist, and for every configured circuit
// both its zkey file and its witness-calculator executable must exist.
func (c *Config) Validate() error {
	if _, err := os.Stat(c.ProverPath()); err != nil {
		return fmt.Errorf("rapidsnark prover binary not found at %s: %w", c.ProverPath(), err)
	}

	if len(c.CircuitZkeyMap) == 0 {
		return fmt.Errorf("no circuit->zkey mappings configured")
	}

	for circuitName := range c.CircuitZkeyMap {
		zkeyPath := c.ZkeyPath(circuitName)
		if _, err := os.Stat(zkeyPath); err != nil {
			return fmt.Errorf("zkey for circuit %q not found at %s: %w", circuitName, zkeyPath, err)
		}

		wcPath := c.WitnessCalculatorPath(circuitName)
		if _, err := os.Stat(wcPath); err != nil {
			return fmt.Errorf("witness calculator for circuit %q not found at %s: %w", circuitName, wcPath, err)
		}
	}

	return nil
}
