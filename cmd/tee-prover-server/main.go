// Command tee-prover-server runs the JSON-RPC proof generation service:
// session establishment, the asynchronous proof pipeline, and proof
// signing, behind a single required --endpoint flag that fixes which
// ProofRequest variant this process accepts.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tee-prover-server",
	Short: "Attested remote Groth16 proof generation service",
	Long: `tee-prover-server exposes a JSON-RPC surface (namespace "openpassport")
for establishing an attested ephemeral session with the enclave, submitting
encrypted circuit inputs, and retrieving an asynchronously produced,
operator-signed Groth16 proof.`,
}

func main() {
	// A .env file, if present, supplies operator secrets (OPERATOR_KEY_HEX,
	// DATABASE_URL) that should not appear in a process argument list or
	// shell history. Its absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
