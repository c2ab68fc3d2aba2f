package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/spf13/cobra"

	"github.com/zk-passport/tee-prover-server/cryptocore"
	"github.com/zk-passport/tee-prover-server/health"
	"github.com/zk-passport/tee-prover-server/internal/config"
	"github.com/zk-passport/tee-prover-server/internal/logger"
	"github.com/zk-passport/tee-prover-server/internal/metrics"
	"github.com/zk-passport/tee-prover-server/model"
	"github.com/zk-passport/tee-prover-server/notify"
	"github.com/zk-passport/tee-prover-server/pipeline"
	"github.com/zk-passport/tee-prover-server/rpc"
	"github.com/zk-passport/tee-prover-server/secmodule"
	"github.com/zk-passport/tee-prover-server/session"
	"github.com/zk-passport/tee-prover-server/store/postgres"
)

var (
	flagConfigFile     string
	flagBindAddr       string
	flagDatabaseURL    string
	flagCircuitRoot    string
	flagZkeyRoot       string
	flagRapidsnarkRoot string
	flagCircuits       []string
	flagEndpoint       string
	flagOperatorKey    string
	flagNotifyAddr     string
	flagQueueCapacity  int
	flagLogLevel       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the proof generation service",
	Long: `serve starts the JSON-RPC surface, the asynchronous proof pipeline, and
(if --notify-addr is set) the WebSocket status-notification side channel.

Exactly one ProofRequest kind is enabled per process, selected by
--endpoint.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&flagConfigFile, "config", "", "optional YAML/JSON config file supplying defaults")
	serveCmd.Flags().StringVar(&flagBindAddr, "bind", "", "server bind address (default 0.0.0.0:3001)")
	serveCmd.Flags().StringVar(&flagDatabaseURL, "database-url", "", "PostgreSQL connection string")
	serveCmd.Flags().StringVar(&flagCircuitRoot, "circuit-root", "", "circuit folder root")
	serveCmd.Flags().StringVar(&flagZkeyRoot, "zkey-root", "", "proving-key folder root")
	serveCmd.Flags().StringVar(&flagRapidsnarkRoot, "rapidsnark-root", "", "rapidsnark install root")
	serveCmd.Flags().StringArrayVar(&flagCircuits, "circuit", nil, "circuit_name=zkey_filename, repeatable")
	serveCmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "enabled ProofRequest kind: register|dsc|disclose (required)")
	serveCmd.Flags().StringVar(&flagOperatorKey, "operator-key", "", "hex-encoded secp256k1 operator private key (falls back to $OPERATOR_KEY_HEX)")
	serveCmd.Flags().StringVar(&flagNotifyAddr, "notify-addr", "", "optional bind address for the WebSocket status-notification channel")
	serveCmd.Flags().IntVar(&flagQueueCapacity, "queue-capacity", 0, "pipeline queue capacity (default 10)")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (default info)")

	_ = serveCmd.MarkFlagRequired("endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("startup validation failed: %w", err)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logger.GetDefaultLogger().SetLevel(logger.DebugLevel)
	case "info":
		logger.GetDefaultLogger().SetLevel(logger.InfoLevel)
	case "warn":
		logger.GetDefaultLogger().SetLevel(logger.WarnLevel)
	case "error":
		logger.GetDefaultLogger().SetLevel(logger.ErrorLevel)
	}

	logger.Warn("public_inputs.json is persisted verbatim but is not covered by the proof signature; " +
		"confirm the verifier contract expects the same public-signal ordering")

	signer, err := resolveSigner(cfg)
	if err != nil {
		return err
	}
	logger.Info("operator signing address resolved", logger.String("address", signer.Address()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := postgres.NewGateway(ctx, postgres.Config{ConnString: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer gateway.Close()

	module := secmodule.NewDevModule()
	defer module.Close()

	sessions := session.NewMutexStore()
	crypto := cryptocore.New(moduleRandReader{module})

	var notifier *notify.Hub
	if cfg.NotifyAddr != "" {
		notifier = notify.NewHub()
		go serveNotify(cfg.NotifyAddr, notifier)
	}

	orchestrator := pipeline.New(cfg, gateway, signer, notifier)
	orchestrator.Start(ctx)

	checker := health.NewChecker(0)
	checker.Register("database", health.DatabaseCheck(gateway.Ping))
	checker.Register("module", health.ModuleCheck(module.Random))

	server := &rpc.Server{
		Sessions:     sessions,
		Crypto:       crypto,
		Module:       module,
		Orchestrator: orchestrator,
		Config:       cfg,
	}

	mux := http.NewServeMux()
	mux.Handle("/", server.Handler())
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		health := checker.GetSystemHealth(r.Context())
		if health.Status != healthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = writeJSONHealth(w, health)
	})

	httpServer := &http.Server{Addr: cfg.BindAddr, Handler: mux}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", logger.String("addr", cfg.BindAddr))
		serverErr <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-stop:
		logger.Info("shutting down", logger.String("signal", sig.String()))
		cancel()
		_ = httpServer.Close()
	}

	return nil
}

func resolveConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flagConfigFile != "" {
		cfg, err = config.LoadFromFile(flagConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if flagBindAddr != "" {
		cfg.BindAddr = flagBindAddr
	}
	if flagDatabaseURL != "" {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if flagCircuitRoot != "" {
		cfg.CircuitRoot = flagCircuitRoot
	}
	if flagZkeyRoot != "" {
		cfg.ZkeyRoot = flagZkeyRoot
	}
	if flagRapidsnarkRoot != "" {
		cfg.RapidsnarkRoot = flagRapidsnarkRoot
	}
	if flagQueueCapacity > 0 {
		cfg.QueueCapacity = flagQueueCapacity
	}
	if flagNotifyAddr != "" {
		cfg.NotifyAddr = flagNotifyAddr
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagOperatorKey != "" {
		cfg.OperatorKeyHex = flagOperatorKey
	} else if cfg.OperatorKeyHex == "" {
		cfg.OperatorKeyHex = os.Getenv("OPERATOR_KEY_HEX")
	}

	if len(flagCircuits) > 0 {
		if cfg.CircuitZkeyMap == nil {
			cfg.CircuitZkeyMap = make(map[string]string)
		}
		for _, entry := range flagCircuits {
			name, zkey, ok := strings.Cut(entry, "=")
			if !ok {
				return nil, fmt.Errorf("malformed --circuit entry %q, expected name=zkey_filename", entry)
			}
			cfg.CircuitZkeyMap[name] = zkey
		}
	}

	endpoint, err := parseEndpoint(flagEndpoint)
	if err != nil {
		return nil, err
	}
	cfg.Endpoint = endpoint

	return cfg, nil
}

func parseEndpoint(s string) (model.ProofType, error) {
	switch s {
	case "register":
		return model.ProofTypeRegister, nil
	case "dsc":
		return model.ProofTypeDsc, nil
	case "disclose":
		return model.ProofTypeDisclose, nil
	default:
		return 0, fmt.Errorf("unknown --endpoint %q, expected register|dsc|disclose", s)
	}
}

func resolveSigner(cfg *config.Config) (*cryptocore.Signer, error) {
	if cfg.OperatorKeyHex == "" {
		logger.Warn("no operator key configured; generating an ephemeral signing key for this process only")
		return cryptocore.GenerateSigner()
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(cfg.OperatorKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("malformed operator key hex: %w", err)
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	return cryptocore.NewSigner(priv), nil
}

func serveNotify(addr string, hub *notify.Hub) {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	logger.Info("notify channel listening", logger.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.ErrorMsg("notify channel stopped", logger.Error(err))
	}
}

// moduleRandReader adapts secmodule.Module.Random to io.Reader for
// cryptocore.New, which generates ephemeral ECDH keys via an io.Reader.
type moduleRandReader struct {
	module secmodule.Module
}

func (m moduleRandReader) Read(p []byte) (int, error) {
	if err := m.module.Random(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

const healthStatusHealthy = health.StatusHealthy

func writeJSONHealth(w http.ResponseWriter, h *health.SystemHealth) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(h)
}
