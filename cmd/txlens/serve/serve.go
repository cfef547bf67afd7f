package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanternworks/txlens/pkg/logger"
	"github.com/lanternworks/txlens/server"
)

const serveLongDesc string = `Run the txlens HTTP server.

Serves the analysis endpoints, the attestation log API and the web
frontend. Configuration comes from defaults, then an optional TOML
file, then environment variables (PORT, OG_PRIVATE_KEY,
ETHERSCAN_API_KEY, TXLENS_DB). Without an OpenGradient credential the
server runs in MOCK mode and serves raw chain data instead of AI
explanations.

Examples:
  txlens serve
  txlens serve --listen :8080 --db ~/.txlens/txlens.db
  txlens serve --config /etc/txlens/config.toml --chains chains.toml`

const serveShortDesc string = "Run the HTTP server"

type serveCommander struct {
	configPath string
	listenAddr string
	dbPath     string
	chainsFile string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "SQLite attestation log path (default: in-memory)")
	cmd.Flags().StringVar(&cmder.chainsFile, "chains", "", "TOML chain registry, hot-reloaded on change")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg, err := server.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	if c.listenAddr != "" {
		cfg.ListenAddr = c.listenAddr
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if c.chainsFile != "" {
		cfg.ChainsFile = c.chainsFile
	}
	if c.debug {
		cfg.Debug = true
	}

	log := logger.NewLogger(cfg.Debug, cfg.LogLevel)
	defer log.Sync()

	srv, err := server.New(cfg, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		srv.Close()
	}()

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
