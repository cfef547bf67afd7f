// Package server exposes the wallet transaction explainer over HTTP: the
// analysis endpoints, the attestation log, a status endpoint, and the
// static frontend.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lanternworks/txlens/pkg/chains"
	"github.com/lanternworks/txlens/pkg/explain"
	"github.com/lanternworks/txlens/pkg/merkle"
	"github.com/lanternworks/txlens/pkg/opengradient"
	"github.com/lanternworks/txlens/pkg/storage/sqlite"
)

// errorResponse is the error envelope for every route.
type errorResponse struct {
	Error string `json:"error"`
}

// Server wires the chain registry, the explorer client, the inference
// client and the attestation log behind a fiber app.
type Server struct {
	config   Config
	storer   merkle.Storer
	analyst  *explain.Service
	registry *chains.Registry
	watcher  *chains.RegistryWatcher
	logger   *zap.Logger
	app      *fiber.App

	watcherCancel context.CancelFunc
}

// New creates a Server from the effective configuration.
func New(config Config, logger *zap.Logger) (*Server, error) {
	var storer merkle.Storer
	if config.DBPath != "" {
		driver, err := sqlite.NewDriver(context.Background(), config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open attestation database: %w", err)
		}
		storer = driver.Storer()
		logger.Info("using SQLite attestation log", zap.String("path", config.DBPath))
	} else {
		storer = merkle.NewMemoryStorer()
		logger.Info("using in-memory attestation log")
	}

	registry := chains.NewRegistry()

	s := &Server{
		config:   config,
		storer:   storer,
		registry: registry,
		logger:   logger,
	}

	if config.ChainsFile != "" {
		watcher, err := chains.WatchRegistryFile(registry, config.ChainsFile, logger)
		if err != nil {
			storer.Close()
			return nil, fmt.Errorf("load chain registry: %w", err)
		}
		s.watcher = watcher

		ctx, cancel := context.WithCancel(context.Background())
		s.watcherCancel = cancel
		go watcher.Run(ctx)
	}

	explorer := chains.NewClient(chains.ClientConfig{
		BaseURL: config.Etherscan.BaseURL,
		APIKey:  config.Etherscan.APIKey,
		Timeout: time.Duration(config.Etherscan.TimeoutSeconds) * time.Second,
	}, registry, logger)

	var inference explain.InferenceClient
	ogClient, err := opengradient.New(opengradient.Config{
		BaseURL:    config.OpenGradient.BaseURL,
		PrivateKey: config.OpenGradient.PrivateKey,
		RetryMax:   config.OpenGradient.RetryMax,
	}, logger)
	switch {
	case err == nil:
		inference = ogClient
		logger.Info("inference client ready")
	case errors.As(err, &opengradient.ErrNotConfigured{}):
		logger.Warn("no inference credential configured, running in MOCK mode")
	default:
		return nil, fmt.Errorf("create inference client: %w", err)
	}

	s.analyst = explain.NewService(inference, explorer, storer, explain.Options{
		MaxTokens:   config.OpenGradient.MaxTokens,
		Temperature: config.OpenGradient.Temperature,
	}, logger)

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s.app = app
	s.registerRoutes(app)

	return s, nil
}

func (s *Server) registerRoutes(app *fiber.App) {
	app.Post("/analyze-transaction", s.handleAnalyzeTransaction)
	app.Post("/analyze-address", s.handleAnalyzeAddress)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Get("/status", s.handleStatus)

	// Attestation log inspection and replication
	app.Get("/attest/stats", s.handleAttestStats)
	app.Get("/attest/record/:hash", s.handleGetRecord)
	app.Get("/attest/history", s.handleListHistories)
	app.Get("/attest/history/:hash", s.handleGetHistory)
	app.Post("/attest/records", s.handleImportRecords)

	// Frontend, last so the API routes win
	registerStatic(app)
}

// RunWithListener serves on an existing listener. Useful for tests that
// need an OS-assigned port.
func (s *Server) RunWithListener(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting server",
		zap.String("listen", s.config.ListenAddr),
		zap.Int("chains", s.registry.Len()),
		zap.Bool("live", s.analyst.Live()),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// Close shuts the server down and releases resources.
func (s *Server) Close() error {
	if s.watcherCancel != nil {
		s.watcherCancel()
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
	if err := s.app.Shutdown(); err != nil {
		s.logger.Warn("fiber shutdown", zap.Error(err))
	}
	return s.storer.Close()
}
