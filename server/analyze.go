package server

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lanternworks/txlens/pkg/opengradient"
)

type analyzeTransactionRequest struct {
	TxHash string `json:"txHash"`
	Model  string `json:"model"`
}

type analyzeAddressRequest struct {
	Address string `json:"address"`
	ChainID int64  `json:"chainId"`
	Model   string `json:"model"`
}

// handleAnalyzeTransaction validates the hash, runs the analyst, and
// returns the explanation with its proof. Input problems are rejected
// before any upstream call is made.
func (s *Server) handleAnalyzeTransaction(c *fiber.Ctx) error {
	var req analyzeTransactionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	txHash := strings.TrimSpace(req.TxHash)
	if txHash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Please provide a transaction hash."})
	}
	if !isHexWithPrefix(txHash) || len(txHash) < 10 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Hash must start with '0x' and be valid hex."})
	}
	if _, err := opengradient.ResolveModel(req.Model); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	s.logger.Info("analyzing transaction", zap.String("tx_hash", txHash))

	result, err := s.analyst.AnalyzeTransaction(c.Context(), txHash, req.Model)
	if err != nil {
		s.logger.Error("transaction analysis failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Something went wrong."})
	}

	s.logger.Info("analysis complete",
		zap.String("mode", result.Proof.Mode),
		zap.String("chain", result.Transaction.Chain),
	)

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": result.Transaction,
		"explanation": result.Explanation,
		"proof":       result.Proof,
	})
}

// handleAnalyzeAddress validates the address, pulls recent activity and
// runs the analyst over it. An explorer failure is relayed as a bad
// gateway, since we have no fallback data for an unknown wallet.
func (s *Server) handleAnalyzeAddress(c *fiber.Ctx) error {
	var req analyzeAddressRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Please provide a wallet address."})
	}
	if !isHexWithPrefix(address) || len(address) != 42 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Address must be '0x' followed by 40 hex characters."})
	}
	if _, err := opengradient.ResolveModel(req.Model); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	chainID := req.ChainID
	if chainID == 0 {
		chainID = 1 // Ethereum mainnet
	}

	s.logger.Info("analyzing address",
		zap.String("address", address),
		zap.Int64("chain_id", chainID),
	)

	result, err := s.analyst.AnalyzeAddress(c.Context(), address, chainID, req.Model)
	if err != nil {
		s.logger.Error("address analysis failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "Could not fetch activity for this address."})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"address":     result.Activity,
		"explanation": result.Explanation,
		"proof":       result.Proof,
	})
}

// handleStatus reports configuration state without leaking the credential.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	credential := "NOT SET"
	if s.analyst.Live() {
		key := s.config.OpenGradient.PrivateKey
		if len(key) > 8 {
			key = key[:8]
		}
		credential = key + "..."
	}

	etherscanKey := "FREE TIER"
	if s.config.Etherscan.APIKey != "" {
		etherscanKey = "SET"
	}

	storage := "memory"
	if s.config.DBPath != "" {
		storage = "sqlite"
	}

	mode := "MOCK"
	if s.analyst.Live() {
		mode = "LIVE"
	}

	return c.JSON(fiber.Map{
		"credential":      credential,
		"etherscanKey":    etherscanKey,
		"mode":            mode,
		"storage":         storage,
		"chainsSupported": s.registry.Len(),
		"chains":          s.registry.Names(),
		"models":          opengradient.ModelNames(),
	})
}

// isHexWithPrefix reports whether s is "0x" followed only by hex digits.
func isHexWithPrefix(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return len(s) > 2
}
