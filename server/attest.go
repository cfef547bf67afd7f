package server

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lanternworks/txlens/pkg/merkle"
)

// handleAttestStats summarizes the attestation log.
func (s *Server) handleAttestStats(c *fiber.Ctx) error {
	ctx := c.Context()

	all, err := s.storer.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to read attestation log"})
	}
	roots, err := s.storer.Roots(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to read attestation log"})
	}
	leaves, err := s.storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to read attestation log"})
	}

	return c.JSON(fiber.Map{
		"total_nodes": len(all),
		"root_count":  len(roots),
		"leaf_count":  len(leaves),
	})
}

// handleGetRecord returns one record by hash.
func (s *Server) handleGetRecord(c *fiber.Ctx) error {
	hash := c.Params("hash")

	node, err := s.storer.Get(c.Context(), hash)
	if err != nil {
		if errors.As(err, &merkle.ErrNotFound{}) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to read attestation log"})
	}

	return c.JSON(node)
}

// handleListHistories lists the head of every recorded analysis.
func (s *Server) handleListHistories(c *fiber.Ctx) error {
	leaves, err := s.storer.Leaves(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to read attestation log"})
	}

	return c.JSON(fiber.Map{
		"count": len(leaves),
		"heads": leaves,
	})
}

// handleGetHistory returns one analysis chain in chronological order,
// query record first.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	hash := c.Params("hash")

	ancestry, err := s.storer.Ancestry(c.Context(), hash)
	if err != nil {
		if errors.As(err, &merkle.ErrNotFound{}) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to read attestation log"})
	}

	// Ancestry is head-first; flip it so the query comes first
	records := make([]*merkle.Node, 0, len(ancestry))
	for i := len(ancestry) - 1; i >= 0; i-- {
		records = append(records, ancestry[i])
	}

	return c.JSON(fiber.Map{
		"head":    hash,
		"records": records,
	})
}

// handleImportRecords accepts a batch of records from another log and
// merges them in. Records whose hash does not verify are rejected, since
// an unverifiable record would poison content-addressing for everything
// below it.
func (s *Server) handleImportRecords(c *fiber.Ctx) error {
	var nodes []*merkle.Node
	if err := json.Unmarshal(c.Body(), &nodes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body, expected an array of records"})
	}

	ctx := c.Context()
	var imported, duplicate, failed int

	for _, node := range nodes {
		if node == nil || !node.Verify() {
			failed++
			continue
		}

		exists, err := s.storer.Has(ctx, node.Hash)
		if err != nil {
			s.logger.Error("import existence check failed", zap.Error(err))
			failed++
			continue
		}
		if exists {
			duplicate++
			continue
		}

		if err := s.storer.Put(ctx, node); err != nil {
			s.logger.Error("import put failed",
				zap.String("hash", node.Hash),
				zap.Error(err),
			)
			failed++
			continue
		}
		imported++
	}

	s.logger.Info("record import complete",
		zap.Int("new", imported),
		zap.Int("duplicate", duplicate),
		zap.Int("errors", failed),
	)

	return c.JSON(fiber.Map{
		"new":       imported,
		"duplicate": duplicate,
		"errors":    failed,
	})
}
