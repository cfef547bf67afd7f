package explain

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lanternworks/txlens/pkg/chains"
	"github.com/lanternworks/txlens/pkg/merkle"
	"github.com/lanternworks/txlens/pkg/opengradient"
)

// Proof is the attestation returned with every explanation. In LIVE mode
// these fields come from the inference network; in MOCK mode they are
// synthesized so callers always see the same shape.
type Proof struct {
	PaymentHash       string `json:"paymentHash"`
	Model             string `json:"model"`
	VerifiedByTEE     bool   `json:"verifiedByTEE"`
	ExplorerURL       string `json:"explorerUrl"`
	SettlementNetwork string `json:"settlementNetwork"`
	InferenceNetwork  string `json:"inferenceNetwork"`
	Mode              string `json:"mode"`

	// AttestationHash is the head of this analysis' record chain in the
	// local attestation log. Empty when recording failed or is disabled.
	AttestationHash string `json:"attestationHash,omitempty"`
}

// TransactionAnalysis is the result of explaining one transaction.
type TransactionAnalysis struct {
	Transaction *chains.Transaction `json:"transaction"`
	Explanation string              `json:"explanation"`
	Proof       Proof               `json:"proof"`
}

// AddressAnalysis is the result of explaining recent wallet activity.
type AddressAnalysis struct {
	Activity    *chains.AccountActivity `json:"address"`
	Explanation string                  `json:"explanation"`
	Proof       Proof                   `json:"proof"`
}

// InferenceClient is the slice of the OpenGradient client the service uses.
type InferenceClient interface {
	Chat(ctx context.Context, req opengradient.ChatRequest) (*opengradient.ChatResponse, error)
}

// ChainReader is the slice of the chains client the service uses.
type ChainReader interface {
	FindTransaction(ctx context.Context, txHash string) (*chains.Transaction, error)
	AccountTransactions(ctx context.Context, chainID int64, address string, limit int) (*chains.AccountActivity, error)
}

// Options tune the inference calls.
type Options struct {
	MaxTokens   int     // default 600
	Temperature float64 // default 0.3
	AddressTxs  int     // recent transactions pulled per address, default 10
}

// Service is the analyst: it fetches chain data, prompts the model, and
// assembles the explanation plus proof.
type Service struct {
	inference InferenceClient // nil means MOCK mode
	chains    ChainReader
	storer    merkle.Storer // nil disables the attestation log
	opts      Options
	logger    *zap.Logger
}

// NewService creates the analyst. A nil inference client puts the service
// in MOCK mode; a nil storer disables attestation recording.
func NewService(inference InferenceClient, chainReader ChainReader, storer merkle.Storer, opts Options, logger *zap.Logger) *Service {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 600
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.AddressTxs == 0 {
		opts.AddressTxs = 10
	}

	return &Service{
		inference: inference,
		chains:    chainReader,
		storer:    storer,
		opts:      opts,
		logger:    logger,
	}
}

// Live reports whether a configured inference client is present.
func (s *Service) Live() bool {
	return s.inference != nil
}

// AnalyzeTransaction looks a transaction hash up across all registered
// chains and explains it. A hash no chain knows still produces an
// explanation, over an "unknown" transaction.
func (s *Service) AnalyzeTransaction(ctx context.Context, txHash, modelName string) (*TransactionAnalysis, error) {
	wireModel, err := opengradient.ResolveModel(modelName)
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = opengradient.DefaultModel
	}

	tx, err := s.chains.FindTransaction(ctx, txHash)
	if err != nil {
		if !errors.Is(err, chains.ErrTxNotFound) {
			return nil, fmt.Errorf("chain lookup: %w", err)
		}
		s.logger.Warn("transaction not found on any chain, using fallback data",
			zap.String("tx_hash", txHash),
		)
		tx = chains.NewUnknownTransaction(txHash)
	}

	explanation, proof := s.explain(ctx, buildTransactionPrompt(tx), modelName, wireModel)
	if proof.Mode == modeMock {
		explanation = fallbackTransactionExplanation(tx)
	}

	proof.AttestationHash = s.record(ctx, map[string]any{
		"type":  "query",
		"kind":  "transaction",
		"query": txHash,
		"chain": tx.Chain,
		"model": modelName,
	}, explanation, proof)

	return &TransactionAnalysis{
		Transaction: tx,
		Explanation: explanation,
		Proof:       proof,
	}, nil
}

// AnalyzeAddress explains the recent activity of a wallet on one chain.
// Unlike the transaction path, a failed activity fetch is an error: there
// is no meaningful fallback data for an address we know nothing about.
func (s *Service) AnalyzeAddress(ctx context.Context, address string, chainID int64, modelName string) (*AddressAnalysis, error) {
	wireModel, err := opengradient.ResolveModel(modelName)
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = opengradient.DefaultModel
	}

	activity, err := s.chains.AccountTransactions(ctx, chainID, address, s.opts.AddressTxs)
	if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	explanation, proof := s.explain(ctx, buildAddressPrompt(activity), modelName, wireModel)
	if proof.Mode == modeMock {
		explanation = fallbackAddressExplanation(activity)
	}

	proof.AttestationHash = s.record(ctx, map[string]any{
		"type":  "query",
		"kind":  "address",
		"query": address,
		"chain": activity.Chain,
		"model": modelName,
	}, explanation, proof)

	return &AddressAnalysis{
		Activity:    activity,
		Explanation: explanation,
		Proof:       proof,
	}, nil
}

const (
	modeLive = "LIVE"
	modeMock = "MOCK"
)

// explain runs the prompt through the inference network if one is
// configured. Any failure degrades to a MOCK proof; the caller substitutes
// the raw-data fallback explanation.
func (s *Service) explain(ctx context.Context, prompt, modelName, wireModel string) (string, Proof) {
	if s.inference == nil {
		return "", s.mockProof()
	}

	resp, err := s.inference.Chat(ctx, opengradient.ChatRequest{
		Model: wireModel,
		Messages: []opengradient.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		s.logger.Error("inference failed, falling back to raw data", zap.Error(err))
		return "", s.mockProof()
	}

	paymentHash := resp.PaymentHash
	explorerURL := "https://explorer.opengradient.ai"
	if paymentHash == "" {
		paymentHash = "verified-no-settlement"
	} else {
		explorerURL = "https://explorer.opengradient.ai/tx/" + paymentHash
	}

	return resp.ChatOutput.Content, Proof{
		PaymentHash:       paymentHash,
		Model:             modelName,
		VerifiedByTEE:     true,
		ExplorerURL:       explorerURL,
		SettlementNetwork: "Base Sepolia",
		InferenceNetwork:  "OpenGradient",
		Mode:              modeLive,
	}
}

func (s *Service) mockProof() Proof {
	return Proof{
		PaymentHash:       randomPaymentHash(),
		Model:             "fallback (no AI)",
		VerifiedByTEE:     false,
		ExplorerURL:       "https://explorer.opengradient.ai",
		SettlementNetwork: "Base Sepolia",
		InferenceNetwork:  "OpenGradient Testnet",
		Mode:              modeMock,
	}
}

// record appends a query record and its explanation record to the
// attestation log and returns the head hash. Storage failures are logged
// and never fail the analysis.
func (s *Service) record(ctx context.Context, query map[string]any, explanation string, proof Proof) string {
	if s.storer == nil {
		return ""
	}

	queryNode := merkle.NewNode(query, nil)
	if err := s.storer.Put(ctx, queryNode); err != nil {
		s.logger.Error("failed to record query", zap.Error(err))
		return ""
	}

	explanationNode := merkle.NewNode(map[string]any{
		"type":        "explanation",
		"explanation": explanation,
		"proof": map[string]any{
			"payment_hash":       proof.PaymentHash,
			"model":              proof.Model,
			"verified_by_tee":    proof.VerifiedByTEE,
			"settlement_network": proof.SettlementNetwork,
			"inference_network":  proof.InferenceNetwork,
			"mode":               proof.Mode,
		},
	}, queryNode)
	if err := s.storer.Put(ctx, explanationNode); err != nil {
		s.logger.Error("failed to record explanation", zap.Error(err))
		return ""
	}

	s.logger.Debug("analysis recorded",
		zap.String("head_hash", truncate(explanationNode.Hash, 16)),
	)

	return explanationNode.Hash
}
