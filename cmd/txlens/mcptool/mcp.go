package mcpcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lanternworks/txlens/pkg/explain"
)

const mcpLongDesc string = `Expose transaction analysis as an MCP tool over stdio.

Runs a Model Context Protocol server whose tools forward to a running
txlens server, so MCP clients (editors, agents) can request
explanations with the same attestation guarantees as the HTTP API.

Examples:
  txlens mcp
  txlens mcp --server http://localhost:10000`

const mcpShortDesc string = "Run an MCP server over stdio"

type mcpCommander struct {
	serverURL string
}

type explainTransactionArgs struct {
	TxHash string `json:"txHash" jsonschema:"transaction hash to explain, 0x-prefixed"`
	Model  string `json:"model,omitempty" jsonschema:"optional model name, e.g. GEMINI_2_5_FLASH"`
}

type explainAddressArgs struct {
	Address string `json:"address" jsonschema:"wallet address to explain, 0x-prefixed"`
	ChainID int64  `json:"chainId,omitempty" jsonschema:"chain id to look the address up on, defaults to Ethereum mainnet"`
	Model   string `json:"model,omitempty" jsonschema:"optional model name"`
}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.serverURL, "server", "http://localhost:10000", "Base URL of the txlens server")

	return cmd
}

func (c *mcpCommander) run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "txlens",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explain_transaction",
		Description: "Explain a blockchain transaction in plain English, with a TEE attestation proof",
	}, c.explainTransaction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explain_address",
		Description: "Explain the recent activity of a wallet address in plain English, with a TEE attestation proof",
	}, c.explainAddress)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (c *mcpCommander) explainTransaction(ctx context.Context, req *mcp.CallToolRequest, args explainTransactionArgs) (*mcp.CallToolResult, any, error) {
	text, err := c.analyze(ctx, "/analyze-transaction", map[string]any{
		"txHash": args.TxHash,
		"model":  args.Model,
	})
	if err != nil {
		return nil, nil, err
	}

	return textResult(text), nil, nil
}

func (c *mcpCommander) explainAddress(ctx context.Context, req *mcp.CallToolRequest, args explainAddressArgs) (*mcp.CallToolResult, any, error) {
	body := map[string]any{
		"address": args.Address,
		"model":   args.Model,
	}
	if args.ChainID != 0 {
		body["chainId"] = args.ChainID
	}

	text, err := c.analyze(ctx, "/analyze-address", body)
	if err != nil {
		return nil, nil, err
	}

	return textResult(text), nil, nil
}

// analyze forwards the request to the txlens server and flattens the
// response into the explanation plus a short proof footer.
func (c *mcpCommander) analyze(ctx context.Context, path string, body map[string]any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("could not marshal request: %w", err)
	}

	url := strings.TrimRight(c.serverURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("txlens server unreachable at %s: %w", c.serverURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return "", fmt.Errorf("analysis failed: %s", errResp.Error)
		}
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Explanation string        `json:"explanation"`
		Proof       explain.Proof `json:"proof"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("could not decode response: %w", err)
	}

	var b strings.Builder
	b.WriteString(result.Explanation)
	fmt.Fprintf(&b, "\n\n---\nProof: model %s, mode %s, payment hash %s (%s on %s)",
		result.Proof.Model, result.Proof.Mode, result.Proof.PaymentHash,
		result.Proof.InferenceNetwork, result.Proof.SettlementNetwork)
	if result.Proof.AttestationHash != "" {
		fmt.Fprintf(&b, "\nAttestation record: %s", result.Proof.AttestationHash)
	}

	return b.String(), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
