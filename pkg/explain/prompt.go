// Package explain turns raw chain data into a plain-English explanation by
// prompting a TEE-hosted model, and records every analysis in the
// attestation log.
package explain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lanternworks/txlens/pkg/chains"
)

// systemPrompt frames every inference call.
const systemPrompt = "You are a blockchain transaction analyst. Explain transactions clearly for beginners. Use markdown with ## headers and **bold**."

// buildTransactionPrompt produces the sectioned analysis prompt for a
// single transaction. The raw transaction data is appended as JSON so the
// model grounds its answer in real numbers.
func buildTransactionPrompt(tx *chains.Transaction) string {
	var b strings.Builder

	realPrefix := ""
	if tx.Chain != "Unknown" {
		realPrefix = "real "
	}

	fmt.Fprintf(&b, "You are a blockchain expert. Explain this %stransaction from the **%s** network in simple, beginner-friendly English.\n\n", realPrefix, tx.Chain)

	b.WriteString("Break your answer into these sections:\n")
	b.WriteString("1. SUMMARY — what happened in one sentence\n")
	b.WriteString("2. CHAIN — which blockchain network this was on and what that means\n")
	b.WriteString("3. DETAILS — where the funds went, who sent what to whom\n")
	fmt.Fprintf(&b, "4. GAS FEES — how much was paid in fees and whether that's normal for %s\n", tx.Chain)
	b.WriteString("5. SUSPICION CHECK — any suspicious patterns or is this normal\n\n")

	if tx.IsContractCall {
		b.WriteString("This is a smart contract interaction (not a simple transfer).\n")
	} else {
		b.WriteString("This is a simple value transfer.\n")
	}
	if len(tx.TokenTransfers) > 0 {
		fmt.Fprintf(&b, "Token transfers detected: %d ERC-20 transfers.\n", len(tx.TokenTransfers))
	}

	fmt.Fprintf(&b, "\nExplorer link: %s\n\n", tx.ChainExplorer)
	b.WriteString("Use markdown: ## for headers, **bold** for emphasis.\n\n")

	b.WriteString("Transaction data:\n")
	b.Write(mustJSON(tx))

	return b.String()
}

// buildAddressPrompt produces the analysis prompt for recent wallet
// activity on one chain.
func buildAddressPrompt(activity *chains.AccountActivity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a blockchain expert. Explain the recent activity of wallet **%s** on the **%s** network in simple, beginner-friendly English.\n\n", activity.Address, activity.Chain)

	b.WriteString("Break your answer into these sections:\n")
	b.WriteString("1. SUMMARY — what this wallet has been doing, in one sentence\n")
	b.WriteString("2. ACTIVITY — the notable recent transactions, who sent what to whom\n")
	b.WriteString("3. PATTERNS — regular payments, exchanges, contract usage\n")
	b.WriteString("4. SUSPICION CHECK — any suspicious patterns or is this normal\n\n")

	fmt.Fprintf(&b, "The wallet's %d most recent transactions are listed below, newest first.\n", len(activity.Transactions))
	fmt.Fprintf(&b, "\nExplorer link: %s\n\n", activity.Explorer)
	b.WriteString("Use markdown: ## for headers, **bold** for emphasis.\n\n")

	b.WriteString("Activity data:\n")
	b.Write(mustJSON(activity))

	return b.String()
}

func mustJSON(v any) []byte {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// The inputs are our own structs; this cannot fail at runtime.
		panic("marshal prompt data: " + err.Error())
	}
	return data
}

func formatTimestamp(ts int64) string {
	if ts == 0 {
		return "unknown"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
