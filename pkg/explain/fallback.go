package explain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lanternworks/txlens/pkg/chains"
)

// fallbackTransactionExplanation renders the raw transaction data as
// markdown when no live inference is available.
func fallbackTransactionExplanation(tx *chains.Transaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Transaction on %s\n", tx.Chain)
	fmt.Fprintf(&b, "**Hash:** %s...\n", truncate(tx.Hash, 16))
	fmt.Fprintf(&b, "**From:** %s\n", tx.From)
	fmt.Fprintf(&b, "**To:** %s\n", tx.To)
	fmt.Fprintf(&b, "**Value:** %s\n", tx.Value)
	fmt.Fprintf(&b, "**Status:** %s\n", tx.Status)
	fmt.Fprintf(&b, "**Block:** #%d\n", tx.BlockNumber)
	fmt.Fprintf(&b, "**Gas Fee:** %s\n\n", tx.GasFee)

	if tx.ChainExplorer != "" {
		fmt.Fprintf(&b, "[View on Explorer](%s)\n\n", tx.ChainExplorer)
	}

	b.WriteString("AI explanation unavailable — showing raw data.")

	return b.String()
}

// fallbackAddressExplanation renders recent wallet activity as markdown
// when no live inference is available.
func fallbackAddressExplanation(activity *chains.AccountActivity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Wallet activity on %s\n", activity.Chain)
	fmt.Fprintf(&b, "**Address:** %s\n", activity.Address)
	fmt.Fprintf(&b, "**Recent transactions:** %d\n\n", len(activity.Transactions))

	for _, tx := range activity.Transactions {
		status := ""
		if tx.Failed {
			status = " (failed)"
		}
		fmt.Fprintf(&b, "- `%s...` %s → %s, %s at %s%s\n",
			truncate(tx.Hash, 10), tx.From, tx.To, tx.Value, formatTimestamp(tx.Timestamp), status)
	}

	if activity.Explorer != "" {
		fmt.Fprintf(&b, "\n[View on Explorer](%s)\n", activity.Explorer)
	}

	b.WriteString("\nAI explanation unavailable — showing raw data.")

	return b.String()
}

// randomPaymentHash fills the payment hash slot of a MOCK proof so the
// response shape stays identical between modes.
func randomPaymentHash() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return "0x" + hex.EncodeToString(buf)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
