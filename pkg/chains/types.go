// Package chains looks up transactions and account activity across EVM
// chains through the Etherscan v2 API, which multiplexes many chains behind
// a single endpoint via a chainid parameter.
package chains

// Chain describes one EVM network in the registry.
type Chain struct {
	Name     string `toml:"name" json:"name"`
	ChainID  int64  `toml:"chainid" json:"chainid"`
	Symbol   string `toml:"symbol" json:"symbol"`
	Explorer string `toml:"explorer" json:"explorer"`
}

// TokenTransfer is one ERC-20 transfer decoded from a receipt log.
type TokenTransfer struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// Transaction is a normalized view of an on-chain transaction, with
// human-readable value and fee strings ready for the explainer prompt.
type Transaction struct {
	Hash           string          `json:"hash"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	Value          string          `json:"value"`
	GasUsed        uint64          `json:"gasUsed"`
	GasPrice       string          `json:"gasPrice"`
	GasFee         string          `json:"gasFee"`
	BlockNumber    uint64          `json:"block"`
	Status         string          `json:"status"`
	Chain          string          `json:"chain"`
	ChainExplorer  string          `json:"chainExplorer"`
	Symbol         string          `json:"symbol,omitempty"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers"`
	IsContractCall bool            `json:"isContractCall,omitempty"`
	InputData      string          `json:"inputData,omitempty"`
	Nonce          uint64          `json:"nonce,omitempty"`
}

// AccountTx is one entry of an account's recent transaction list.
type AccountTx struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
	Failed    bool   `json:"failed"`
}

// AccountActivity is the recent activity of one address on one chain.
type AccountActivity struct {
	Address      string      `json:"address"`
	Chain        string      `json:"chain"`
	Explorer     string      `json:"explorer"`
	Transactions []AccountTx `json:"transactions"`
}

// NewUnknownTransaction is the fallback when a hash isn't found on any
// chain: the explainer still runs, over a transaction with no known fields.
func NewUnknownTransaction(txHash string) *Transaction {
	return &Transaction{
		Hash:           txHash,
		From:           "unknown",
		To:             "unknown",
		Value:          "unknown",
		GasPrice:       "unknown",
		GasFee:         "unknown",
		Status:         "Unknown",
		Chain:          "Unknown",
		Symbol:         "ETH",
		TokenTransfers: []TokenTransfer{},
		InputData:      "0x",
	}
}
