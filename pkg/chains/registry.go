package chains

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
)

// defaultPriority is how many chains from the top of the registry are
// probed first during a lookup. The built-in ordering puts the chains that
// see the most traffic up front.
const defaultPriority = 6

// defaultChains are the Etherscan v2 supported networks.
var defaultChains = []Chain{
	{Name: "Ethereum", ChainID: 1, Symbol: "ETH", Explorer: "https://etherscan.io"},
	{Name: "Base", ChainID: 8453, Symbol: "ETH", Explorer: "https://basescan.org"},
	{Name: "Arbitrum One", ChainID: 42161, Symbol: "ETH", Explorer: "https://arbiscan.io"},
	{Name: "Optimism", ChainID: 10, Symbol: "ETH", Explorer: "https://optimistic.etherscan.io"},
	{Name: "Polygon", ChainID: 137, Symbol: "MATIC", Explorer: "https://polygonscan.com"},
	{Name: "BNB Chain", ChainID: 56, Symbol: "BNB", Explorer: "https://bscscan.com"},
	{Name: "Avalanche C", ChainID: 43114, Symbol: "AVAX", Explorer: "https://snowscan.xyz"},
	{Name: "Fantom", ChainID: 250, Symbol: "FTM", Explorer: "https://ftmscan.com"},
	{Name: "Linea", ChainID: 59144, Symbol: "ETH", Explorer: "https://lineascan.build"},
	{Name: "Scroll", ChainID: 534352, Symbol: "ETH", Explorer: "https://scrollscan.com"},
	{Name: "Blast", ChainID: 81457, Symbol: "ETH", Explorer: "https://blastscan.io"},
	{Name: "Mantle", ChainID: 5000, Symbol: "MNT", Explorer: "https://mantlescan.xyz"},
	{Name: "Celo", ChainID: 42220, Symbol: "CELO", Explorer: "https://celoscan.io"},
	{Name: "Gnosis", ChainID: 100, Symbol: "xDAI", Explorer: "https://gnosisscan.io"},
	{Name: "Cronos", ChainID: 25, Symbol: "CRO", Explorer: "https://cronoscan.com"},
	{Name: "zkSync Era", ChainID: 324, Symbol: "ETH", Explorer: "https://explorer.zksync.io"},
	{Name: "Polygon zkEVM", ChainID: 1101, Symbol: "ETH", Explorer: "https://zkevm.polygonscan.com"},
	{Name: "Base Sepolia", ChainID: 84532, Symbol: "ETH", Explorer: "https://sepolia.basescan.org"},
	{Name: "Sepolia", ChainID: 11155111, Symbol: "ETH", Explorer: "https://sepolia.etherscan.io"},
}

// Registry holds the chain list. It can be replaced at runtime when the
// registry file changes, so reads take a copy under a read lock.
type Registry struct {
	mu       sync.RWMutex
	chains   []Chain
	priority int
}

// NewRegistry returns the built-in registry.
func NewRegistry() *Registry {
	return &Registry{
		chains:   defaultChains,
		priority: defaultPriority,
	}
}

// Chains returns a snapshot of all chains, priority ordering preserved.
func (r *Registry) Chains() []Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Chain, len(r.chains))
	copy(out, r.chains)
	return out
}

// Priority returns the chains probed first during a lookup.
func (r *Registry) Priority() []Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.priority
	if n > len(r.chains) {
		n = len(r.chains)
	}

	out := make([]Chain, n)
	copy(out, r.chains[:n])
	return out
}

// Rest returns the chains probed after the priority set.
func (r *Registry) Rest() []Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.priority >= len(r.chains) {
		return nil
	}

	out := make([]Chain, len(r.chains)-r.priority)
	copy(out, r.chains[r.priority:])
	return out
}

// ByChainID finds a chain by its id.
func (r *Registry) ByChainID(id int64) (Chain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.chains {
		if c.ChainID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// Names returns the chain names in registry order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.chains))
	for i, c := range r.chains {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of registered chains.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains)
}

// registryFile is the TOML shape of a registry override file.
type registryFile struct {
	Priority int     `toml:"priority"`
	Chains   []Chain `toml:"chains"`
}

// LoadFile replaces the registry contents from a TOML file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read registry file: %w", err)
	}

	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse registry file: %w", err)
	}

	if len(file.Chains) == 0 {
		return fmt.Errorf("registry file %s contains no chains", path)
	}

	for _, c := range file.Chains {
		if c.Name == "" || c.ChainID == 0 {
			return fmt.Errorf("registry file %s: chain entries need name and chainid", path)
		}
	}

	priority := file.Priority
	if priority <= 0 || priority > len(file.Chains) {
		priority = len(file.Chains)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains = file.Chains
	r.priority = priority

	return nil
}
