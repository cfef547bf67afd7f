package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration. Values come from defaults, then an
// optional TOML file, then environment variables, in that order.
type Config struct {
	// Address to listen on (e.g., ":10000")
	ListenAddr string `toml:"listen"`

	// DBPath is the SQLite database holding the attestation log.
	// Empty means in-memory.
	DBPath string `toml:"db_path"`

	// ChainsFile optionally overrides the built-in chain registry and is
	// hot-reloaded when it changes.
	ChainsFile string `toml:"chains_file"`

	Debug    bool   `toml:"debug"`
	LogLevel string `toml:"log_level"`

	OpenGradient OpenGradientConfig `toml:"opengradient"`
	Etherscan    EtherscanConfig    `toml:"etherscan"`
}

// OpenGradientConfig configures the inference network client.
type OpenGradientConfig struct {
	BaseURL     string  `toml:"base_url"`
	PrivateKey  string  `toml:"private_key"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	RetryMax    int     `toml:"retry_max"`
}

// EtherscanConfig configures the multi-chain explorer client.
type EtherscanConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":10000",
		LogLevel:   "info",
		OpenGradient: OpenGradientConfig{
			MaxTokens:   600,
			Temperature: 0.3,
			RetryMax:    2,
		},
		Etherscan: EtherscanConfig{
			TimeoutSeconds: 8,
		},
	}
}

// LoadConfig builds the effective configuration. path may be empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers environment variables over the file values. The variable
// names match what the deployment platforms of this app conventionally set.
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.ListenAddr = ":" + strings.TrimPrefix(port, ":")
	}
	if key := os.Getenv("OG_PRIVATE_KEY"); key != "" {
		c.OpenGradient.PrivateKey = key
	}
	if key := os.Getenv("ETHERSCAN_API_KEY"); key != "" {
		c.Etherscan.APIKey = key
	}
	if db := os.Getenv("TXLENS_DB"); db != "" {
		c.DBPath = db
	}
}
