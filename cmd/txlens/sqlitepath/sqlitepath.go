// Package sqlitepath resolves the local attestation log location shared by
// the CLI subcommands.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveSQLitePath returns the explicit path when one was given, otherwise
// the default ~/.txlens/txlens.db, creating the directory if needed.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if env := os.Getenv("TXLENS_DB"); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".txlens")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}

	return filepath.Join(dir, "txlens.db"), nil
}
