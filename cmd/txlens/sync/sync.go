package synccmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lanternworks/txlens/cmd/txlens/sqlitepath"
	"github.com/lanternworks/txlens/pkg/merkle"
	"github.com/lanternworks/txlens/pkg/storage/sqlite"
)

const syncLongDesc string = `Push local attestation records to a remote txlens server.

Reads every record from the local SQLite attestation log and POSTs
them to the remote server's /attest/records endpoint.
Content-addressing deduplicates on the server side, so syncing is
always safe to repeat.

Examples:
  txlens sync http://192.168.1.42:10000
  txlens sync --sqlite ~/.txlens/txlens.db https://txlens.example.com`

const syncShortDesc string = "Push records to a remote txlens server"

type syncCommander struct {
	sqlitePath string
	batchSize  int
}

type importResponse struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Errors    int `json:"errors"`
}

func NewSyncCmd() *cobra.Command {
	cmder := &syncCommander{}

	cmd := &cobra.Command{
		Use:   "sync <server-url>",
		Short: syncShortDesc,
		Long:  syncLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to local SQLite attestation log")
	cmd.Flags().IntVar(&cmder.batchSize, "batch-size", 500, "Records per HTTP request")

	return cmd
}

func (c *syncCommander) run(ctx context.Context, cmd *cobra.Command, serverURL string) error {
	serverURL = strings.TrimRight(serverURL, "/")

	dbPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("could not resolve local attestation log: %w", err)
	}

	driver, err := sqlite.NewDriver(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("could not open local attestation log %s: %w", dbPath, err)
	}
	defer driver.Close()

	records, err := driver.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list local records: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No local records to sync.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Syncing %d records from %s to %s\n", len(records), dbPath, serverURL)

	var totalNew, totalDup, totalErr int

	for i := 0; i < len(records); i += c.batchSize {
		end := i + c.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		resp, err := c.postBatch(serverURL, batch)
		if err != nil {
			return fmt.Errorf("sync failed on batch %d-%d: %w", i, end-1, err)
		}

		totalNew += resp.New
		totalDup += resp.Duplicate
		totalErr += resp.Errors
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d new records (%d already existed, %d errors)\n",
		totalNew, totalDup, totalErr)

	return nil
}

func (c *syncCommander) postBatch(serverURL string, records []*merkle.Node) (*importResponse, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("could not marshal records: %w", err)
	}

	resp, err := http.Post(serverURL+"/attest/records", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result importResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	return &result, nil
}
