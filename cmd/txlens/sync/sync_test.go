package synccmder

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/lanternworks/txlens/pkg/merkle"
	"github.com/lanternworks/txlens/pkg/storage/sqlite"
	"github.com/lanternworks/txlens/server"
)

var _ = Describe("Sync Command", func() {
	var (
		ctx       context.Context
		tmpDir    string
		localPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "txlens-sync-test-*")
		Expect(err).NotTo(HaveOccurred())
		localPath = filepath.Join(tmpDir, "local.db")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	makeQueryRecord := func(txHash string) *merkle.Node {
		return merkle.NewNode(map[string]any{
			"type":  "query",
			"kind":  "transaction",
			"query": txHash,
			"chain": "Ethereum",
			"model": "GEMINI_2_5_FLASH",
		}, nil)
	}

	startServer := func() (string, func()) {
		cfg := server.DefaultConfig()
		cfg.Etherscan.BaseURL = "http://127.0.0.1:0"

		srv, err := server.New(cfg, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr := "http://" + listener.Addr().String()
		cleanup := func() {
			srv.Close()
		}
		return addr, cleanup
	}

	recordCount := func(addr string) int {
		resp, err := http.Get(addr + "/attest/stats")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var stats struct {
			TotalNodes int `json:"total_nodes"`
		}
		Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
		return stats.TotalNodes
	}

	It("syncs local records to a remote server", func() {
		local, err := sqlite.NewDriver(ctx, localPath)
		Expect(err).NotTo(HaveOccurred())
		recordA := makeQueryRecord("0xaaa111")
		recordB := merkle.NewNode(map[string]any{
			"type":        "explanation",
			"explanation": "moved 1 ETH between two wallets",
		}, recordA)
		_, err = local.Put(ctx, recordA)
		Expect(err).NotTo(HaveOccurred())
		_, err = local.Put(ctx, recordB)
		Expect(err).NotTo(HaveOccurred())
		local.Close()

		addr, cleanup := startServer()
		defer cleanup()

		cmd := NewSyncCmd()
		cmd.SetArgs([]string{"--sqlite", localPath, addr})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		Expect(recordCount(addr)).To(Equal(2))
	})

	It("deduplicates on double sync", func() {
		local, err := sqlite.NewDriver(ctx, localPath)
		Expect(err).NotTo(HaveOccurred())
		_, err = local.Put(ctx, makeQueryRecord("0xdedup"))
		Expect(err).NotTo(HaveOccurred())
		local.Close()

		addr, cleanup := startServer()
		defer cleanup()

		cmd1 := NewSyncCmd()
		cmd1.SetArgs([]string{"--sqlite", localPath, addr})
		Expect(cmd1.ExecuteContext(ctx)).To(Succeed())

		cmd2 := NewSyncCmd()
		cmd2.SetArgs([]string{"--sqlite", localPath, addr})
		Expect(cmd2.ExecuteContext(ctx)).To(Succeed())

		Expect(recordCount(addr)).To(Equal(1))
	})
})
