package mergecmder

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lanternworks/txlens/pkg/merkle"
	"github.com/lanternworks/txlens/pkg/storage/sqlite"
)

var _ = Describe("Merge Command", func() {
	var (
		ctx     context.Context
		tmpDir  string
		srcPath string
		dstPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "txlens-merge-test-*")
		Expect(err).NotTo(HaveOccurred())
		srcPath = filepath.Join(tmpDir, "source.db")
		dstPath = filepath.Join(tmpDir, "target.db")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	makeRecord := func(query string, parent *merkle.Node) *merkle.Node {
		return merkle.NewNode(map[string]any{
			"type":  "query",
			"kind":  "transaction",
			"query": query,
		}, parent)
	}

	It("merges records from source into target", func() {
		src, err := sqlite.NewDriver(ctx, srcPath)
		Expect(err).NotTo(HaveOccurred())
		recordA := makeRecord("0xsource1", nil)
		recordB := makeRecord("0xsource2", recordA)
		_, err = src.Put(ctx, recordA)
		Expect(err).NotTo(HaveOccurred())
		_, err = src.Put(ctx, recordB)
		Expect(err).NotTo(HaveOccurred())
		src.Close()

		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		_, err = dst.Put(ctx, makeRecord("0xtarget", nil))
		Expect(err).NotTo(HaveOccurred())
		dst.Close()

		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		dst, err = sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()
		records, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
	})

	It("deduplicates when merging the same source twice", func() {
		src, err := sqlite.NewDriver(ctx, srcPath)
		Expect(err).NotTo(HaveOccurred())
		_, err = src.Put(ctx, makeRecord("0xdedup", nil))
		Expect(err).NotTo(HaveOccurred())
		src.Close()

		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		dst.Close()

		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		cmd2 := NewMergeCmd()
		cmd2.SetArgs([]string{"--sqlite", dstPath, srcPath})
		Expect(cmd2.ExecuteContext(ctx)).To(Succeed())

		dst, err = sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()
		records, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})

	It("merges multiple sources", func() {
		src2Path := filepath.Join(tmpDir, "source2.db")

		src1, err := sqlite.NewDriver(ctx, srcPath)
		Expect(err).NotTo(HaveOccurred())
		_, err = src1.Put(ctx, makeRecord("0xfromsource1", nil))
		Expect(err).NotTo(HaveOccurred())
		src1.Close()

		src2, err := sqlite.NewDriver(ctx, src2Path)
		Expect(err).NotTo(HaveOccurred())
		_, err = src2.Put(ctx, makeRecord("0xfromsource2", nil))
		Expect(err).NotTo(HaveOccurred())
		src2.Close()

		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		dst.Close()

		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath, src2Path})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		dst, err = sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()
		records, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
	})
})
