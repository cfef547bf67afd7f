package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lanternworks/txlens/pkg/merkle"
	"github.com/lanternworks/txlens/pkg/storage/sqlite"
)

var _ = Describe("Driver", func() {
	var (
		driver *sqlite.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		driver, err = sqlite.NewDriver(ctx, ":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("NewDriver", func() {
		It("creates a driver with an in-memory database", func() {
			Expect(driver).NotTo(BeNil())
		})

		It("creates the database file on disk", func() {
			tmpDir := GinkgoT().TempDir()
			dbPath := filepath.Join(tmpDir, "test.db")

			d, err := sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			// Exercise a write so the file materializes
			_, err = d.Put(ctx, merkle.NewNode("query", nil))
			Expect(err).NotTo(HaveOccurred())

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a record", func() {
			node := merkle.NewNode("query content", nil)

			isNew, err := driver.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			retrieved, err := driver.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Hash).To(Equal(node.Hash))
			Expect(retrieved.Content).To(Equal(node.Content))
			Expect(retrieved.ParentHash).To(BeNil())
		})

		It("round-trips parent links", func() {
			parent := merkle.NewNode("query", nil)
			child := merkle.NewNode("explanation", parent)

			_, err := driver.Put(ctx, parent)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Put(ctx, child)
			Expect(err).NotTo(HaveOccurred())

			retrieved, err := driver.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ParentHash).NotTo(BeNil())
			Expect(*retrieved.ParentHash).To(Equal(parent.Hash))
		})

		It("reports duplicates instead of inserting twice", func() {
			node := merkle.NewNode("query", nil)

			isNew, err := driver.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			isNew, err = driver.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			nodes, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(1))
		})

		It("returns ErrNotFound for a missing hash", func() {
			_, err := driver.Get(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())

			var notFoundErr merkle.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("rejects nil records", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("nil node"))
		})
	})

	Describe("traversal", func() {
		var query, explanation *merkle.Node

		BeforeEach(func() {
			query = merkle.NewNode(map[string]any{"type": "query", "tx_hash": "0xabc"}, nil)
			explanation = merkle.NewNode(map[string]any{"type": "explanation"}, query)

			_, err := driver.Put(ctx, query)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Put(ctx, explanation)
			Expect(err).NotTo(HaveOccurred())
		})

		It("finds roots and leaves", func() {
			roots, err := driver.Roots(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(1))
			Expect(roots[0].Hash).To(Equal(query.Hash))

			leaves, err := driver.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(1))
			Expect(leaves[0].Hash).To(Equal(explanation.Hash))
		})

		It("finds children by parent hash", func() {
			children, err := driver.GetByParent(ctx, &query.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(1))
			Expect(children[0].Hash).To(Equal(explanation.Hash))
		})

		It("walks ancestry and descendants", func() {
			up, err := driver.Ancestry(ctx, explanation.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(up).To(HaveLen(2))
			Expect(up[0].Hash).To(Equal(explanation.Hash))
			Expect(up[1].Hash).To(Equal(query.Hash))

			down, err := driver.Descendants(ctx, explanation.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(down[0].Hash).To(Equal(query.Hash))
			Expect(down[1].Hash).To(Equal(explanation.Hash))
		})

		It("reports record depth", func() {
			Expect(driver.Depth(ctx, query.Hash)).To(Equal(0))
			Expect(driver.Depth(ctx, explanation.Hash)).To(Equal(1))
		})
	})

	Describe("Storer adapter", func() {
		It("satisfies the merkle.Storer interface", func() {
			var storer merkle.Storer = driver.Storer()

			node := merkle.NewNode("query", nil)
			Expect(storer.Put(ctx, node)).To(Succeed())

			exists, err := storer.Has(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})
	})
})
