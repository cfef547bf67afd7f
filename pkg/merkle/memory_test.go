package merkle_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lanternworks/txlens/pkg/merkle"
)

var _ = Describe("MemoryStorer", func() {
	var (
		storer *merkle.MemoryStorer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = merkle.NewMemoryStorer()
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a record", func() {
			node := merkle.NewNode("query content", nil)

			Expect(storer.Put(ctx, node)).To(Succeed())

			retrieved, err := storer.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Hash).To(Equal(node.Hash))
			Expect(retrieved.Content).To(Equal(node.Content))
			Expect(retrieved.ParentHash).To(BeNil())
		})

		It("stores and retrieves a record with parent", func() {
			parent := merkle.NewNode("query", nil)
			child := merkle.NewNode("explanation", parent)

			Expect(storer.Put(ctx, parent)).To(Succeed())
			Expect(storer.Put(ctx, child)).To(Succeed())

			retrieved, err := storer.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ParentHash).NotTo(BeNil())
			Expect(*retrieved.ParentHash).To(Equal(parent.Hash))
		})

		It("returns ErrNotFound for non-existent hash", func() {
			_, err := storer.Get(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())

			var notFoundErr merkle.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("is idempotent for duplicate puts", func() {
			node := merkle.NewNode("query", nil)

			Expect(storer.Put(ctx, node)).To(Succeed())
			Expect(storer.Put(ctx, node)).To(Succeed())

			nodes, _ := storer.List(ctx)
			Expect(nodes).To(HaveLen(1))
		})

		It("rejects nil records", func() {
			err := storer.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("nil node"))
		})
	})

	Describe("Has", func() {
		It("reports existing and missing records", func() {
			node := merkle.NewNode("query", nil)
			Expect(storer.Put(ctx, node)).To(Succeed())

			exists, err := storer.Has(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = storer.Has(ctx, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("Roots and Leaves", func() {
		It("classifies a two-record analysis chain", func() {
			query := merkle.NewNode("query", nil)
			explanation := merkle.NewNode("explanation", query)

			Expect(storer.Put(ctx, query)).To(Succeed())
			Expect(storer.Put(ctx, explanation)).To(Succeed())

			roots, err := storer.Roots(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(1))
			Expect(roots[0].Hash).To(Equal(query.Hash))

			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(1))
			Expect(leaves[0].Hash).To(Equal(explanation.Hash))
		})

		It("treats divergent explanations as branches", func() {
			query := merkle.NewNode("query", nil)
			explA := merkle.NewNode("explanation A", query)
			explB := merkle.NewNode("explanation B", query)

			Expect(storer.Put(ctx, query)).To(Succeed())
			Expect(storer.Put(ctx, explA)).To(Succeed())
			Expect(storer.Put(ctx, explB)).To(Succeed())

			roots, _ := storer.Roots(ctx)
			leaves, _ := storer.Leaves(ctx)
			Expect(roots).To(HaveLen(1))
			Expect(leaves).To(HaveLen(2))
		})
	})

	Describe("Ancestry, Descendants and Depth", func() {
		var query, explanation, followup *merkle.Node

		BeforeEach(func() {
			query = merkle.NewNode("query", nil)
			explanation = merkle.NewNode("explanation", query)
			followup = merkle.NewNode("follow-up", explanation)

			Expect(storer.Put(ctx, query)).To(Succeed())
			Expect(storer.Put(ctx, explanation)).To(Succeed())
			Expect(storer.Put(ctx, followup)).To(Succeed())
		})

		It("walks from a record back to its root", func() {
			path, err := storer.Ancestry(ctx, followup.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(3))
			Expect(path[0].Hash).To(Equal(followup.Hash))
			Expect(path[2].Hash).To(Equal(query.Hash))
		})

		It("walks from root to record", func() {
			path, err := storer.Descendants(ctx, followup.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(3))
			Expect(path[0].Hash).To(Equal(query.Hash))
			Expect(path[2].Hash).To(Equal(followup.Hash))
		})

		It("reports depth relative to the root", func() {
			Expect(storer.Depth(ctx, query.Hash)).To(Equal(0))
			Expect(storer.Depth(ctx, followup.Hash)).To(Equal(2))
		})
	})
})
