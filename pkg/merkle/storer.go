package merkle

import "context"

// Storer persists and retrieves records in the attestation log.
// Deduplication happens automatically via content-addressing: identical
// content with identical parents produces identical hashes, and a Put of an
// existing hash is a no-op.
type Storer interface {
	// Put stores a record. If the record already exists (by hash), this is a no-op.
	Put(ctx context.Context, node *Node) error

	// Get retrieves a record by its hash. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, hash string) (*Node, error)

	// Has checks if a record exists by its hash.
	Has(ctx context.Context, hash string) (bool, error)

	// GetByParent retrieves all records that have the given parent hash.
	// Pass nil to get root records (records with no parent).
	GetByParent(ctx context.Context, parentHash *string) ([]*Node, error)

	// List returns all records in the store.
	List(ctx context.Context) ([]*Node, error)

	// Roots returns all root records (records with no parent).
	Roots(ctx context.Context) ([]*Node, error)

	// Leaves returns all leaf records (records with no children).
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a record back to its root (record first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	// Descendants returns the path from root to record (root first, record last).
	Descendants(ctx context.Context, hash string) ([]*Node, error)

	// Depth returns the depth of a record (0 for roots).
	Depth(ctx context.Context, hash string) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a record doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "record not found"
	}

	return "record not found: " + e.Hash
}
