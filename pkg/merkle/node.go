// Package merkle implements the content-addressed attestation log.
//
// Every analysis the service performs is recorded as a short chain of
// records: the query that was asked, then the explanation that was produced
// together with its inference proof. Records are identified by the SHA-256
// of their content plus their parent hash, so identical analyses
// deduplicate automatically and the log can be merged across machines
// without coordination.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Node is a single content-addressed record in the attestation log.
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous record. Nil for root records
	// (the query record that starts an analysis).
	ParentHash *string `json:"parent_hash"`

	// Content is the hashable payload of the record.
	Content any `json:"content"`
}

// input is the canonical form fed to the hash. Parent is folded in so the
// same content under a different parent yields a different record.
type input struct {
	Parent  string `json:"parent,omitempty"`
	Content any    `json:"content"`
}

// NewNode creates a record with the computed hash for the provided content.
func NewNode(content any, parent *Node) *Node {
	n := &Node{
		Content: content,
	}

	if parent != nil {
		n.ParentHash = &parent.Hash
	}

	n.Hash = n.computeHash()
	return n
}

// Verify recomputes the hash from the record's parent and content and
// checks it against the stored hash. Imported records that fail this check
// were tampered with or corrupted in transit.
func (n *Node) Verify() bool {
	return n.computeHash() == n.Hash
}

func (n *Node) computeHash() string {
	i := &input{
		Content: n.Content,
	}

	if n.ParentHash != nil {
		i.Parent = *n.ParentHash
	}

	// Canonical JSON encoding for deterministic hashing
	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
