package merkle

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStorer is an in-memory Storer. It is the default backend when no
// SQLite path is configured and the backend used by most tests.
type MemoryStorer struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	// children counts Puts per parent hash so Leaves stays O(n)
	children map[string]int
}

var _ Storer = (*MemoryStorer)(nil)

// NewMemoryStorer creates an empty in-memory store.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{
		nodes:    make(map[string]*Node),
		children: make(map[string]int),
	}
}

func (s *MemoryStorer) Put(_ context.Context, node *Node) error {
	if node == nil {
		return fmt.Errorf("cannot store nil node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node.Hash]; exists {
		return nil
	}

	s.nodes[node.Hash] = node
	if node.ParentHash != nil {
		s.children[*node.ParentHash]++
	}

	return nil
}

func (s *MemoryStorer) Get(_ context.Context, hash string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}

	return node, nil
}

func (s *MemoryStorer) Has(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodes[hash]
	return ok, nil
}

func (s *MemoryStorer) GetByParent(_ context.Context, parentHash *string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Node
	for _, node := range s.nodes {
		if parentHash == nil {
			if node.ParentHash == nil {
				result = append(result, node)
			}
		} else if node.ParentHash != nil && *node.ParentHash == *parentHash {
			result = append(result, node)
		}
	}

	return result, nil
}

func (s *MemoryStorer) List(_ context.Context) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		result = append(result, node)
	}

	return result, nil
}

func (s *MemoryStorer) Roots(ctx context.Context) ([]*Node, error) {
	return s.GetByParent(ctx, nil)
}

func (s *MemoryStorer) Leaves(_ context.Context) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Node
	for hash, node := range s.nodes {
		if s.children[hash] == 0 {
			result = append(result, node)
		}
	}

	return result, nil
}

func (s *MemoryStorer) Ancestry(_ context.Context, hash string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}

	var path []*Node
	for node != nil {
		path = append(path, node)
		if node.ParentHash == nil {
			break
		}

		parent, ok := s.nodes[*node.ParentHash]
		if !ok {
			return nil, ErrNotFound{Hash: *node.ParentHash}
		}
		node = parent
	}

	return path, nil
}

func (s *MemoryStorer) Descendants(ctx context.Context, hash string) ([]*Node, error) {
	ancestry, err := s.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}

	// Reverse: root first, record last
	for i, j := 0, len(ancestry)-1; i < j; i, j = i+1, j-1 {
		ancestry[i], ancestry[j] = ancestry[j], ancestry[i]
	}

	return ancestry, nil
}

func (s *MemoryStorer) Depth(ctx context.Context, hash string) (int, error) {
	ancestry, err := s.Ancestry(ctx, hash)
	if err != nil {
		return 0, err
	}

	return len(ancestry) - 1, nil
}

func (s *MemoryStorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]*Node)
	s.children = make(map[string]int)
	return nil
}
