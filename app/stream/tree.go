package stream

import (
	"sync"
)

// Tree models the host document: a mutating collection of nodes owned by
// the host surface (HTTP ingest, feed replay). Mutations raise a change
// signal; signals arriving while one is already pending collapse into a
// single pending signal, so a burst of mutations triggers one extraction
// pass.
type Tree struct {
	mu     sync.RWMutex
	nodes  []*Node
	signal chan struct{}
}

func NewTree() *Tree {
	return &Tree{
		signal: make(chan struct{}, 1),
	}
}

// Add appends nodes to the tree and raises one change signal for the
// whole batch.
func (t *Tree) Add(nodes ...*Node) {
	if len(nodes) == 0 {
		return
	}

	t.mu.Lock()
	t.nodes = append(t.nodes, nodes...)
	t.mu.Unlock()

	t.notify()
}

// Remove drops the node with the given native ID. Returns false when no
// such node exists. Nodes without a native ID can only leave the tree
// through Clear.
func (t *Tree) Remove(nativeID string) bool {
	if nativeID == "" {
		return false
	}

	t.mu.Lock()
	removed := false
	for i, node := range t.nodes {
		if node.NativeID == nativeID {
			t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
			removed = true
			break
		}
	}
	t.mu.Unlock()

	if removed {
		t.notify()
	}
	return removed
}

// Clear empties the tree.
func (t *Tree) Clear() {
	t.mu.Lock()
	t.nodes = nil
	t.mu.Unlock()

	t.notify()
}

// Snapshot returns the current nodes in insertion order. The returned
// slice is a copy; the nodes themselves are shared and immutable.
func (t *Tree) Snapshot() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodes := make([]*Node, len(t.nodes))
	copy(nodes, t.nodes)
	return nodes
}

// NodeCount returns the number of nodes currently in the tree.
func (t *Tree) NodeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Changes returns the change-signal channel consumed by the observer.
func (t *Tree) Changes() <-chan struct{} {
	return t.signal
}

func (t *Tree) notify() {
	select {
	case t.signal <- struct{}{}:
	default:
	}
}
