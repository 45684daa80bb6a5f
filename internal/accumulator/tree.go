package accumulator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	// DefaultHeight allows 65536 account slots.
	DefaultHeight = 16
	maxHeight     = 62
)

var ErrIndexOutOfRange = errors.New("accumulator: index out of range")

// Root is a commitment to every leaf of a tree.
type Root = fr.Element

// Proof shows that Leaf sits at Index. Siblings run from the leaf level up.
type Proof struct {
	Index    uint64       `json:"index"`
	Leaf     fr.Element   `json:"leaf"`
	Siblings []fr.Element `json:"siblings"`
}

// Tree is a sparse Merkle tree of fixed height. Unset leaves are zero.
type Tree struct {
	height int
	zeros  []fr.Element            // zeros[l] is the root of an empty subtree of height l
	levels []map[uint64]fr.Element // levels[0] holds leaves

	mu sync.RWMutex
}

// NewTree returns an empty tree with 2^height slots.
func NewTree(height int) (*Tree, error) {
	if height <= 0 || height > maxHeight {
		return nil, fmt.Errorf("accumulator: invalid height %d", height)
	}
	t := &Tree{
		height: height,
		zeros:  make([]fr.Element, height+1),
		levels: make([]map[uint64]fr.Element, height+1),
	}
	for l := 1; l <= height; l++ {
		t.zeros[l] = Compress(t.zeros[l-1], t.zeros[l-1])
	}
	for l := range t.levels {
		t.levels[l] = make(map[uint64]fr.Element)
	}
	return t, nil
}

func (t *Tree) Height() int { return t.height }

// Capacity is the number of slots.
func (t *Tree) Capacity() uint64 { return 1 << t.height }

func (t *Tree) node(level int, index uint64) fr.Element {
	if n, ok := t.levels[level][index]; ok {
		return n
	}
	return t.zeros[level]
}

// Set writes leaf at index and updates the path to the root.
func (t *Tree) Set(index uint64, leaf fr.Element) error {
	if index >= t.Capacity() {
		return fmt.Errorf("%d: %w", index, ErrIndexOutOfRange)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.levels[0][index] = leaf
	cur := leaf
	for l := 0; l < t.height; l++ {
		var parent fr.Element
		if index&1 == 0 {
			parent = Compress(cur, t.node(l, index^1))
		} else {
			parent = Compress(t.node(l, index^1), cur)
		}
		index >>= 1
		t.levels[l+1][index] = parent
		cur = parent
	}
	return nil
}

// Leaf returns the leaf at index.
func (t *Tree) Leaf(index uint64) (fr.Element, error) {
	if index >= t.Capacity() {
		return fr.Element{}, fmt.Errorf("%d: %w", index, ErrIndexOutOfRange)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.node(0, index), nil
}

// Commit returns the current root.
func (t *Tree) Commit() Root {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.node(t.height, 0)
}

// Prove returns the inclusion proof of the leaf at index.
func (t *Tree) Prove(index uint64) (Proof, error) {
	if index >= t.Capacity() {
		return Proof{}, fmt.Errorf("%d: %w", index, ErrIndexOutOfRange)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	p := Proof{Index: index, Leaf: t.node(0, index), Siblings: make([]fr.Element, t.height)}
	for l := 0; l < t.height; l++ {
		p.Siblings[l] = t.node(l, index^1)
		index >>= 1
	}
	return p, nil
}

// VerifyInclusion recomputes the root from proof.
func VerifyInclusion(root Root, proof Proof) bool {
	if len(proof.Siblings) == 0 || len(proof.Siblings) > maxHeight || proof.Index>>len(proof.Siblings) != 0 {
		return false
	}
	cur := proof.Leaf
	index := proof.Index
	for _, sib := range proof.Siblings {
		if index&1 == 0 {
			cur = Compress(cur, sib)
		} else {
			cur = Compress(sib, cur)
		}
		index >>= 1
	}
	return cur.Equal(&root)
}
