// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package accounts builds the n-ary merkle tree over the hashes of the
// accounts updated in one block, and proves membership or absence of a hash
// against its root.
package accounts

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/util/hashing"
)

const (
	// DefaultFanout is the number of children Solana hashes into each node.
	DefaultFanout = 16
	MaxFanout     = 256

	// LeafPrefix and NodePrefix separate leaf hashing from node hashing when
	// TreeConfig.DomainSeparation is set.
	LeafPrefix = 0
	NodePrefix = 1
)

var (
	ErrLeafNotFound = errors.New("leaf not in tree")
	ErrLeafPresent  = errors.New("leaf is in tree")
)

// TreeConfig must be identical on the building and verifying side.
type TreeConfig struct {
	Fanout int
	Hasher hashing.Hasher
	// PadTrailing fills an under-full trailing group with EmptyChild before
	// hashing it. When false the group is hashed with only the children present.
	PadTrailing bool
	EmptyChild  common.Hash
	// EmptyRoot is the root of a tree with no leaves.
	EmptyRoot common.Hash
	// DomainSeparation enters each leaf as Hasher(LeafPrefix ++ leaf) and
	// hashes each node as Hasher(NodePrefix ++ children). Without it an
	// interior node can stand in for a leaf on a shortened path, so exclusion
	// proofs are only sound when the verifier knows the tree depth.
	DomainSeparation bool
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		Fanout:           DefaultFanout,
		Hasher:           hashing.SHA256,
		EmptyRoot:        hashing.SHA256(),
		DomainSeparation: true,
	}
}

func (c TreeConfig) Validate() error {
	if c.Fanout < 2 || c.Fanout > MaxFanout {
		return errors.Errorf("fanout %d out of range [2, %d]", c.Fanout, MaxFanout)
	}
	if c.Hasher == nil {
		return errors.New("tree config has no hasher")
	}
	return nil
}

func (c TreeConfig) hashLeaf(leaf common.Hash) common.Hash {
	if !c.DomainSeparation {
		return leaf
	}
	return c.Hasher([]byte{LeafPrefix}, leaf[:])
}

// hashNode hashes the children of one group, which must already be padded.
func (c TreeConfig) hashNode(children [][]byte) common.Hash {
	if !c.DomainSeparation {
		return c.Hasher(children...)
	}
	parts := make([][]byte, 0, len(children)+1)
	parts = append(parts, []byte{NodePrefix})
	return c.Hasher(append(parts, children...)...)
}

func (c TreeConfig) hashGroup(group []common.Hash) common.Hash {
	size := len(group)
	if c.PadTrailing {
		size = c.Fanout
	}
	parts := make([][]byte, 0, size)
	for i := range group {
		parts = append(parts, group[i][:])
	}
	for len(parts) < size {
		parts = append(parts, c.EmptyChild[:])
	}
	return c.hashNode(parts)
}

// Tree is immutable once built and safe for concurrent readers.
type Tree struct {
	cfg    TreeConfig
	leaves []common.Hash
	// levels[0] holds the hashed leaves, the last level holds only the root.
	levels [][]common.Hash
}

// BuildTree sorts leaves and builds the tree over them. Duplicate leaves are
// a structural error.
func BuildTree(cfg TreeConfig, leaves []common.Hash) (*Tree, error) {
	sorted := make([]common.Hash, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return buildTree(cfg, sorted)
}

// BuildSortedTree builds the tree over leaves that are already strictly
// ascending.
func BuildSortedTree(cfg TreeConfig, leaves []common.Hash) (*Tree, error) {
	return buildTree(cfg, append([]common.Hash(nil), leaves...))
}

// buildTree takes ownership of leaves.
func buildTree(cfg TreeConfig, leaves []common.Hash) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i := 1; i < len(leaves); i++ {
		switch bytes.Compare(leaves[i-1][:], leaves[i][:]) {
		case 0:
			return nil, errors.Wrapf(failure.ErrStructural, "duplicate leaf %v at %d", leaves[i], i)
		case 1:
			return nil, errors.Wrapf(failure.ErrStructural, "leaf %v at %d is out of order", leaves[i], i)
		}
	}
	tree := &Tree{cfg: cfg}
	if len(leaves) == 0 {
		return tree, nil
	}
	tree.leaves = leaves
	level := leaves
	if cfg.DomainSeparation {
		level = make([]common.Hash, len(leaves))
		for i := range leaves {
			level[i] = cfg.hashLeaf(leaves[i])
		}
	}
	tree.levels = append(tree.levels, level)
	for {
		next := make([]common.Hash, 0, (len(level)+cfg.Fanout-1)/cfg.Fanout)
		for start := 0; start < len(level); start += cfg.Fanout {
			end := start + cfg.Fanout
			if end > len(level) {
				end = len(level)
			}
			next = append(next, cfg.hashGroup(level[start:end]))
		}
		tree.levels = append(tree.levels, next)
		if len(next) == 1 {
			return tree, nil
		}
		level = next
	}
}

func (t *Tree) Config() TreeConfig {
	return t.cfg
}

func (t *Tree) Root() common.Hash {
	if len(t.levels) == 0 {
		return t.cfg.EmptyRoot
	}
	return t.levels[len(t.levels)-1][0]
}

func (t *Tree) Len() int {
	return len(t.leaves)
}

// Leaves returns a copy of the sorted leaves.
func (t *Tree) Leaves() []common.Hash {
	if len(t.leaves) == 0 {
		return nil
	}
	return append([]common.Hash(nil), t.leaves...)
}

// search returns the position of the first leaf >= h.
func (t *Tree) search(h common.Hash) int {
	return sort.Search(len(t.leaves), func(i int) bool {
		return !less(t.leaves[i], h)
	})
}

func (t *Tree) Contains(h common.Hash) bool {
	i := t.search(h)
	return i < t.Len() && t.leaves[i] == h
}

func (t *Tree) ProveInclusion(leaf common.Hash) (*InclusionProof, error) {
	i := t.search(leaf)
	if i >= t.Len() || t.leaves[i] != leaf {
		return nil, errors.Wrapf(ErrLeafNotFound, "%v", leaf)
	}
	return t.proveIndex(i), nil
}

func (t *Tree) proveIndex(index int) *InclusionProof {
	fanout := t.cfg.Fanout
	proof := &InclusionProof{
		Leaf:   t.leaves[index],
		Levels: make([]InclusionLevel, 0, len(t.levels)-1),
	}
	for _, level := range t.levels[:len(t.levels)-1] {
		start := (index / fanout) * fanout
		end := start + fanout
		if end > len(level) {
			end = len(level)
		}
		siblings := make([]common.Hash, 0, fanout-1)
		for i := start; i < end; i++ {
			if i != index {
				siblings = append(siblings, level[i])
			}
		}
		if t.cfg.PadTrailing {
			for len(siblings) < fanout-1 {
				siblings = append(siblings, t.cfg.EmptyChild)
			}
		}
		proof.Levels = append(proof.Levels, InclusionLevel{
			Index:    uint8(index - start),
			Siblings: siblings,
		})
		index /= fanout
	}
	return proof
}

// ProveExclusion proves candidate is not a leaf, choosing the variant from
// where candidate falls relative to the leaves.
func (t *Tree) ProveExclusion(candidate common.Hash) (ExclusionProof, error) {
	i := t.search(candidate)
	n := t.Len()
	switch {
	case i < n && t.leaves[i] == candidate:
		return nil, errors.Wrapf(ErrLeafPresent, "%v", candidate)
	case n == 0:
		return EmptyExclusion{}, nil
	case i == 0:
		return LeftExclusion{Leftmost: *t.proveIndex(0)}, nil
	case i == n:
		return RightExclusion{Rightmost: *t.proveIndex(n - 1)}, nil
	default:
		return InnerExclusion{
			Left:  *t.proveIndex(i - 1),
			Right: *t.proveIndex(i),
		}, nil
	}
}

// MembershipProof holds exactly one of an inclusion or exclusion proof.
type MembershipProof struct {
	Inclusion *InclusionProof
	Exclusion ExclusionProof
}

func (m *MembershipProof) Included() bool {
	return m.Inclusion != nil
}

// Verify checks the proof for h against root, whichever kind it is.
func (m *MembershipProof) Verify(cfg TreeConfig, h, root common.Hash) error {
	switch {
	case m.Inclusion != nil && m.Exclusion == nil:
		if m.Inclusion.Leaf != h {
			return errors.Wrapf(failure.ErrInvalidProofShape, "inclusion proof is for %v, not %v", m.Inclusion.Leaf, h)
		}
		return m.Inclusion.Verify(cfg, root)
	case m.Inclusion == nil && m.Exclusion != nil:
		return VerifyExclusion(cfg, m.Exclusion, h, root)
	default:
		return errors.Wrap(failure.ErrInvalidProofShape, "membership proof must hold exactly one of inclusion or exclusion")
	}
}

// Prove returns an inclusion proof when h is a leaf and an exclusion proof otherwise.
func (t *Tree) Prove(h common.Hash) (*MembershipProof, error) {
	if t.Contains(h) {
		inclusion, err := t.ProveInclusion(h)
		if err != nil {
			return nil, err
		}
		return &MembershipProof{Inclusion: inclusion}, nil
	}
	exclusion, err := t.ProveExclusion(h)
	if err != nil {
		return nil, err
	}
	return &MembershipProof{Exclusion: exclusion}, nil
}

func less(a, b common.Hash) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
