// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package accounts

import (
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
)

// ExclusionProof is one of EmptyExclusion, LeftExclusion, RightExclusion or
// InnerExclusion.
type ExclusionProof interface {
	exclusionProof()
}

// EmptyExclusion proves absence from a tree with no leaves.
type EmptyExclusion struct{}

// LeftExclusion proves the candidate sorts before the leftmost leaf.
type LeftExclusion struct {
	Leftmost InclusionProof
}

// RightExclusion proves the candidate sorts after the rightmost leaf.
type RightExclusion struct {
	Rightmost InclusionProof
}

// InnerExclusion proves the candidate falls between two adjacent leaves.
type InnerExclusion struct {
	Left  InclusionProof
	Right InclusionProof
}

func (EmptyExclusion) exclusionProof() {}
func (LeftExclusion) exclusionProof()  {}
func (RightExclusion) exclusionProof() {}
func (InnerExclusion) exclusionProof() {}

// VerifyExclusion checks that candidate is not a leaf of the tree with the given root.
func VerifyExclusion(cfg TreeConfig, proof ExclusionProof, candidate, root common.Hash) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch p := proof.(type) {
	case EmptyExclusion:
		if root != cfg.EmptyRoot {
			return failure.Mismatch("empty tree root", root, cfg.EmptyRoot)
		}
		return nil
	case LeftExclusion:
		return verifyLeft(cfg, &p, candidate, root)
	case RightExclusion:
		return verifyRight(cfg, &p, candidate, root)
	case InnerExclusion:
		return verifyInner(cfg, &p, candidate, root)
	case nil:
		return errors.Wrap(failure.ErrInvalidProofShape, "missing exclusion proof")
	default:
		return errors.Wrapf(failure.ErrInvalidProofShape, "unknown exclusion proof %T", proof)
	}
}

func verifyLeft(cfg TreeConfig, p *LeftExclusion, candidate, root common.Hash) error {
	if !less(candidate, p.Leftmost.Leaf) {
		return errors.Wrapf(failure.ErrInvalidProofShape, "candidate %v does not sort before leftmost leaf %v", candidate, p.Leftmost.Leaf)
	}
	for i, level := range p.Leftmost.Levels {
		if level.Index != 0 {
			return errors.Wrapf(failure.ErrInvalidProofShape, "leftmost leaf is at index %d on level %d", level.Index, i)
		}
	}
	return p.Leftmost.Verify(cfg, root)
}

func verifyRight(cfg TreeConfig, p *RightExclusion, candidate, root common.Hash) error {
	if !less(p.Rightmost.Leaf, candidate) {
		return errors.Wrapf(failure.ErrInvalidProofShape, "candidate %v does not sort after rightmost leaf %v", candidate, p.Rightmost.Leaf)
	}
	for i, level := range p.Rightmost.Levels {
		if !isLastInGroup(cfg, level) {
			return errors.Wrapf(failure.ErrInvalidProofShape, "rightmost leaf is not last in its group on level %d", i)
		}
	}
	return p.Rightmost.Verify(cfg, root)
}

func isLastInGroup(cfg TreeConfig, level InclusionLevel) bool {
	if int(level.Index) > len(level.Siblings) {
		return false
	}
	if !cfg.PadTrailing {
		return int(level.Index) == len(level.Siblings)
	}
	for _, sibling := range level.Siblings[level.Index:] {
		if sibling != cfg.EmptyChild {
			return false
		}
	}
	return true
}

type adjacency int

const (
	belowMerge adjacency = iota
	merged
)

func verifyInner(cfg TreeConfig, p *InnerExclusion, candidate, root common.Hash) error {
	if len(p.Left.Levels) == 0 || len(p.Left.Levels) != len(p.Right.Levels) {
		return errors.Wrapf(failure.ErrAdjacencyViolation, "path lengths %d and %d", len(p.Left.Levels), len(p.Right.Levels))
	}
	if !less(p.Left.Leaf, candidate) || !less(candidate, p.Right.Leaf) {
		return errors.Wrapf(failure.ErrInvalidProofShape, "candidate %v is not between %v and %v", candidate, p.Left.Leaf, p.Right.Leaf)
	}

	// Below the merge level the two nodes are last and first of neighbouring
	// groups. At the merge level they are neighbours in one group, and above
	// it the two paths are the same path.
	subtree := -(cfg.Fanout - 1)
	state := belowMerge
	for i := range p.Left.Levels {
		left, right := p.Left.Levels[i], p.Right.Levels[i]
		diff := int(right.Index) - int(left.Index)
		switch {
		case state == belowMerge && diff == subtree:
		case state == belowMerge && diff == 1:
			state = merged
		case state == merged && diff == 0 && sameSiblings(left.Siblings, right.Siblings):
		default:
			return errors.Wrapf(failure.ErrAdjacencyViolation, "paths diverge on level %d (indices %d and %d)", i, left.Index, right.Index)
		}
	}
	if state != merged {
		return errors.Wrap(failure.ErrAdjacencyViolation, "paths never merge")
	}

	if err := p.Left.Verify(cfg, root); err != nil {
		return errors.Wrap(err, "left neighbour")
	}
	if err := p.Right.Verify(cfg, root); err != nil {
		return errors.Wrap(err, "right neighbour")
	}
	return nil
}

func sameSiblings(a, b []common.Hash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
