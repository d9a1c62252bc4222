// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package accounts

import (
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
)

// InclusionLevel is one step of a path from leaf to root. Index is the
// node's position within its sibling group; Siblings are the other members
// of the group in order, so the group is Siblings[:Index] ++ node ++ Siblings[Index:].
type InclusionLevel struct {
	Index    uint8
	Siblings []common.Hash
}

// InclusionProof is the path from Leaf to the root, leaf level first.
type InclusionProof struct {
	Leaf   common.Hash
	Levels []InclusionLevel
}

func (p *InclusionProof) checkShape(cfg TreeConfig) error {
	if len(p.Levels) == 0 {
		return errors.Wrap(failure.ErrInvalidProofShape, "inclusion proof has no levels")
	}
	for i, level := range p.Levels {
		if len(level.Siblings) > cfg.Fanout-1 {
			return errors.Wrapf(failure.ErrInvalidProofShape, "level %d has %d siblings, fanout is %d", i, len(level.Siblings), cfg.Fanout)
		}
		if cfg.PadTrailing && len(level.Siblings) != cfg.Fanout-1 {
			return errors.Wrapf(failure.ErrInvalidProofShape, "level %d has %d siblings, padded groups need %d", i, len(level.Siblings), cfg.Fanout-1)
		}
		if int(level.Index) > len(level.Siblings) {
			return errors.Wrapf(failure.ErrInvalidProofShape, "level %d index %d beyond %d siblings", i, level.Index, len(level.Siblings))
		}
	}
	return nil
}

// Root recomputes the root the proof commits to.
func (p *InclusionProof) Root(cfg TreeConfig) (common.Hash, error) {
	if err := cfg.Validate(); err != nil {
		return common.Hash{}, err
	}
	if err := p.checkShape(cfg); err != nil {
		return common.Hash{}, err
	}
	current := cfg.hashLeaf(p.Leaf)
	parts := make([][]byte, 0, cfg.Fanout)
	for _, level := range p.Levels {
		parts = parts[:0]
		index := int(level.Index)
		for i := range level.Siblings[:index] {
			parts = append(parts, level.Siblings[i][:])
		}
		node := current
		parts = append(parts, node[:])
		for i := index; i < len(level.Siblings); i++ {
			parts = append(parts, level.Siblings[i][:])
		}
		current = cfg.hashNode(parts)
	}
	return current, nil
}

func (p *InclusionProof) Verify(cfg TreeConfig, root common.Hash) error {
	computed, err := p.Root(cfg)
	if err != nil {
		return err
	}
	if computed != root {
		return failure.Mismatch("account tree root", root, computed)
	}
	return nil
}
