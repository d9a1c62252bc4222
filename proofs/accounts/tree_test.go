// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package accounts

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/util/hashing"
	"github.com/offchainlabs/anchorproof/util/testhelpers"
)

func paddedConfig() TreeConfig {
	cfg := DefaultTreeConfig()
	cfg.PadTrailing = true
	cfg.EmptyChild = hashing.SHA256([]byte("empty"))
	return cfg
}

func rawConfig() TreeConfig {
	cfg := DefaultTreeConfig()
	cfg.DomainSeparation = false
	return cfg
}

func configs() map[string]TreeConfig {
	return map[string]TreeConfig{
		"unpadded": DefaultTreeConfig(),
		"padded":   paddedConfig(),
		"raw":      rawConfig(),
	}
}

func hashes(h []common.Hash) [][]byte {
	ret := make([][]byte, 0, len(h))
	for i := range h {
		ret = append(ret, h[i][:])
	}
	return ret
}

func repeat(h common.Hash, n int) []common.Hash {
	ret := make([]common.Hash, n)
	for i := range ret {
		ret[i] = h
	}
	return ret
}

func TestEmptyTree(t *testing.T) {
	tree, err := BuildTree(DefaultTreeConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, hashing.SHA256(), tree.Root())
	require.Equal(t, 0, tree.Len())
	require.Empty(t, tree.Leaves())
	require.False(t, tree.Contains(common.Hash{}))

	_, err = tree.ProveInclusion(common.Hash{1})
	require.ErrorIs(t, err, ErrLeafNotFound)
}

func leafNode(h common.Hash) common.Hash {
	return hashing.SHA256([]byte{LeafPrefix}, h[:])
}

func innerNode(children ...common.Hash) common.Hash {
	return hashing.SHA256(append([][]byte{{NodePrefix}}, hashes(children)...)...)
}

func leafNodes(leaves []common.Hash) []common.Hash {
	ret := make([]common.Hash, len(leaves))
	for i := range leaves {
		ret[i] = leafNode(leaves[i])
	}
	return ret
}

func TestRootByHand(t *testing.T) {
	source := testhelpers.NewPseudoRandomDataSource(t, 1)
	leaves := source.GetLeaves(17)

	single, err := BuildTree(DefaultTreeConfig(), leaves[:1])
	require.NoError(t, err)
	require.Equal(t, innerNode(leafNode(leaves[0])), single.Root())

	full, err := BuildTree(DefaultTreeConfig(), leaves[:16])
	require.NoError(t, err)
	require.Equal(t, innerNode(leafNodes(leaves[:16])...), full.Root())

	tree, err := BuildTree(DefaultTreeConfig(), leaves)
	require.NoError(t, err)
	n0 := innerNode(leafNodes(leaves[:16])...)
	n1 := innerNode(leafNode(leaves[16]))
	require.Equal(t, innerNode(n0, n1), tree.Root())

	cfg := paddedConfig()
	padded, err := BuildTree(cfg, leaves)
	require.NoError(t, err)
	p1 := innerNode(append([]common.Hash{leafNode(leaves[16])}, repeat(cfg.EmptyChild, 15)...)...)
	require.Equal(t, innerNode(append([]common.Hash{n0, p1}, repeat(cfg.EmptyChild, 14)...)...), padded.Root())

	// Without domain separation a node is the plain hash of its children.
	raw, err := BuildTree(rawConfig(), leaves)
	require.NoError(t, err)
	r0 := hashing.SHA256(hashes(leaves[:16])...)
	r1 := hashing.SHA256(leaves[16][:])
	require.Equal(t, hashing.SHA256(r0[:], r1[:]), raw.Root())
}

func TestBuiltTreeOwnsItsLeaves(t *testing.T) {
	for name, cfg := range configs() {
		t.Run(name, func(t *testing.T) {
			source := testhelpers.NewPseudoRandomDataSource(t, 5)
			leaves := source.GetLeaves(20)
			tree, err := BuildSortedTree(cfg, leaves)
			require.NoError(t, err)
			root := tree.Root()
			first := leaves[0]

			leaves[0] = common.Hash{}
			leaves[19] = common.MaxHash
			require.Equal(t, root, tree.Root())
			require.Equal(t, first, tree.Leaves()[0])
			require.True(t, tree.Contains(first))
			proof, err := tree.ProveInclusion(first)
			require.NoError(t, err)
			require.NoError(t, proof.Verify(cfg, root))
		})
	}
}

func TestBuildTreeStructural(t *testing.T) {
	source := testhelpers.NewPseudoRandomDataSource(t, 2)
	leaves := source.GetLeaves(5)

	reversed := make([]common.Hash, 0, len(leaves))
	for i := len(leaves) - 1; i >= 0; i-- {
		reversed = append(reversed, leaves[i])
	}
	sorted, err := BuildSortedTree(DefaultTreeConfig(), leaves)
	require.NoError(t, err)
	tree, err := BuildTree(DefaultTreeConfig(), reversed)
	require.NoError(t, err)
	require.Equal(t, sorted.Root(), tree.Root())
	if diff := cmp.Diff(leaves, tree.Leaves()); diff != "" {
		t.Errorf("leaves not sorted: %s", diff)
	}

	_, err = BuildSortedTree(DefaultTreeConfig(), reversed)
	require.ErrorIs(t, err, failure.ErrStructural)

	_, err = BuildTree(DefaultTreeConfig(), append(leaves, leaves[2]))
	require.ErrorIs(t, err, failure.ErrStructural)

	bad := DefaultTreeConfig()
	bad.Fanout = 1
	_, err = BuildTree(bad, leaves)
	require.Error(t, err)
	bad.Fanout = 257
	_, err = BuildTree(bad, leaves)
	require.Error(t, err)
}

func TestInclusionBoundaries(t *testing.T) {
	for name, cfg := range configs() {
		for _, size := range []int{1, 2, 15, 16, 17, 255, 256, 257, 300} {
			t.Run(fmt.Sprintf("%s/%d", name, size), func(t *testing.T) {
				source := testhelpers.NewPseudoRandomDataSource(t, size)
				leaves := source.GetLeaves(size)
				tree, err := BuildSortedTree(cfg, leaves)
				require.NoError(t, err)
				root := tree.Root()
				for _, leaf := range leaves {
					proof, err := tree.ProveInclusion(leaf)
					require.NoError(t, err)
					require.NotEmpty(t, proof.Levels)
					require.NoError(t, proof.Verify(cfg, root))
				}
				_, err = tree.ProveInclusion(source.GetHash())
				require.ErrorIs(t, err, ErrLeafNotFound)
			})
		}
	}
}

func TestInclusionTampering(t *testing.T) {
	cfg := DefaultTreeConfig()
	source := testhelpers.NewPseudoRandomDataSource(t, 3)
	tree, err := BuildTree(cfg, source.GetLeaves(40))
	require.NoError(t, err)
	proof, err := tree.ProveInclusion(tree.Leaves()[20])
	require.NoError(t, err)
	require.Len(t, proof.Levels, 2)

	err = proof.Verify(cfg, source.GetHash())
	require.ErrorIs(t, err, failure.ErrHashMismatch)

	tampered := *proof
	tampered.Leaf = source.GetHash()
	require.ErrorIs(t, tampered.Verify(cfg, tree.Root()), failure.ErrHashMismatch)

	siblings := append([]common.Hash{}, proof.Levels[0].Siblings...)
	siblings[3][0] ^= 1
	tampered = InclusionProof{Leaf: proof.Leaf, Levels: []InclusionLevel{{Index: proof.Levels[0].Index, Siblings: siblings}, proof.Levels[1]}}
	require.ErrorIs(t, tampered.Verify(cfg, tree.Root()), failure.ErrHashMismatch)

	moved := InclusionProof{Leaf: proof.Leaf, Levels: []InclusionLevel{{Index: proof.Levels[0].Index + 1, Siblings: proof.Levels[0].Siblings}, proof.Levels[1]}}
	require.ErrorIs(t, moved.Verify(cfg, tree.Root()), failure.ErrHashMismatch)
}

func TestInclusionShape(t *testing.T) {
	cfg := DefaultTreeConfig()
	leaf := common.Hash{1}

	empty := InclusionProof{Leaf: leaf}
	require.ErrorIs(t, empty.Verify(cfg, hashing.SHA256(leaf[:])), failure.ErrInvalidProofShape)

	beyond := InclusionProof{Leaf: leaf, Levels: []InclusionLevel{{Index: 2, Siblings: []common.Hash{{2}}}}}
	require.ErrorIs(t, beyond.Verify(cfg, common.Hash{}), failure.ErrInvalidProofShape)

	wide := InclusionProof{Leaf: leaf, Levels: []InclusionLevel{{Siblings: repeat(common.Hash{2}, 16)}}}
	require.ErrorIs(t, wide.Verify(cfg, common.Hash{}), failure.ErrInvalidProofShape)

	short := InclusionProof{Leaf: leaf, Levels: []InclusionLevel{{Siblings: []common.Hash{{2}}}}}
	require.ErrorIs(t, short.Verify(paddedConfig(), common.Hash{}), failure.ErrInvalidProofShape)
}

func TestProveMembership(t *testing.T) {
	cfg := DefaultTreeConfig()
	source := testhelpers.NewPseudoRandomDataSource(t, 4)
	tree, err := BuildTree(cfg, source.GetLeaves(33))
	require.NoError(t, err)

	leaf := tree.Leaves()[7]
	proof, err := tree.Prove(leaf)
	require.NoError(t, err)
	require.True(t, proof.Included())
	require.NoError(t, proof.Verify(cfg, leaf, tree.Root()))
	require.ErrorIs(t, proof.Verify(cfg, source.GetHash(), tree.Root()), failure.ErrInvalidProofShape)

	absent := source.GetHash()
	proof, err = tree.Prove(absent)
	require.NoError(t, err)
	require.False(t, proof.Included())
	require.NoError(t, proof.Verify(cfg, absent, tree.Root()))

	require.ErrorIs(t, (&MembershipProof{}).Verify(cfg, absent, tree.Root()), failure.ErrInvalidProofShape)
}
