// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/offchainlabs/anchorproof/proofs/accounts"
	"github.com/offchainlabs/anchorproof/proofs/bankhash"
	"github.com/offchainlabs/anchorproof/proofs/blob"
	"github.com/offchainlabs/anchorproof/proofs/compound"
	"github.com/offchainlabs/anchorproof/proofs/slothash"
	"github.com/offchainlabs/anchorproof/util/testhelpers"
)

var cmpOpts = []cmp.Option{cmpopts.EquateEmpty(), cmp.AllowUnexported(slothash.History{})}

type block struct {
	cfg   compound.Config
	block compound.Block
	blobs [][]byte
}

func newBlock(t *testing.T) *block {
	cfg := compound.DefaultConfig()
	source := testhelpers.NewPseudoRandomDataSource(t, 7)
	blobs := [][]byte{source.GetData(100), source.GetData(2500)}
	leaves := source.GetLeaves(30)
	for _, data := range blobs {
		p, err := blob.New(cfg.Blob, data)
		require.NoError(t, err)
		leaves = append(leaves, p.Leaf(cfg.Tree.Hasher))
	}
	tree, err := accounts.BuildTree(cfg.Tree, leaves)
	require.NoError(t, err)
	bank := bankhash.Proof{
		ParentBankHash:    source.GetHash(),
		AccountsDeltaHash: tree.Root(),
		SignatureCount:    2,
		BlockHash:         source.GetHash(),
	}
	history, err := slothash.NewHistory([]slothash.Entry{
		{Slot: 12, Hash: source.GetHash()},
		{Slot: 11, Hash: bank.Hash(cfg.BankHasher)},
		{Slot: 9, Hash: source.GetHash()},
	}, 64)
	require.NoError(t, err)
	return &block{
		cfg:   cfg,
		block: compound.Block{Slot: 11, Tree: tree, BankHash: bank, History: history},
		blobs: blobs,
	}
}

func roundTrip[T any](t *testing.T, proof T, kind Kind, decode func([]byte) (T, error)) T {
	t.Helper()
	data, err := Marshal(proof)
	require.NoError(t, err)
	got, err := KindOf(data)
	require.NoError(t, err)
	require.Equal(t, kind, got)
	decoded, err := decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(proof, decoded, cmpOpts...); diff != "" {
		t.Fatalf("%v round trip differs: %s", kind, diff)
	}
	return decoded
}

func TestRoundTrips(t *testing.T) {
	b := newBlock(t)
	leaves := b.block.Tree.Leaves()

	inclusion, err := b.block.Tree.ProveInclusion(leaves[4])
	require.NoError(t, err)
	decoded := roundTrip(t, inclusion, KindInclusion, UnmarshalInclusion)
	require.NoError(t, decoded.Verify(b.cfg.Tree, b.block.Tree.Root()))

	blobProof, err := blob.New(b.cfg.Blob, b.blobs[1])
	require.NoError(t, err)
	roundTrip(t, blobProof, KindBlob, UnmarshalBlob)
	roundTrip(t, &b.block.BankHash, KindBankHash, UnmarshalBankHash)
	roundTrip(t, &slothash.Proof{Slot: 11, History: b.block.History}, KindSlotHash, UnmarshalSlotHash)

	compoundInclusion, err := compound.BuildInclusion(b.cfg, b.block, b.blobs)
	require.NoError(t, err)
	decodedInclusion := roundTrip(t, compoundInclusion, KindCompoundInclusion, UnmarshalCompoundInclusion)
	blockHash := b.block.BankHash.BlockHash
	require.NoError(t, decodedInclusion.Verify(b.cfg, compound.Expectations{Blobs: b.blobs, BlockHash: &blockHash}))

	completeness, err := compound.BuildCompleteness(b.cfg, b.block, testhelpers.Between(leaves[8], leaves[9]))
	require.NoError(t, err)
	decodedCompleteness := roundTrip(t, completeness, KindCompoundCompleteness, UnmarshalCompoundCompleteness)
	require.NoError(t, decodedCompleteness.Verify(b.cfg, testhelpers.Between(leaves[8], leaves[9]), compound.Expectations{History: b.block.History}))
}

func TestExclusionRoundTrips(t *testing.T) {
	b := newBlock(t)
	leaves := b.block.Tree.Leaves()
	empty, err := accounts.BuildTree(b.cfg.Tree, nil)
	require.NoError(t, err)

	cases := []struct {
		tree      *accounts.Tree
		candidate common.Hash
		kind      Kind
	}{
		{empty, common.Hash{1}, KindExclusionEmpty},
		{b.block.Tree, common.Hash{}, KindExclusionLeft},
		{b.block.Tree, common.MaxHash, KindExclusionRight},
		{b.block.Tree, testhelpers.Between(leaves[15], leaves[16]), KindExclusionInner},
	}
	for _, c := range cases {
		proof, err := c.tree.ProveExclusion(c.candidate)
		require.NoError(t, err)
		decoded := roundTrip(t, proof, c.kind, UnmarshalExclusion)
		require.NoError(t, accounts.VerifyExclusion(b.cfg.Tree, decoded, c.candidate, c.tree.Root()))

		data, err := Marshal(proof)
		require.NoError(t, err)
		generic, err := Unmarshal(data)
		require.NoError(t, err)
		require.IsType(t, proof, generic)
	}
}

func TestUnmarshalDispatch(t *testing.T) {
	b := newBlock(t)
	data, err := Marshal(b.block.BankHash)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, &b.block.BankHash, decoded)
}

func TestDecodeRejects(t *testing.T) {
	b := newBlock(t)
	good, err := Marshal(&b.block.BankHash)
	require.NoError(t, err)

	_, err = UnmarshalBlob(good)
	require.ErrorIs(t, err, ErrKindMismatch)
	_, err = UnmarshalExclusion(good)
	require.ErrorIs(t, err, ErrKindMismatch)

	payload, err := rlp.EncodeToBytes(&b.block.BankHash)
	require.NoError(t, err)
	future, err := rlp.EncodeToBytes(&envelope{Version: 2, Kind: KindBankHash, Payload: payload})
	require.NoError(t, err)
	_, err = UnmarshalBankHash(future)
	require.ErrorIs(t, err, ErrUnknownVersion)

	unknown, err := rlp.EncodeToBytes(&envelope{Version: Version, Kind: 200, Payload: payload})
	require.NoError(t, err)
	_, err = KindOf(unknown)
	require.ErrorIs(t, err, ErrUnknownKind)
	_, err = Unmarshal(unknown)
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = UnmarshalBankHash(append(append([]byte{}, good...), 0))
	require.Error(t, err)
	_, err = UnmarshalBankHash(good[:len(good)-1])
	require.Error(t, err)

	_, err = Marshal("not a proof")
	require.Error(t, err)
	_, err = Marshal(&slothash.Proof{Slot: 1})
	require.Error(t, err)
	require.Equal(t, "unknown(200)", Kind(200).String())
	require.Equal(t, "compound-completeness", KindCompoundCompleteness.String())
}
