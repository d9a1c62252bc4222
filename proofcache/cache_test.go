// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package proofcache

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/accounts"
	"github.com/offchainlabs/anchorproof/proofs/bankhash"
	"github.com/offchainlabs/anchorproof/proofs/blob"
	"github.com/offchainlabs/anchorproof/proofs/compound"
	"github.com/offchainlabs/anchorproof/proofs/slothash"
	"github.com/offchainlabs/anchorproof/proofs/wire"
	"github.com/offchainlabs/anchorproof/util/testhelpers"
)

type testBlock struct {
	cfg   compound.Config
	block compound.Block
	blobs [][]byte
}

func newTestBlock(t *testing.T) *testBlock {
	t.Helper()
	cfg := compound.DefaultConfig()
	source := testhelpers.NewPseudoRandomDataSource(t, 3)
	blobs := [][]byte{source.GetData(4000), source.GetData(10)}
	leaves := source.GetLeaves(20)
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
		SignatureCount:    1,
		BlockHash:         source.GetHash(),
	}
	history, err := slothash.NewHistory([]slothash.Entry{{Slot: 70, Hash: bank.Hash(cfg.BankHasher)}}, 0)
	require.NoError(t, err)
	return &testBlock{
		cfg:   cfg,
		block: compound.Block{Slot: 70, Tree: tree, BankHash: bank, History: history},
		blobs: blobs,
	}
}

var cmpOpts = []cmp.Option{cmpopts.EquateEmpty(), cmp.AllowUnexported(slothash.History{})}

func TestCacheInclusion(t *testing.T) {
	ctx := context.Background()
	b := newTestBlock(t)
	for _, level := range []int{-1, 0, 11} {
		compression := DefaultCompressionConfig
		compression.Level = level
		cache := NewCache(NewMemoryStore(DefaultMemoryConfig), &compression)

		proof, err := compound.BuildInclusion(b.cfg, b.block, b.blobs)
		require.NoError(t, err)
		digests := []common.Hash{proof.Blobs[0].Blob.Digest, proof.Blobs[1].Blob.Digest}

		_, err = cache.GetInclusion(ctx, 70, digests)
		require.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, cache.PutInclusion(ctx, proof))

		got, err := cache.GetInclusion(ctx, 70, digests)
		require.NoError(t, err)
		if diff := cmp.Diff(proof, got, cmpOpts...); diff != "" {
			t.Fatalf("level %d: cached proof differs: %s", level, diff)
		}
		require.NoError(t, got.Verify(b.cfg, compound.Expectations{Blobs: b.blobs, History: b.block.History}))

		// Order of blobs and slot are both part of the key.
		_, err = cache.GetInclusion(ctx, 70, []common.Hash{digests[1], digests[0]})
		require.ErrorIs(t, err, ErrNotFound)
		_, err = cache.GetInclusion(ctx, 71, digests)
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestCacheCompleteness(t *testing.T) {
	ctx := context.Background()
	b := newTestBlock(t)
	store, err := NewBadgerStore(ctx, BadgerConfig{Enable: true, InMemory: true})
	require.NoError(t, err)
	cache := NewCache(store, &DefaultCompressionConfig)
	defer func() { require.NoError(t, cache.Close(ctx)) }()

	leaves := b.block.Tree.Leaves()
	excluded := testhelpers.Between(leaves[3], leaves[4])
	proof, err := compound.BuildCompleteness(b.cfg, b.block, excluded)
	require.NoError(t, err)
	require.NoError(t, cache.PutCompleteness(ctx, proof, excluded))

	got, err := cache.GetCompleteness(ctx, 70, excluded)
	require.NoError(t, err)
	require.NoError(t, got.Verify(b.cfg, excluded, compound.Expectations{History: b.block.History}))
	_, err = cache.GetCompleteness(ctx, 70, leaves[3])
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCacheRejectsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	b := newTestBlock(t)
	store := NewMemoryStore(DefaultMemoryConfig)
	compression := DefaultCompressionConfig
	compression.MinSize = 0
	cache := NewCache(store, &compression)

	require.NoError(t, cache.Put(ctx, 70, common.Hash{9}, &b.block.BankHash))
	got, err := cache.Get(ctx, wire.KindBankHash, 70, common.Hash{9})
	require.NoError(t, err)
	require.Equal(t, &b.block.BankHash, got)

	// A bank hash stored under a blob key is not handed out as a blob.
	stored, err := store.Get(ctx, Key(wire.KindBankHash, 70, common.Hash{9}))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, Key(wire.KindBlob, 70, common.Hash{9}), stored))
	_, err = cache.Get(ctx, wire.KindBlob, 70, common.Hash{9})
	require.ErrorIs(t, err, wire.ErrKindMismatch)

	packed, err := cache.compress(testhelpers.RandomSlice(1000))
	require.NoError(t, err)
	require.Equal(t, formatBrotli, packed[0])
	oversized := append([]byte{formatBrotli}, binary.AppendUvarint(nil, 1<<40)...)
	for _, entry := range [][]byte{
		{},
		{7, 1, 2},
		{formatBrotli},
		oversized,
		packed[:len(packed)/2],
	} {
		_, err = cache.decompress(entry)
		require.ErrorIs(t, err, ErrCorruptEntry)
	}

	// A length header that disagrees with the stream.
	payload := packed[1:]
	_, n := binary.Uvarint(payload)
	longer := append(binary.AppendUvarint([]byte{formatBrotli}, 1001), payload[n:]...)
	_, err = cache.decompress(longer)
	require.ErrorIs(t, err, ErrCorruptEntry)
	shorter := append(binary.AppendUvarint([]byte{formatBrotli}, 999), payload[n:]...)
	_, err = cache.decompress(shorter)
	require.ErrorIs(t, err, ErrCorruptEntry)

	small := compression
	small.MaxDecompressedSize = 16
	_, err = NewCache(store, &small).decompress(packed)
	require.ErrorIs(t, err, ErrCorruptEntry)
	unpacked, err := cache.decompress(packed)
	require.NoError(t, err)
	require.Len(t, unpacked, 1000)

	require.Error(t, cache.Put(ctx, 70, common.Hash{}, "not a proof"))
}

func TestKeySeparatesKinds(t *testing.T) {
	subject := testhelpers.RandomHash()
	seen := make(map[common.Hash]bool)
	for _, kind := range []wire.Kind{wire.KindBlob, wire.KindCompoundInclusion, wire.KindCompoundCompleteness} {
		for _, slot := range []uint64{0, 1, 1 << 40} {
			key := Key(kind, slot, subject)
			require.False(t, seen[key])
			seen[key] = true
		}
	}
	require.NotEqual(t, BlobsSubject(nil), BlobsSubject([]common.Hash{{}}))
}
