// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package digest

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/util/hashing"
	"github.com/offchainlabs/anchorproof/util/testhelpers"
)

func chunks(payloads ...string) []Chunk {
	ret := make([]Chunk, 0, len(payloads))
	for i, p := range payloads {
		ret = append(ret, Chunk{Index: uint16(i), Data: []byte(p)})
	}
	return ret
}

func TestAccumulateFormula(t *testing.T) {
	c := chunks("c0", "c1", "c2")
	got, err := Accumulate(DefaultConfig(), c)
	require.NoError(t, err)

	d0 := hashing.SHA256([]byte("c0"))
	d1 := hashing.SHA256(d0[:], []byte("c1"))
	d2 := hashing.SHA256(d1[:], []byte("c2"))
	require.Equal(t, d2, got)

	single, err := Accumulate(DefaultConfig(), c[:1])
	require.NoError(t, err)
	require.Equal(t, d0, single)
}

func TestBloberFormula(t *testing.T) {
	c := chunks("abc", "de")
	got, err := Accumulate(BloberConfig(), c)
	require.NoError(t, err)

	index := func(i uint16) []byte {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], i)
		return b[:]
	}
	seed := hashing.SHA256()
	d0 := hashing.SHA256(seed[:], index(0), []byte("abc"))
	d1 := hashing.SHA256(d0[:], index(1), []byte("de"))
	require.Equal(t, d1, got)
}

func TestValidateChunks(t *testing.T) {
	require.ErrorIs(t, ValidateChunks(nil), failure.ErrEmptyInput)
	require.NoError(t, ValidateChunks(chunks("a", "b", "c")))

	outOfOrder := []Chunk{{Index: 1}, {Index: 0}, {Index: 2}}
	require.ErrorIs(t, ValidateChunks(outOfOrder), failure.ErrIndexGap)

	gap := []Chunk{{Index: 0}, {Index: 2}}
	require.ErrorIs(t, ValidateChunks(gap), failure.ErrIndexGap)

	duplicate := []Chunk{{Index: 0}, {Index: 1}, {Index: 1}}
	require.ErrorIs(t, ValidateChunks(duplicate), failure.ErrDuplicateIndex)

	notFromZero := []Chunk{{Index: 1}}
	require.ErrorIs(t, ValidateChunks(notFromZero), failure.ErrIndexGap)
}

func TestOutOfOrderRejectedBeforeHashing(t *testing.T) {
	calls := 0
	cfg := Config{Hasher: func(data ...[]byte) common.Hash {
		calls++
		return hashing.SHA256(data...)
	}}
	c := chunks("c0", "c1", "c2")
	_, err := Accumulate(cfg, []Chunk{c[1], c[0], c[2]})
	require.ErrorIs(t, err, failure.ErrIndexGap)
	require.Zero(t, calls)

	_, err = Accumulate(cfg, nil)
	require.ErrorIs(t, err, failure.ErrEmptyInput)
	require.Zero(t, calls)
}

func TestBatchSizeIndependence(t *testing.T) {
	source := testhelpers.NewPseudoRandomDataSource(t, 1)
	data := source.GetData(10_000)
	for _, cfg := range []Config{DefaultConfig(), BloberConfig()} {
		all, err := Split(data, 97)
		require.NoError(t, err)
		want, err := Accumulate(cfg, all)
		require.NoError(t, err)

		for _, batch := range []int{1, 2, 7, 50, len(all)} {
			acc := NewAccumulator(cfg)
			for start := 0; start < len(all); start += batch {
				end := start + batch
				if end > len(all) {
					end = len(all)
				}
				require.NoError(t, acc.Add(all[start:end]...))
			}
			require.Equal(t, uint16(len(all)), acc.Next())
			got, err := acc.Digest()
			require.NoError(t, err)
			require.Equal(t, want, got, "batch size %d", batch)
		}
	}
}

func TestAccumulatorRejectsBadBatch(t *testing.T) {
	acc := NewAccumulator(DefaultConfig())
	_, err := acc.Digest()
	require.ErrorIs(t, err, failure.ErrEmptyInput)
	require.ErrorIs(t, acc.Add(), failure.ErrEmptyInput)

	require.NoError(t, acc.Add(Chunk{Index: 0, Data: []byte("a")}))
	before, err := acc.Digest()
	require.NoError(t, err)

	// A batch that goes wrong halfway is not partially applied.
	err = acc.Add(Chunk{Index: 1, Data: []byte("b")}, Chunk{Index: 3, Data: []byte("d")})
	require.ErrorIs(t, err, failure.ErrIndexGap)
	after, err := acc.Digest()
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, uint16(1), acc.Next())

	require.ErrorIs(t, acc.Add(Chunk{Index: 0}), failure.ErrDuplicateIndex)
	require.NoError(t, acc.Add())
}

func TestSplit(t *testing.T) {
	c, err := Split([]byte("abcdefg"), 3)
	require.NoError(t, err)
	require.Equal(t, []Chunk{
		{Index: 0, Data: []byte("abc")},
		{Index: 1, Data: []byte("def")},
		{Index: 2, Data: []byte("g")},
	}, c)

	c, err = Split([]byte("abc"), 3)
	require.NoError(t, err)
	require.Len(t, c, 1)

	_, err = Split(nil, 3)
	require.ErrorIs(t, err, failure.ErrEmptyInput)
	_, err = Split([]byte("abc"), 0)
	require.Error(t, err)
	_, err = Split(make([]byte, MaxChunks+1), 1)
	require.ErrorIs(t, err, ErrTooManyChunks)
}

func TestAnyByteChangesDigest(t *testing.T) {
	source := testhelpers.NewPseudoRandomDataSource(t, 2)
	data := source.GetData(2000)
	c, err := Split(data, 915)
	require.NoError(t, err)
	want, err := Accumulate(BloberConfig(), c)
	require.NoError(t, err)

	for i := 0; i < len(data); i += 123 {
		tampered := append([]byte{}, data...)
		tampered[i] ^= 1
		c, err := Split(tampered, 915)
		require.NoError(t, err)
		got, err := Accumulate(BloberConfig(), c)
		require.NoError(t, err)
		require.NotEqual(t, want, got, "flipped byte %d", i)
	}
}
