// Copyright 2022-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package testhelpers

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/util/hashing"
)

type PseudoRandomDataSource struct {
	salt  common.Hash
	index uint64
}

// pseudorandom source that repeats on different executions
// T param is to make sure it's only used in testing
func NewPseudoRandomDataSource(_ *testing.T, saltParam int) *PseudoRandomDataSource {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], uint64(saltParam))
	return &PseudoRandomDataSource{
		salt: hashing.SHA256([]byte{'s'}, seed[:]),
	}
}

func (r *PseudoRandomDataSource) GetHash() common.Hash {
	r.index++
	var index [8]byte
	binary.BigEndian.PutUint64(index[:], r.index)
	return hashing.SHA256(r.salt[:], index[:])
}

func (r *PseudoRandomDataSource) GetUint64() uint64 {
	return binary.BigEndian.Uint64(r.GetHash().Bytes()[:8])
}

func (r *PseudoRandomDataSource) GetData(size int) []byte {
	ret := make([]byte, 0, size+common.HashLength)
	for len(ret) < size {
		ret = append(ret, r.GetHash().Bytes()...)
	}
	return ret[:size]
}

// GetLeaves returns n distinct hashes sorted ascending.
func (r *PseudoRandomDataSource) GetLeaves(n int) []common.Hash {
	return SortedHashes(n, r.GetHash)
}
