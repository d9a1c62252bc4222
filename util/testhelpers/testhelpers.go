// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package testhelpers

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/util/colors"
)

// Fail a test should an error occur
func RequireImpl(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(colors.Red, printables, err, colors.Clear)
	}
}

func FailImpl(t *testing.T, printables ...interface{}) {
	t.Helper()
	t.Fatal(colors.Red, printables, colors.Clear)
}

func RandomizeSlice(slice []byte) []byte {
	_, err := rand.Read(slice)
	if err != nil {
		panic(err)
	}
	return slice
}

func RandomSlice(size uint64) []byte {
	return RandomizeSlice(make([]byte, size))
}

func RandomHash() common.Hash {
	var hash common.Hash
	RandomizeSlice(hash[:])
	return hash
}

// Computes a psuedo-random uint64 on the interval [min, max]
func RandomUint64(min, max uint64) uint64 {
	return uint64(rand.Uint64()%(max-min+1) + min)
}

// SortedHashes returns n distinct hashes in ascending byte order.
func SortedHashes(n int, next func() common.Hash) []common.Hash {
	seen := make(map[common.Hash]struct{}, n)
	hashes := make([]common.Hash, 0, n)
	for len(hashes) < n {
		h := next()
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return hashes
}

// Between returns a hash strictly between a and b, which must differ by more than one.
func Between(a, b common.Hash) common.Hash {
	ret := a
	for i := len(ret) - 1; i >= 0; i-- {
		ret[i]++
		if ret[i] != 0 {
			break
		}
	}
	if bytes.Compare(ret[:], b[:]) >= 0 {
		panic("no hash between neighbours")
	}
	return ret
}
