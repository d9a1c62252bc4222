// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package bankhash recomputes a block's bank hash from its components.
package bankhash

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/util/hashing"
)

// Proof is the set of values hashed into a bank hash.
type Proof struct {
	// ParentBankHash is the parent block's bank hash, not its blockhash.
	ParentBankHash common.Hash
	// AccountsDeltaHash is the root of the tree of accounts updated in the block.
	AccountsDeltaHash common.Hash
	SignatureCount    uint64
	// BlockHash is the last proof-of-history entry of the block.
	BlockHash common.Hash
}

// Hash computes H(parent ++ accounts_delta_hash ++ le64(signature_count) ++ blockhash).
func (p *Proof) Hash(hasher hashing.Hasher) common.Hash {
	if hasher == nil {
		hasher = hashing.SHA256
	}
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], p.SignatureCount)
	return hasher(p.ParentBankHash[:], p.AccountsDeltaHash[:], count[:], p.BlockHash[:])
}

func (p *Proof) Verify(hasher hashing.Hasher, expected common.Hash) error {
	if computed := p.Hash(hasher); computed != expected {
		return failure.Mismatch("bank hash", expected, computed)
	}
	return nil
}

func (p *Proof) String() string {
	return fmt.Sprintf("{parent: %v, accounts_delta_hash: %v, signature_count: %d, blockhash: %v}",
		hashing.Base58(p.ParentBankHash), hashing.Base58(p.AccountsDeltaHash), p.SignatureCount, hashing.Base58(p.BlockHash))
}
