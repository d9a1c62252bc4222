// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package blob proves that raw bytes are exactly the blob whose digest was
// recorded on-chain.
package blob

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/digest"
	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/util/hashing"
)

const (
	// DefaultChunkSize is the largest chunk one insert transaction carries.
	DefaultChunkSize = 915
	DefaultMaxChunks = 2048
	// AccountDataLen is the length of the digest and size a blob account stores.
	AccountDataLen = common.HashLength + 4
)

type Config struct {
	ChunkSize int
	// MaxChunks caps the chunk count of one blob; zero means no cap beyond
	// what a chunk index can address.
	MaxChunks int
	Digest    digest.Config
}

func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		MaxChunks: DefaultMaxChunks,
		Digest:    digest.BloberConfig(),
	}
}

func (c Config) MaxSize() int {
	chunks := c.MaxChunks
	if chunks <= 0 || chunks > digest.MaxChunks {
		chunks = digest.MaxChunks
	}
	return chunks * c.ChunkSize
}

// Proof is the digest and size recorded for a blob.
type Proof struct {
	Digest common.Hash
	Size   uint32
}

func digestOf(cfg Config, data []byte) (common.Hash, error) {
	if len(data) > cfg.MaxSize() {
		return common.Hash{}, errors.Wrapf(failure.ErrStructural, "blob of %d bytes exceeds maximum of %d", len(data), cfg.MaxSize())
	}
	chunks, err := digest.Split(data, cfg.ChunkSize)
	if err != nil {
		return common.Hash{}, err
	}
	return digest.Accumulate(cfg.Digest, chunks)
}

// New chunks data and records its digest.
func New(cfg Config, data []byte) (*Proof, error) {
	d, err := digestOf(cfg, data)
	if err != nil {
		return nil, err
	}
	return &Proof{Digest: d, Size: uint32(len(data))}, nil
}

// Verify re-chunks data and checks it reproduces the recorded digest.
func (p *Proof) Verify(cfg Config, data []byte) error {
	if uint64(len(data)) != uint64(p.Size) {
		return errors.Wrapf(failure.ErrHashMismatch, "blob size: expected %d, found %d", p.Size, len(data))
	}
	d, err := digestOf(cfg, data)
	if err != nil {
		return err
	}
	if d != p.Digest {
		return failure.Mismatch("blob digest", p.Digest, d)
	}
	return nil
}

// AccountData is the digest followed by the little-endian u32 size, as a
// blob account stores them.
func (p *Proof) AccountData() []byte {
	ret := make([]byte, 0, AccountDataLen)
	ret = append(ret, p.Digest[:]...)
	return binary.LittleEndian.AppendUint32(ret, p.Size)
}

func ParseAccountData(data []byte) (*Proof, error) {
	if len(data) != AccountDataLen {
		return nil, errors.Wrapf(failure.ErrInvalidProofShape, "blob account data is %d bytes, want %d", len(data), AccountDataLen)
	}
	return &Proof{
		Digest: common.BytesToHash(data[:common.HashLength]),
		Size:   binary.LittleEndian.Uint32(data[common.HashLength:]),
	}, nil
}

// Leaf is the account leaf a blob account with this state hashes to.
func (p *Proof) Leaf(hasher hashing.Hasher) common.Hash {
	if hasher == nil {
		hasher = hashing.SHA256
	}
	return hasher(p.AccountData())
}

func (p *Proof) String() string {
	return fmt.Sprintf("{digest: %v, size: %d}", hashing.Base58(p.Digest), p.Size)
}
