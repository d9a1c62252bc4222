// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package digest folds the ordered chunks of a blob into the single digest
// that gets recorded on-chain.
package digest

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/util/hashing"
)

// MaxChunks is the number of chunks a uint16 index can address.
const MaxChunks = math.MaxUint16 + 1

var ErrTooManyChunks = errors.New("blob needs more chunks than a chunk index can address")

type Chunk struct {
	Index uint16
	Data  []byte
}

type Config struct {
	Hasher hashing.Hasher
	// Seed, when set, is folded in front of the first chunk.
	Seed *common.Hash
	// BindIndex prefixes every chunk's payload with its little-endian index.
	BindIndex bool
}

// DefaultConfig folds digest_0 = H(chunk_0), digest_i = H(digest_{i-1} ++ chunk_i).
func DefaultConfig() Config {
	return Config{Hasher: hashing.SHA256}
}

// BloberConfig reproduces the digest the blober program keeps on-chain: the
// fold starts from the hash of nothing and each chunk is hashed as
// le16(index) ++ payload.
func BloberConfig() Config {
	seed := hashing.SHA256()
	return Config{
		Hasher:    hashing.SHA256,
		Seed:      &seed,
		BindIndex: true,
	}
}

func (c Config) hasher() hashing.Hasher {
	if c.Hasher == nil {
		return hashing.SHA256
	}
	return c.Hasher
}

// ValidateChunks checks that chunks are exactly 0..N-1 in order.
func ValidateChunks(chunks []Chunk) error {
	if len(chunks) == 0 {
		return failure.ErrEmptyInput
	}
	return validateFrom(0, false, chunks)
}

func validateFrom(next uint16, full bool, chunks []Chunk) error {
	if len(chunks) > MaxChunks-int(next) || (full && len(chunks) > 0) {
		return ErrTooManyChunks
	}
	seen := make(map[uint16]struct{}, len(chunks))
	for i, chunk := range chunks {
		expected := next + uint16(i)
		if _, ok := seen[chunk.Index]; ok || chunk.Index < next {
			return errors.Wrapf(failure.ErrDuplicateIndex, "chunk %d at position %d", chunk.Index, i)
		}
		if chunk.Index != expected {
			return errors.Wrapf(failure.ErrIndexGap, "expected chunk %d at position %d, got %d", expected, i, chunk.Index)
		}
		seen[chunk.Index] = struct{}{}
	}
	return nil
}

// Accumulate validates chunks and folds them into a digest.
func Accumulate(cfg Config, chunks []Chunk) (common.Hash, error) {
	acc := NewAccumulator(cfg)
	if err := acc.Add(chunks...); err != nil {
		return common.Hash{}, err
	}
	return acc.Digest()
}

// Accumulator folds chunks incrementally. Adding chunks in any batching
// yields the same digest as a single Accumulate over the same sequence.
type Accumulator struct {
	cfg     Config
	digest  common.Hash
	next    uint16
	full    bool
	started bool
}

func NewAccumulator(cfg Config) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// Add validates the whole batch against the next expected index before
// hashing any of it, so a rejected batch leaves the accumulator unchanged.
func (a *Accumulator) Add(chunks ...Chunk) error {
	if len(chunks) == 0 {
		if !a.started {
			return failure.ErrEmptyInput
		}
		return nil
	}
	if err := validateFrom(a.next, a.full, chunks); err != nil {
		return err
	}
	for _, chunk := range chunks {
		a.fold(chunk)
	}
	return nil
}

func (a *Accumulator) fold(chunk Chunk) {
	hash := a.cfg.hasher()
	var payload [][]byte
	if a.started {
		payload = append(payload, a.digest[:])
	} else if a.cfg.Seed != nil {
		payload = append(payload, a.cfg.Seed[:])
	}
	if a.cfg.BindIndex {
		var index [2]byte
		binary.LittleEndian.PutUint16(index[:], chunk.Index)
		payload = append(payload, index[:])
	}
	payload = append(payload, chunk.Data)
	a.digest = hash(payload...)
	a.started = true
	if chunk.Index == math.MaxUint16 {
		a.full = true
	} else {
		a.next = chunk.Index + 1
	}
}

// Next is the index the accumulator expects next.
func (a *Accumulator) Next() uint16 {
	return a.next
}

func (a *Accumulator) Digest() (common.Hash, error) {
	if !a.started {
		return common.Hash{}, failure.ErrEmptyInput
	}
	return a.digest, nil
}

// Split cuts data into contiguous chunks of chunkSize bytes, the last one
// possibly shorter.
func Split(data []byte, chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, errors.Errorf("invalid chunk size %d", chunkSize)
	}
	if len(data) == 0 {
		return nil, failure.ErrEmptyInput
	}
	count := (len(data) + chunkSize - 1) / chunkSize
	if count > MaxChunks {
		return nil, errors.Wrapf(ErrTooManyChunks, "%d bytes at chunk size %d", len(data), chunkSize)
	}
	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		end := (i + 1) * chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, Chunk{Index: uint16(i), Data: data[i*chunkSize : end]})
	}
	return chunks, nil
}
