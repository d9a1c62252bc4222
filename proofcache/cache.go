// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package proofcache

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/anchorproof/proofs/compound"
	"github.com/offchainlabs/anchorproof/proofs/wire"
)

var (
	cacheHitCounter  = metrics.NewRegisteredCounter("anchorproof/proofcache/hit", nil)
	cacheMissCounter = metrics.NewRegisteredCounter("anchorproof/proofcache/miss", nil)
	cachePutCounter  = metrics.NewRegisteredCounter("anchorproof/proofcache/put", nil)
)

const (
	formatRaw    byte = 0
	formatBrotli byte = 1
)

var ErrCorruptEntry = errors.New("corrupt proof cache entry")

// Cache keeps encoded proofs in a Store, keyed by what they prove.
type Cache struct {
	store  Store
	config *CompressionConfig
}

func NewCache(store Store, config *CompressionConfig) *Cache {
	return &Cache{store: store, config: config}
}

// Key identifies a proof of the given kind about subject at slot.
func Key(kind wire.Kind, slot uint64, subject common.Hash) common.Hash {
	var buf [9]byte
	buf[0] = byte(kind)
	binary.LittleEndian.PutUint64(buf[1:], slot)
	return crypto.Keccak256Hash(buf[:], subject[:])
}

// BlobsSubject names the set of blobs an inclusion proof covers, in order.
func BlobsSubject(digests []common.Hash) common.Hash {
	data := make([]byte, 0, len(digests)*common.HashLength)
	for _, d := range digests {
		data = append(data, d[:]...)
	}
	return crypto.Keccak256Hash(data)
}

// InclusionSubject is BlobsSubject over the blobs proof covers.
func InclusionSubject(proof *compound.InclusionProof) common.Hash {
	digests := make([]common.Hash, len(proof.Blobs))
	for i := range proof.Blobs {
		digests[i] = proof.Blobs[i].Blob.Digest
	}
	return BlobsSubject(digests)
}

// compress prefixes the stored entry with its format. A brotli entry also
// records the uncompressed length, since a truncated brotli stream can decode
// cleanly to a prefix of the original.
func (c *Cache) compress(data []byte) ([]byte, error) {
	if c.config.Level < 0 || len(data) < c.config.MinSize {
		return append([]byte{formatRaw}, data...), nil
	}
	header := binary.AppendUvarint([]byte{formatBrotli}, uint64(len(data)))
	buf := bytes.NewBuffer(header)
	writer := brotli.NewWriterLevel(buf, c.config.Level)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Cache) decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrCorruptEntry, "empty entry")
	}
	switch data[0] {
	case formatRaw:
		return data[1:], nil
	case formatBrotli:
		size, n := binary.Uvarint(data[1:])
		if n <= 0 {
			return nil, errors.Wrap(ErrCorruptEntry, "bad length header")
		}
		limit := uint64(c.config.MaxDecompressedSize)
		if size > limit {
			return nil, errors.Wrapf(ErrCorruptEntry, "entry of %d bytes is past the %d byte limit", size, limit)
		}
		reader := io.LimitReader(brotli.NewReader(bytes.NewReader(data[1+n:])), int64(size)+1)
		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.Wrap(ErrCorruptEntry, err.Error())
		}
		if uint64(len(out)) != size {
			return nil, errors.Wrapf(ErrCorruptEntry, "entry decompresses to %d bytes, recorded %d", len(out), size)
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrCorruptEntry, "unknown format %d", data[0])
	}
}

// Put stores proof, which must be a type the wire codec encodes.
func (c *Cache) Put(ctx context.Context, slot uint64, subject common.Hash, proof interface{}) error {
	encoded, err := wire.Marshal(proof)
	if err != nil {
		return err
	}
	kind, err := wire.KindOf(encoded)
	if err != nil {
		return err
	}
	stored, err := c.compress(encoded)
	if err != nil {
		return err
	}
	cachePutCounter.Inc(1)
	log.Trace("caching proof", "kind", kind, "slot", slot, "subject", subject, "size", len(encoded), "stored", len(stored))
	return c.store.Put(ctx, Key(kind, slot, subject), stored)
}

// Get returns the decoded proof of kind stored for subject at slot, or
// ErrNotFound.
func (c *Cache) Get(ctx context.Context, kind wire.Kind, slot uint64, subject common.Hash) (interface{}, error) {
	stored, err := c.store.Get(ctx, Key(kind, slot, subject))
	if errors.Is(err, ErrNotFound) {
		cacheMissCounter.Inc(1)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	encoded, err := c.decompress(stored)
	if err != nil {
		return nil, err
	}
	got, err := wire.KindOf(encoded)
	if err != nil {
		return nil, err
	}
	if got != kind {
		return nil, errors.Wrapf(wire.ErrKindMismatch, "cached %v under a %v key", got, kind)
	}
	proof, err := wire.Unmarshal(encoded)
	if err != nil {
		return nil, err
	}
	cacheHitCounter.Inc(1)
	return proof, nil
}

func (c *Cache) PutInclusion(ctx context.Context, proof *compound.InclusionProof) error {
	return c.Put(ctx, proof.TargetSlot, InclusionSubject(proof), proof)
}

func (c *Cache) GetInclusion(ctx context.Context, slot uint64, digests []common.Hash) (*compound.InclusionProof, error) {
	proof, err := c.Get(ctx, wire.KindCompoundInclusion, slot, BlobsSubject(digests))
	if err != nil {
		return nil, err
	}
	return proof.(*compound.InclusionProof), nil
}

func (c *Cache) PutCompleteness(ctx context.Context, proof *compound.CompletenessProof, excluded common.Hash) error {
	return c.Put(ctx, proof.TargetSlot, excluded, proof)
}

func (c *Cache) GetCompleteness(ctx context.Context, slot uint64, excluded common.Hash) (*compound.CompletenessProof, error) {
	proof, err := c.Get(ctx, wire.KindCompoundCompleteness, slot, excluded)
	if err != nil {
		return nil, err
	}
	return proof.(*compound.CompletenessProof), nil
}

func (c *Cache) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}

func (c *Cache) String() string {
	return fmt.Sprintf("Cache(%v)", c.store)
}
