// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package slothash proves that a bank hash is recorded in the bounded
// recent-history snapshot of (slot, bank hash) pairs.
package slothash

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/failure"
)

// DefaultWindow is the number of recent slots the SlotHashes sysvar retains.
const DefaultWindow = 512

const entrySize = 8 + common.HashLength

type Entry struct {
	Slot uint64
	Hash common.Hash
}

// History is an immutable snapshot ordered from newest to oldest slot.
type History struct {
	entries []Entry
	window  int
}

// NewHistory copies entries, which must be strictly descending by slot and
// no more than window long.
func NewHistory(entries []Entry, window int) (*History, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(entries) > window {
		return nil, errors.Wrapf(failure.ErrStructural, "%d slot hashes exceed window of %d", len(entries), window)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Slot >= entries[i-1].Slot {
			return nil, errors.Wrapf(failure.ErrStructural, "slot %d follows slot %d", entries[i].Slot, entries[i-1].Slot)
		}
	}
	return &History{
		entries: append([]Entry(nil), entries...),
		window:  window,
	}, nil
}

// DecodeSysvar parses SlotHashes sysvar account data: a little-endian u64
// count followed by that many (u64 slot, 32 byte hash) entries.
func DecodeSysvar(data []byte, window int) (*History, error) {
	if len(data) < 8 {
		return nil, errors.Wrapf(failure.ErrStructural, "slot hashes data too short: %d bytes", len(data))
	}
	count := binary.LittleEndian.Uint64(data)
	data = data[8:]
	if count > uint64(len(data)/entrySize) {
		return nil, errors.Wrapf(failure.ErrStructural, "slot hashes claims %d entries in %d bytes", count, len(data))
	}
	entries := make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		raw := data[i*entrySize : (i+1)*entrySize]
		entries = append(entries, Entry{
			Slot: binary.LittleEndian.Uint64(raw),
			Hash: common.BytesToHash(raw[8:]),
		})
	}
	return NewHistory(entries, window)
}

// EncodeSysvar is the inverse of DecodeSysvar.
func (h *History) EncodeSysvar() []byte {
	ret := make([]byte, 8, 8+len(h.entries)*entrySize)
	binary.LittleEndian.PutUint64(ret, uint64(len(h.entries)))
	for _, entry := range h.entries {
		ret = binary.LittleEndian.AppendUint64(ret, entry.Slot)
		ret = append(ret, entry.Hash[:]...)
	}
	return ret
}

func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}

func (h *History) Window() int {
	return h.window
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Lookup(slot uint64) (common.Hash, bool) {
	i := sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].Slot <= slot
	})
	if i < len(h.entries) && h.entries[i].Slot == slot {
		return h.entries[i].Hash, true
	}
	return common.Hash{}, false
}

func (h *History) notFound(slot uint64) error {
	switch {
	case len(h.entries) == 0:
		return errors.Wrapf(failure.ErrSlotNotFound, "slot %d: history is empty", slot)
	case slot < h.entries[len(h.entries)-1].Slot:
		return errors.Wrapf(failure.ErrSlotNotFound, "slot %d is older than the retained window starting at %d", slot, h.entries[len(h.entries)-1].Slot)
	case slot > h.entries[0].Slot:
		return errors.Wrapf(failure.ErrSlotNotFound, "slot %d is newer than the latest recorded slot %d", slot, h.entries[0].Slot)
	default:
		return errors.Wrapf(failure.ErrSlotNotFound, "slot %d was not recorded", slot)
	}
}

// Proof is a history snapshot taken at Slot.
type Proof struct {
	Slot    uint64
	History *History
}

// Verify checks that the snapshot was taken at slot and records bankHash for it.
func (p *Proof) Verify(slot uint64, bankHash common.Hash) error {
	if p.History == nil {
		return errors.Wrap(failure.ErrInvalidProofShape, "slot hash proof has no history")
	}
	if p.Slot != slot {
		return errors.Wrapf(failure.ErrInvalidProofShape, "proof is for slot %d, not %d", p.Slot, slot)
	}
	return p.History.Verify(slot, bankHash)
}

// Verify checks that the history records bankHash for slot.
func (h *History) Verify(slot uint64, bankHash common.Hash) error {
	found, ok := h.Lookup(slot)
	if !ok {
		return h.notFound(slot)
	}
	if found != bankHash {
		return failure.Mismatch("slot hash", bankHash, found)
	}
	return nil
}
