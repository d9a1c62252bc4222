// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package compound ties blob digests, account membership, the bank hash and
// the recent slot history into a single inclusion or completeness judgment.
package compound

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/anchorproof/proofs/accounts"
	"github.com/offchainlabs/anchorproof/proofs/bankhash"
	"github.com/offchainlabs/anchorproof/proofs/blob"
	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/proofs/slothash"
)

var (
	inclusionVerifiedCounter    = metrics.NewRegisteredCounter("anchorproof/compound/inclusion/verified", nil)
	inclusionRejectedCounter    = metrics.NewRegisteredCounter("anchorproof/compound/inclusion/rejected", nil)
	completenessVerifiedCounter = metrics.NewRegisteredCounter("anchorproof/compound/completeness/verified", nil)
	completenessRejectedCounter = metrics.NewRegisteredCounter("anchorproof/compound/completeness/rejected", nil)
	blobsVerifiedCounter        = metrics.NewRegisteredCounter("anchorproof/compound/blobs/verified", nil)
)

// ErrNoTrustAnchor rejects a verification with nothing trusted to tie the
// proof to the chain. A proof carries its own bank hash and slot history, so
// a forged proof is consistent with itself.
var ErrNoTrustAnchor = errors.Wrap(failure.ErrInvalidProofShape, "no trusted bank hash, blockhash or slot history")

// Expectations are values the caller trusts independently of the proof.
// At least one of BankHash, BlockHash or History must be set.
type Expectations struct {
	// Blobs holds the raw bytes of each blob, in proof order. A nil entry
	// skips the byte check for that blob.
	Blobs     [][]byte
	BankHash  *common.Hash
	BlockHash *common.Hash
	// History, when set, replaces the snapshot carried in the proof.
	History *slothash.History
}

// Check reports ErrNoTrustAnchor when no trusted value is set.
func (e *Expectations) Check() error {
	if e.BankHash == nil && e.BlockHash == nil && e.History == nil {
		return ErrNoTrustAnchor
	}
	return nil
}

type BlobInclusion struct {
	Blob    blob.Proof
	Account accounts.InclusionProof
}

// InclusionProof proves that every blob was recorded in the block at TargetSlot.
type InclusionProof struct {
	TargetSlot uint64
	BankHash   bankhash.Proof
	SlotHash   slothash.Proof
	Blobs      []BlobInclusion
}

// CompletenessProof proves that an account was not updated in the block at TargetSlot.
type CompletenessProof struct {
	TargetSlot uint64
	BankHash   bankhash.Proof
	SlotHash   slothash.Proof
	Exclusion  accounts.ExclusionProof
}

// Verify runs every stage in order and returns the first failure, tagged
// with its stage.
func (p *InclusionProof) Verify(cfg Config, exp Expectations) error {
	err := p.verify(&cfg, &exp)
	if err != nil {
		inclusionRejectedCounter.Inc(1)
		log.Debug("compound inclusion proof rejected", "slot", p.TargetSlot, "blobs", len(p.Blobs), "stage", failure.StageOf(err), "err", err)
		return err
	}
	inclusionVerifiedCounter.Inc(1)
	return nil
}

func (p *InclusionProof) verify(cfg *Config, exp *Expectations) error {
	if len(p.Blobs) == 0 {
		return failure.AtStage(failure.StageBlobDigest, errors.Wrap(failure.ErrInvalidProofShape, "proof covers no blobs"))
	}
	if exp.Blobs != nil && len(exp.Blobs) != len(p.Blobs) {
		return failure.AtStage(failure.StageBlobDigest, errors.Wrapf(failure.ErrInvalidProofShape, "%d blobs supplied for a proof of %d", len(exp.Blobs), len(p.Blobs)))
	}

	roots := make([]common.Hash, len(p.Blobs))
	errs := make([]error, len(p.Blobs))
	var group errgroup.Group
	group.SetLimit(cfg.parallelism())
	for i := range p.Blobs {
		var data []byte
		if exp.Blobs != nil {
			data = exp.Blobs[i]
		}
		group.Go(func() error {
			roots[i], errs[i] = verifyBlob(cfg, &p.Blobs[i], data)
			return nil
		})
	}
	_ = group.Wait()
	// Report the lowest failing index regardless of scheduling.
	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "blob %d", i)
		}
	}
	blobsVerifiedCounter.Inc(int64(len(p.Blobs)))

	for i, root := range roots {
		if root != p.BankHash.AccountsDeltaHash {
			return failure.AtStage(failure.StageBankHash, errors.Wrapf(failure.Mismatch("accounts delta hash", p.BankHash.AccountsDeltaHash, root), "blob %d", i))
		}
	}
	return verifyBlock(cfg, exp, p.TargetSlot, &p.BankHash, &p.SlotHash)
}

func verifyBlob(cfg *Config, b *BlobInclusion, data []byte) (common.Hash, error) {
	if data != nil {
		if err := b.Blob.Verify(cfg.Blob, data); err != nil {
			return common.Hash{}, failure.AtStage(failure.StageBlobDigest, err)
		}
	}
	if leaf := cfg.blobLeaf(&b.Blob); leaf != b.Account.Leaf {
		return common.Hash{}, failure.AtStage(failure.StageAccountMembership, failure.Mismatch("blob account leaf", leaf, b.Account.Leaf))
	}
	root, err := b.Account.Root(cfg.Tree)
	if err != nil {
		return common.Hash{}, failure.AtStage(failure.StageAccountMembership, err)
	}
	return root, nil
}

// verifyBlock checks the bank hash against the caller's expectations and
// that the slot history records it at slot.
func verifyBlock(cfg *Config, exp *Expectations, slot uint64, bank *bankhash.Proof, slotHash *slothash.Proof) error {
	if err := exp.Check(); err != nil {
		return failure.AtStage(failure.StageBankHash, err)
	}
	bankHash := bank.Hash(cfg.BankHasher)
	if exp.BankHash != nil && *exp.BankHash != bankHash {
		return failure.AtStage(failure.StageBankHash, failure.Mismatch("bank hash", *exp.BankHash, bankHash))
	}
	if exp.BlockHash != nil && *exp.BlockHash != bank.BlockHash {
		return failure.AtStage(failure.StageBankHash, failure.Mismatch("blockhash", *exp.BlockHash, bank.BlockHash))
	}
	var err error
	if exp.History != nil {
		err = exp.History.Verify(slot, bankHash)
	} else {
		err = slotHash.Verify(slot, bankHash)
	}
	return failure.AtStage(failure.StageSlotHistory, err)
}

// Verify checks that excluded is absent from the block's account tree, then
// checks the block itself as for inclusion.
func (p *CompletenessProof) Verify(cfg Config, excluded common.Hash, exp Expectations) error {
	err := p.verify(&cfg, excluded, &exp)
	if err != nil {
		completenessRejectedCounter.Inc(1)
		log.Debug("compound completeness proof rejected", "slot", p.TargetSlot, "excluded", excluded, "stage", failure.StageOf(err), "err", err)
		return err
	}
	completenessVerifiedCounter.Inc(1)
	return nil
}

func (p *CompletenessProof) verify(cfg *Config, excluded common.Hash, exp *Expectations) error {
	err := accounts.VerifyExclusion(cfg.Tree, p.Exclusion, excluded, p.BankHash.AccountsDeltaHash)
	if errors.Is(err, failure.ErrHashMismatch) {
		// The paths are well formed but lead to a different root.
		return failure.AtStage(failure.StageBankHash, err)
	}
	if err != nil {
		return failure.AtStage(failure.StageAccountMembership, err)
	}
	return verifyBlock(cfg, exp, p.TargetSlot, &p.BankHash, &p.SlotHash)
}

// Block is what a builder knows about the block at Slot.
type Block struct {
	Slot uint64
	Tree *accounts.Tree
	// BankHash.AccountsDeltaHash must equal the tree root.
	BankHash bankhash.Proof
	History  *slothash.History
}

func (b *Block) check(cfg *Config) error {
	if b.Tree == nil || b.History == nil {
		return errors.Wrap(failure.ErrStructural, "block is missing its account tree or slot history")
	}
	if root := b.Tree.Root(); root != b.BankHash.AccountsDeltaHash {
		return failure.AtStage(failure.StageBankHash, failure.Mismatch("accounts delta hash", b.BankHash.AccountsDeltaHash, root))
	}
	return failure.AtStage(failure.StageSlotHistory, b.History.Verify(b.Slot, b.BankHash.Hash(cfg.BankHasher)))
}

// BuildInclusion proves that each of blobs is recorded in block.
func BuildInclusion(cfg Config, block Block, blobs [][]byte) (*InclusionProof, error) {
	if len(blobs) == 0 {
		return nil, failure.ErrEmptyInput
	}
	if err := block.check(&cfg); err != nil {
		return nil, err
	}
	proof := &InclusionProof{
		TargetSlot: block.Slot,
		BankHash:   block.BankHash,
		SlotHash:   slothash.Proof{Slot: block.Slot, History: block.History},
		Blobs:      make([]BlobInclusion, 0, len(blobs)),
	}
	for i, data := range blobs {
		b, err := blob.New(cfg.Blob, data)
		if err != nil {
			return nil, failure.AtStage(failure.StageBlobDigest, errors.Wrapf(err, "blob %d", i))
		}
		account, err := block.Tree.ProveInclusion(cfg.blobLeaf(b))
		if err != nil {
			return nil, failure.AtStage(failure.StageAccountMembership, errors.Wrapf(err, "blob %d", i))
		}
		proof.Blobs = append(proof.Blobs, BlobInclusion{Blob: *b, Account: *account})
	}
	return proof, nil
}

// BuildCompleteness proves that excluded is not a leaf of block's tree.
func BuildCompleteness(cfg Config, block Block, excluded common.Hash) (*CompletenessProof, error) {
	if err := block.check(&cfg); err != nil {
		return nil, err
	}
	exclusion, err := block.Tree.ProveExclusion(excluded)
	if err != nil {
		return nil, failure.AtStage(failure.StageAccountMembership, err)
	}
	return &CompletenessProof{
		TargetSlot: block.Slot,
		BankHash:   block.BankHash,
		SlotHash:   slothash.Proof{Slot: block.Slot, History: block.History},
		Exclusion:  exclusion,
	}, nil
}
