// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/anchorproof/cmd/util/confighelpers"
	"github.com/offchainlabs/anchorproof/proofcache"
	"github.com/offchainlabs/anchorproof/proofs/accounts"
	"github.com/offchainlabs/anchorproof/proofs/bankhash"
	"github.com/offchainlabs/anchorproof/proofs/blob"
	"github.com/offchainlabs/anchorproof/proofs/compound"
	"github.com/offchainlabs/anchorproof/proofs/failure"
	"github.com/offchainlabs/anchorproof/proofs/slothash"
	"github.com/offchainlabs/anchorproof/proofs/wire"
	"github.com/offchainlabs/anchorproof/util/colors"
	"github.com/offchainlabs/anchorproof/util/hashing"
)

type DigestConfig struct {
	CommonConfig `koanf:",squash"`
	File         []string `koanf:"file"`
}

func digestBlobs(args []string, out io.Writer) error {
	k, err := beginParse("digest", args, func(f *flag.FlagSet) {
		f.StringSlice("file", nil, "blob files to digest")
	})
	if err != nil {
		return err
	}
	var config DigestConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return err
	}
	cfg, err := config.apply(k)
	if err != nil {
		return err
	}
	if len(config.File) == 0 {
		return errors.New("--file is required")
	}
	blobs, err := readBlobs(config.File)
	if err != nil {
		return err
	}
	for i, data := range blobs {
		p, err := blob.New(cfg.Blob, data)
		if err != nil {
			return fmt.Errorf("%v: %w", config.File[i], err)
		}
		fmt.Fprintf(out, "%v: digest=%v (%v) size=%d leaf=%v\n", config.File[i], p.Digest.Hex(), hashing.Base58(p.Digest), p.Size, p.Leaf(cfg.Tree.Hasher).Hex())
	}
	return nil
}

// ExpectationConfig names the trusted inputs a verify command accepts. At
// least one must be given.
type ExpectationConfig struct {
	BankHash  string `koanf:"bank-hash"`
	BlockHash string `koanf:"block-hash"`
	History   string `koanf:"history"`
}

func ExpectationConfigAddOptions(f *flag.FlagSet) {
	f.String("bank-hash", "", "trusted bank hash of the target slot (hex or base58)")
	f.String("block-hash", "", "trusted blockhash of the target slot (hex or base58)")
	f.String("history", "", "file holding trusted SlotHashes sysvar bytes")
}

func (c *ExpectationConfig) expectations(window int) (compound.Expectations, error) {
	var exp compound.Expectations
	var err error
	if exp.BankHash, err = parseOptionalHash("bank-hash", c.BankHash); err != nil {
		return exp, err
	}
	if exp.BlockHash, err = parseOptionalHash("block-hash", c.BlockHash); err != nil {
		return exp, err
	}
	if exp.History, err = readHistory(c.History, window); err != nil {
		return exp, err
	}
	if err := exp.Check(); err != nil {
		return exp, fmt.Errorf("%w: pass at least one of --bank-hash, --block-hash or --history", err)
	}
	return exp, nil
}

type CacheConfig struct {
	CacheVerified bool              `koanf:"cache-verified"`
	ProofCache    proofcache.Config `koanf:"proof-cache"`
}

func CacheConfigAddOptions(f *flag.FlagSet) {
	f.Bool("cache-verified", false, "store the proof in the proof cache once it verifies")
	proofcache.ConfigAddOptions("proof-cache", f)
}

func (c *CacheConfig) store(put func(context.Context, *proofcache.Cache) error) error {
	if !c.CacheVerified {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cache, err := proofcache.NewCacheFromConfig(ctx, &c.ProofCache)
	if err != nil {
		return err
	}
	err = put(ctx, cache)
	if closeErr := cache.Close(ctx); err == nil {
		err = closeErr
	}
	if err == nil {
		log.Info("cached verified proof", "cache", cache)
	}
	return err
}

func report(out io.Writer, color bool, err error) error {
	if err != nil {
		fmt.Fprintf(out, "%s at %v: %v\n", colors.Sprint(colors.Red, color, "FAILED"), failure.StageOf(err), err)
		return err
	}
	fmt.Fprintln(out, colors.Sprint(colors.Mint, color, "OK"))
	return nil
}

type VerifyInclusionConfig struct {
	CommonConfig      `koanf:",squash"`
	ExpectationConfig `koanf:",squash"`
	CacheConfig       `koanf:",squash"`
	Proof             string   `koanf:"proof"`
	Blob              []string `koanf:"blob"`
}

func verifyInclusion(args []string, out io.Writer) error {
	k, err := beginParse("verify-inclusion", args, func(f *flag.FlagSet) {
		f.String("proof", "", "file holding the compound inclusion proof")
		f.StringSlice("blob", nil, "blob files, in proof order, to check against the recorded digests")
		ExpectationConfigAddOptions(f)
		CacheConfigAddOptions(f)
	})
	if err != nil {
		return err
	}
	var config VerifyInclusionConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return err
	}
	cfg, err := config.apply(k)
	if err != nil {
		return err
	}
	if config.Proof == "" {
		return errors.New("--proof is required")
	}
	data, err := readProofFile(config.Proof)
	if err != nil {
		return err
	}
	proof, err := wire.UnmarshalCompoundInclusion(data)
	if err != nil {
		return err
	}
	exp, err := config.expectations(config.Verifier.HistoryWindow)
	if err != nil {
		return err
	}
	if exp.Blobs, err = readBlobs(config.Blob); err != nil {
		return err
	}
	fmt.Fprintf(out, "inclusion of %d blobs at slot %d, bank hash %v\n", len(proof.Blobs), proof.TargetSlot, hashing.Base58(proof.BankHash.Hash(cfg.BankHasher)))
	if err := report(out, config.Color, proof.Verify(cfg, exp)); err != nil {
		return err
	}
	return config.store(func(ctx context.Context, cache *proofcache.Cache) error {
		return cache.PutInclusion(ctx, proof)
	})
}

type VerifyCompletenessConfig struct {
	CommonConfig      `koanf:",squash"`
	ExpectationConfig `koanf:",squash"`
	CacheConfig       `koanf:",squash"`
	Proof             string `koanf:"proof"`
	Excluded          string `koanf:"excluded"`
}

func verifyCompleteness(args []string, out io.Writer) error {
	k, err := beginParse("verify-completeness", args, func(f *flag.FlagSet) {
		f.String("proof", "", "file holding the compound completeness proof")
		f.String("excluded", "", "account hash the proof shows was not updated (hex or base58)")
		ExpectationConfigAddOptions(f)
		CacheConfigAddOptions(f)
	})
	if err != nil {
		return err
	}
	var config VerifyCompletenessConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return err
	}
	cfg, err := config.apply(k)
	if err != nil {
		return err
	}
	if config.Proof == "" || config.Excluded == "" {
		return errors.New("--proof and --excluded are required")
	}
	excluded, err := hashing.ParseHash(config.Excluded)
	if err != nil {
		return fmt.Errorf("--excluded: %w", err)
	}
	data, err := readProofFile(config.Proof)
	if err != nil {
		return err
	}
	proof, err := wire.UnmarshalCompoundCompleteness(data)
	if err != nil {
		return err
	}
	exp, err := config.expectations(config.Verifier.HistoryWindow)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "completeness for %v at slot %d, bank hash %v\n", hashing.Base58(excluded), proof.TargetSlot, hashing.Base58(proof.BankHash.Hash(cfg.BankHasher)))
	if err := report(out, config.Color, proof.Verify(cfg, excluded, exp)); err != nil {
		return err
	}
	return config.store(func(ctx context.Context, cache *proofcache.Cache) error {
		return cache.PutCompleteness(ctx, proof, excluded)
	})
}

type InspectConfig struct {
	CommonConfig `koanf:",squash"`
	Proof        string `koanf:"proof"`
}

func inspectProof(args []string, out io.Writer) error {
	k, err := beginParse("inspect", args, func(f *flag.FlagSet) {
		f.String("proof", "", "file holding any wire encoded proof")
	})
	if err != nil {
		return err
	}
	var config InspectConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return err
	}
	cfg, err := config.apply(k)
	if err != nil {
		return err
	}
	if config.Proof == "" {
		return errors.New("--proof is required")
	}
	data, err := readProofFile(config.Proof)
	if err != nil {
		return err
	}
	kind, err := wire.KindOf(data)
	if err != nil {
		return err
	}
	proof, err := wire.Unmarshal(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "kind: %v (%d bytes)\n", kind, len(data))
	describe(out, &cfg, proof)
	return nil
}

func describe(out io.Writer, cfg *compound.Config, proof interface{}) {
	switch p := proof.(type) {
	case *accounts.InclusionProof:
		describeInclusion(out, "", p)
	case accounts.EmptyExclusion:
		fmt.Fprintln(out, "exclusion from the empty tree")
	case accounts.LeftExclusion:
		fmt.Fprintln(out, "left of the leftmost leaf")
		describeInclusion(out, "  ", &p.Leftmost)
	case accounts.RightExclusion:
		fmt.Fprintln(out, "right of the rightmost leaf")
		describeInclusion(out, "  ", &p.Rightmost)
	case accounts.InnerExclusion:
		fmt.Fprintln(out, "between two adjacent leaves")
		describeInclusion(out, "  ", &p.Left)
		describeInclusion(out, "  ", &p.Right)
	case *blob.Proof:
		fmt.Fprintf(out, "blob: %v\n", p)
	case *bankhash.Proof:
		describeBank(out, cfg, p)
	case *slothash.Proof:
		describeSlotHash(out, p)
	case *compound.InclusionProof:
		fmt.Fprintf(out, "target slot: %d\n", p.TargetSlot)
		describeBank(out, cfg, &p.BankHash)
		describeSlotHash(out, &p.SlotHash)
		for i := range p.Blobs {
			fmt.Fprintf(out, "blob %d: %v\n", i, &p.Blobs[i].Blob)
			describeInclusion(out, "  ", &p.Blobs[i].Account)
		}
	case *compound.CompletenessProof:
		fmt.Fprintf(out, "target slot: %d\n", p.TargetSlot)
		describeBank(out, cfg, &p.BankHash)
		describeSlotHash(out, &p.SlotHash)
		describe(out, cfg, p.Exclusion)
	}
}

func describeInclusion(out io.Writer, indent string, p *accounts.InclusionProof) {
	fmt.Fprintf(out, "%sleaf %v, %d levels\n", indent, hashing.Base58(p.Leaf), len(p.Levels))
	for i, level := range p.Levels {
		fmt.Fprintf(out, "%s  level %d: index %d of %d\n", indent, i, level.Index, len(level.Siblings)+1)
	}
}

func describeBank(out io.Writer, cfg *compound.Config, p *bankhash.Proof) {
	fmt.Fprintf(out, "bank hash: %v\n", hashing.Base58(p.Hash(cfg.BankHasher)))
	fmt.Fprintf(out, "  parent: %v\n", hashing.Base58(p.ParentBankHash))
	fmt.Fprintf(out, "  accounts delta hash: %v\n", hashing.Base58(p.AccountsDeltaHash))
	fmt.Fprintf(out, "  signatures: %d\n", p.SignatureCount)
	fmt.Fprintf(out, "  blockhash: %v\n", hashing.Base58(p.BlockHash))
}

func describeSlotHash(out io.Writer, p *slothash.Proof) {
	fmt.Fprintf(out, "slot history: slot %d, %d of %d entries\n", p.Slot, p.History.Len(), p.History.Window())
}
