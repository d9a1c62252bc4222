// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package compound

import (
	"runtime"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/anchorproof/proofs/accounts"
	"github.com/offchainlabs/anchorproof/proofs/blob"
	"github.com/offchainlabs/anchorproof/proofs/digest"
	"github.com/offchainlabs/anchorproof/proofs/slothash"
	"github.com/offchainlabs/anchorproof/util/hashing"
)

// Config is shared by the builder and the verifier of compound proofs.
type Config struct {
	Tree       accounts.TreeConfig
	Blob       blob.Config
	BankHasher hashing.Hasher
	// BlobLeaf maps a blob's recorded state to the account leaf it appears as.
	// Defaults to the tree hasher over the blob account data.
	BlobLeaf    func(*blob.Proof) common.Hash
	Parallelism int
}

func DefaultConfig() Config {
	return Config{
		Tree:       accounts.DefaultTreeConfig(),
		Blob:       blob.DefaultConfig(),
		BankHasher: hashing.SHA256,
	}
}

func (c *Config) blobLeaf(p *blob.Proof) common.Hash {
	if c.BlobLeaf != nil {
		return c.BlobLeaf(p)
	}
	return p.Leaf(c.Tree.Hasher)
}

func (c *Config) parallelism() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// VerifierConfig is the flag and file facing form of Config.
type VerifierConfig struct {
	Hash             string `koanf:"hash"`
	Fanout           int    `koanf:"fanout"`
	PadTrailing      bool   `koanf:"pad-trailing"`
	EmptyChild       string `koanf:"empty-child"`
	DomainSeparation bool   `koanf:"domain-separation"`
	ChunkSize        int    `koanf:"chunk-size"`
	MaxChunks        int    `koanf:"max-chunks"`
	PlainDigest      bool   `koanf:"plain-digest"`
	HistoryWindow    int    `koanf:"history-window"`
	Parallelism      int    `koanf:"parallelism"`
}

var DefaultVerifierConfig = VerifierConfig{
	Hash:             hashing.NameSHA256,
	Fanout:           accounts.DefaultFanout,
	PadTrailing:      false,
	EmptyChild:       "",
	DomainSeparation: true,
	ChunkSize:        blob.DefaultChunkSize,
	MaxChunks:        blob.DefaultMaxChunks,
	PlainDigest:      false,
	HistoryWindow:    slothash.DefaultWindow,
	Parallelism:      0,
}

func VerifierConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".hash", DefaultVerifierConfig.Hash, "hash function for trees, digests and bank hashes (sha256 or keccak256)")
	f.Int(prefix+".fanout", DefaultVerifierConfig.Fanout, "account tree fanout")
	f.Bool(prefix+".pad-trailing", DefaultVerifierConfig.PadTrailing, "pad under-full trailing tree groups with the empty child")
	f.String(prefix+".empty-child", DefaultVerifierConfig.EmptyChild, "hash used to pad trailing tree groups (defaults to the zero hash)")
	f.Bool(prefix+".domain-separation", DefaultVerifierConfig.DomainSeparation, "prefix leaf and node hashes so interior nodes cannot pose as leaves")
	f.Int(prefix+".chunk-size", DefaultVerifierConfig.ChunkSize, "blob chunk size in bytes")
	f.Int(prefix+".max-chunks", DefaultVerifierConfig.MaxChunks, "maximum number of chunks in one blob (0 for no limit)")
	f.Bool(prefix+".plain-digest", DefaultVerifierConfig.PlainDigest, "fold chunk payloads without the seed and chunk index")
	f.Int(prefix+".history-window", DefaultVerifierConfig.HistoryWindow, "number of recent slots a slot history retains")
	f.Int(prefix+".parallelism", DefaultVerifierConfig.Parallelism, "blobs verified concurrently (0 for one per CPU)")
}

func (c *VerifierConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.Errorf("invalid chunk size %d", c.ChunkSize)
	}
	if c.HistoryWindow <= 0 {
		return errors.Errorf("invalid history window %d", c.HistoryWindow)
	}
	if c.Parallelism < 0 {
		return errors.Errorf("invalid parallelism %d", c.Parallelism)
	}
	cfg, err := c.Build()
	if err != nil {
		return err
	}
	return cfg.Tree.Validate()
}

// Build resolves the hash name and assembles a Config.
func (c *VerifierConfig) Build() (Config, error) {
	hasher, err := hashing.ByName(c.Hash)
	if err != nil {
		return Config{}, err
	}
	var emptyChild common.Hash
	if c.EmptyChild != "" {
		emptyChild, err = hashing.ParseHash(c.EmptyChild)
		if err != nil {
			return Config{}, errors.Wrap(err, "empty child")
		}
	}
	digestConfig := digest.BloberConfig()
	if c.PlainDigest {
		digestConfig = digest.DefaultConfig()
	}
	digestConfig.Hasher = hasher
	if digestConfig.Seed != nil {
		seed := hasher()
		digestConfig.Seed = &seed
	}
	return Config{
		Tree: accounts.TreeConfig{
			Fanout:           c.Fanout,
			Hasher:           hasher,
			PadTrailing:      c.PadTrailing,
			EmptyChild:       emptyChild,
			EmptyRoot:        hasher(),
			DomainSeparation: c.DomainSeparation,
		},
		Blob: blob.Config{
			ChunkSize: c.ChunkSize,
			MaxChunks: c.MaxChunks,
			Digest:    digestConfig,
		},
		BankHasher:  hasher,
		Parallelism: c.Parallelism,
	}, nil
}
