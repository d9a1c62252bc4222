// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package proofcache

import (
	"context"

	"github.com/andybalholm/brotli"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"
)

type CompressionConfig struct {
	// Level is a brotli quality; negative disables compression.
	Level               int `koanf:"level"`
	MinSize             int `koanf:"min-size"`
	MaxDecompressedSize int `koanf:"max-decompressed-size"`
}

var DefaultCompressionConfig = CompressionConfig{
	Level:               brotli.DefaultCompression,
	MinSize:             256,
	MaxDecompressedSize: 16 * 1024 * 1024,
}

func CompressionConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Int(prefix+".level", DefaultCompressionConfig.Level, "brotli level for stored proofs (negative to store them raw)")
	f.Int(prefix+".min-size", DefaultCompressionConfig.MinSize, "proofs smaller than this are stored raw")
	f.Int(prefix+".max-decompressed-size", DefaultCompressionConfig.MaxDecompressedSize, "largest proof a stored entry may decompress to")
}

type Config struct {
	Memory      MemoryConfig      `koanf:"memory"`
	Badger      BadgerConfig      `koanf:"badger"`
	Redis       RedisConfig       `koanf:"redis"`
	Compression CompressionConfig `koanf:"compression"`
}

var DefaultConfig = Config{
	Memory:      DefaultMemoryConfig,
	Badger:      DefaultBadgerConfig,
	Redis:       DefaultRedisConfig,
	Compression: DefaultCompressionConfig,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	MemoryConfigAddOptions(prefix+".memory", f)
	BadgerConfigAddOptions(prefix+".badger", f)
	RedisConfigAddOptions(prefix+".redis", f)
	CompressionConfigAddOptions(prefix+".compression", f)
}

func (c *Config) Enabled() bool {
	return c.Memory.Enable || c.Badger.Enable
}

func (c *Config) Validate() error {
	if c.Redis.Enable && !c.Enabled() {
		return errors.New("redis proof cache needs a memory or badger store behind it")
	}
	if c.Memory.Enable && c.Memory.Capacity <= 0 {
		return errors.Errorf("invalid memory cache capacity %d", c.Memory.Capacity)
	}
	if c.Compression.Level > brotli.BestCompression {
		return errors.Errorf("invalid brotli level %d", c.Compression.Level)
	}
	if c.Compression.MaxDecompressedSize <= 0 {
		return errors.Errorf("invalid max decompressed size %d", c.Compression.MaxDecompressedSize)
	}
	return c.Badger.Validate()
}

// NewStoreFromConfig opens badger when it is enabled, and the memory store
// otherwise. Redis, when enabled, fronts whichever was opened.
func NewStoreFromConfig(ctx context.Context, config *Config) (Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var store Store
	switch {
	case config.Badger.Enable:
		badgerStore, err := NewBadgerStore(ctx, config.Badger)
		if err != nil {
			return nil, err
		}
		store = badgerStore
	case config.Memory.Enable:
		store = NewMemoryStore(config.Memory)
	default:
		return nil, errors.New("no proof cache store is enabled")
	}
	if config.Redis.Enable {
		redisStore, err := NewRedisStore(config.Redis, store)
		if err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		store = redisStore
	}
	log.Info("opened proof cache", "store", store)
	return store, nil
}

func NewCacheFromConfig(ctx context.Context, config *Config) (*Cache, error) {
	store, err := NewStoreFromConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewCache(store, &config.Compression), nil
}
