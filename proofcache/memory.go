// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package proofcache

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/anchorproof/util/containers"
)

type MemoryConfig struct {
	Enable   bool `koanf:"enable"`
	Capacity int  `koanf:"capacity"`
}

var DefaultMemoryConfig = MemoryConfig{
	Enable:   true,
	Capacity: 1024,
}

func MemoryConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultMemoryConfig.Enable, "keep proofs in an in-memory LRU cache")
	f.Int(prefix+".capacity", DefaultMemoryConfig.Capacity, "maximum number of proofs kept in memory")
}

type MemoryStore struct {
	cache    *containers.LruCache[common.Hash, []byte]
	capacity int
}

func NewMemoryStore(config MemoryConfig) *MemoryStore {
	return &MemoryStore{
		cache:    containers.NewLruCache[common.Hash, []byte](config.Capacity),
		capacity: config.Capacity,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key common.Hash) ([]byte, error) {
	log.Trace("proofcache.MemoryStore.Get", "key", key)
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, value...), nil
}

func (m *MemoryStore) Put(ctx context.Context, key common.Hash, value []byte) error {
	log.Trace("proofcache.MemoryStore.Put", "key", key, "size", len(value))
	m.cache.Add(key, append([]byte{}, value...))
	return nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	m.cache.Clear()
	return nil
}

func (m *MemoryStore) String() string {
	return fmt.Sprintf("MemoryStore(capacity:%d)", m.capacity)
}
