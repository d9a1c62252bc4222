// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package proofcache

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/anchorproof/util/stopwaiter"
)

type BadgerConfig struct {
	Enable     bool          `koanf:"enable"`
	DataDir    string        `koanf:"data-dir"`
	InMemory   bool          `koanf:"in-memory"`
	TTL        time.Duration `koanf:"ttl"`
	GCInterval time.Duration `koanf:"gc-interval"`
}

var DefaultBadgerConfig = BadgerConfig{
	Enable:     false,
	DataDir:    "",
	InMemory:   false,
	TTL:        0,
	GCInterval: 5 * time.Minute,
}

func BadgerConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultBadgerConfig.Enable, "store proofs in a badger database")
	f.String(prefix+".data-dir", DefaultBadgerConfig.DataDir, "directory in which to store the database")
	f.Bool(prefix+".in-memory", DefaultBadgerConfig.InMemory, "keep the database in memory only")
	f.Duration(prefix+".ttl", DefaultBadgerConfig.TTL, "discard stored proofs after this long (0 keeps them forever)")
	f.Duration(prefix+".gc-interval", DefaultBadgerConfig.GCInterval, "interval between value log garbage collections")
}

func (c *BadgerConfig) Validate() error {
	if c.Enable && !c.InMemory && c.DataDir == "" {
		return errors.New("badger proof cache needs a data dir unless it is in memory")
	}
	return nil
}

// badgerLogger routes badger's own logging into the process logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error("badger: " + fmt.Sprintf(format, args...))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn("badger: " + fmt.Sprintf(format, args...))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debug("badger: " + fmt.Sprintf(format, args...))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Trace("badger: " + fmt.Sprintf(format, args...))
}

type BadgerStore struct {
	stopwaiter.StopWaiter
	db     *badger.DB
	config BadgerConfig
}

func NewBadgerStore(ctx context.Context, config BadgerConfig) (*BadgerStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(config.DataDir)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	db, err := badger.Open(opts.WithLogger(badgerLogger{}))
	if err != nil {
		return nil, err
	}
	ret := &BadgerStore{
		db:     db,
		config: config,
	}
	if err := ret.Start(ctx, ret); err != nil {
		_ = db.Close()
		return nil, err
	}
	if !config.InMemory && config.GCInterval > 0 {
		if err := ret.CallIteratively(ret.collectGarbage); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return ret, nil
}

func (b *BadgerStore) collectGarbage(ctx context.Context) time.Duration {
	for ctx.Err() == nil {
		if err := b.db.RunValueLogGC(0.7); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				log.Warn("proof cache value log GC failed", "err", err, "this", b)
			}
			break
		}
	}
	return b.config.GCInterval
}

func (b *BadgerStore) Get(ctx context.Context, key common.Hash) ([]byte, error) {
	log.Trace("proofcache.BadgerStore.Get", "key", key, "this", b)
	var ret []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.Bytes())
		if err != nil {
			return err
		}
		ret, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return ret, err
}

func (b *BadgerStore) Put(ctx context.Context, key common.Hash, value []byte) error {
	log.Trace("proofcache.BadgerStore.Put", "key", key, "size", len(value), "this", b)
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key.Bytes(), value)
		if b.config.TTL > 0 {
			e = e.WithTTL(b.config.TTL)
		}
		return txn.SetEntry(e)
	})
}

func (b *BadgerStore) Close(ctx context.Context) error {
	b.StopAndWait()
	return b.db.Close()
}

func (b *BadgerStore) String() string {
	if b.config.InMemory {
		return "BadgerStore(in-memory)"
	}
	return "BadgerStore(" + b.config.DataDir + ")"
}
