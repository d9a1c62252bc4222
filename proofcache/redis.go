// Copyright 2022-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package proofcache

import (
	"context"
	"crypto/hmac"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/anchorproof/util/redisutil"
)

type RedisConfig struct {
	Enable     bool          `koanf:"enable"`
	Url        string        `koanf:"url"`
	Expiration time.Duration `koanf:"expiration"`
	KeyConfig  string        `koanf:"key-config"`
}

var DefaultRedisConfig = RedisConfig{
	Enable:     false,
	Url:        "",
	Expiration: time.Hour,
	KeyConfig:  "",
}

func RedisConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultRedisConfig.Enable, "share cached proofs through redis")
	f.String(prefix+".url", DefaultRedisConfig.Url, "redis url (redis:// or redis+sentinel://)")
	f.Duration(prefix+".expiration", DefaultRedisConfig.Expiration, "expiration of proofs written to redis")
	f.String(prefix+".key-config", DefaultRedisConfig.KeyConfig, "32 byte hex key used to sign proofs written to redis")
}

var keyIsHexRegex = regexp.MustCompile("^(0x)?[a-fA-F0-9]{64}$")

// RedisStore fronts a base store with a shared redis. Entries are signed so
// a proof read back from redis is only trusted if this process could have
// written it.
type RedisStore struct {
	base       Store
	config     RedisConfig
	signingKey common.Hash
	client     redis.UniversalClient
}

func NewRedisStore(config RedisConfig, base Store) (*RedisStore, error) {
	client, err := redisutil.RedisClientFromURL(config.Url)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("redis proof cache needs a url")
	}
	if !keyIsHexRegex.MatchString(config.KeyConfig) {
		_ = client.Close()
		return nil, errors.New("redis signing key is not 32 bytes of hex")
	}
	return &RedisStore{
		base:       base,
		config:     config,
		signingKey: common.HexToHash(config.KeyConfig),
		client:     client,
	}, nil
}

func (rs *RedisStore) signMessage(message []byte) []byte {
	mac := hmac.New(sha3.NewLegacyKeccak256, rs.signingKey[:])
	mac.Write(message)
	return mac.Sum(append([]byte{}, message...))
}

func (rs *RedisStore) verifyMessageSignature(data []byte) ([]byte, error) {
	if len(data) < common.HashLength {
		return nil, errors.New("data is too short to contain message signature")
	}
	message := data[:len(data)-common.HashLength]
	mac := hmac.New(sha3.NewLegacyKeccak256, rs.signingKey[:])
	mac.Write(message)
	if !hmac.Equal(data[len(data)-common.HashLength:], mac.Sum(nil)) {
		return nil, errors.New("HMAC signature doesn't match expected value")
	}
	return message, nil
}

func (rs *RedisStore) getVerifiedData(ctx context.Context, key common.Hash) ([]byte, error) {
	data, err := rs.client.Get(ctx, key.Hex()).Bytes()
	if err != nil {
		return nil, err
	}
	return rs.verifyMessageSignature(data)
}

// Get reads through to the base store when redis has no valid entry, and
// refills redis from it.
func (rs *RedisStore) Get(ctx context.Context, key common.Hash) ([]byte, error) {
	ret, err := rs.getVerifiedData(ctx, key)
	if err == nil {
		return ret, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Warn("proofcache: ignoring redis entry", "key", key, "err", err)
	}
	ret, err = rs.base.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := rs.client.Set(ctx, key.Hex(), rs.signMessage(ret), rs.config.Expiration).Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (rs *RedisStore) Put(ctx context.Context, key common.Hash, value []byte) error {
	if err := rs.base.Put(ctx, key, value); err != nil {
		return err
	}
	return rs.client.Set(ctx, key.Hex(), rs.signMessage(value), rs.config.Expiration).Err()
}

func (rs *RedisStore) Close(ctx context.Context) error {
	if err := rs.client.Close(); err != nil {
		return err
	}
	return rs.base.Close(ctx)
}

func (rs *RedisStore) String() string {
	return fmt.Sprintf("RedisStore(%v, base:%v)", rs.config.Url, rs.base)
}
