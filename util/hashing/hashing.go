// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package hashing

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/ethereum/go-ethereum/common"
)

// Hasher hashes the concatenation of its arguments into a 32 byte digest.
type Hasher func(data ...[]byte) common.Hash

const (
	NameSHA256    = "sha256"
	NameKeccak256 = "keccak256"
)

// SHA256 is the hashv primitive used for account trees, bank hashes and blob digests.
func SHA256(data ...[]byte) common.Hash {
	var ret common.Hash
	hash := sha256.New()
	for _, b := range data {
		// hash.Hash never returns an error on Write
		_, _ = hash.Write(b)
	}
	hash.Sum(ret[:0])
	return ret
}

func SoliditySHA3(data ...[]byte) common.Hash {
	var ret common.Hash
	hash := sha3.NewLegacyKeccak256()
	for _, b := range data {
		_, err := hash.Write(b)
		if err != nil {
			// This code should never be reached
			panic("Error writing SoliditySHA3 data")
		}
	}
	hash.Sum(ret[:0])
	return ret
}

// ByName resolves a hasher from its configuration name.
func ByName(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case NameSHA256, "":
		return SHA256, nil
	case NameKeccak256, "keccak":
		return SoliditySHA3, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q, valid values are %s and %s", name, NameSHA256, NameKeccak256)
	}
}

// ParseHash accepts either 0x-prefixed hex or base58, the textual form chains like Solana print hashes in.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		raw := s[2:]
		if len(raw) != 2*common.HashLength {
			return common.Hash{}, fmt.Errorf("hex hash %q must have %d digits", s, 2*common.HashLength)
		}
		return common.HexToHash(s), validHex(raw)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "invalid base58 hash %q", s)
	}
	if len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("base58 hash %q decodes to %d bytes, want %d", s, len(raw), common.HashLength)
	}
	return common.BytesToHash(raw), nil
}

// Base58 renders a hash the way Solana tooling prints it.
func Base58(h common.Hash) string {
	return base58.Encode(h[:])
}

func validHex(s string) error {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return fmt.Errorf("invalid hex digit %q", c)
		}
	}
	return nil
}
