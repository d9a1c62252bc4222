// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package proofcache stores encoded proofs so a query layer can build a
// proof once and serve it many times.
package proofcache

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	Get(ctx context.Context, key common.Hash) ([]byte, error)
	Put(ctx context.Context, key common.Hash, value []byte) error
	Close(ctx context.Context) error
	fmt.Stringer
}
