// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/offchainlabs/anchorproof/proofs/slothash"
	"github.com/offchainlabs/anchorproof/util/hashing"
)

// readProofFile accepts raw wire bytes or a 0x prefixed hex dump of them.
func readProofFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("0x")) {
		decoded, err := hexutil.Decode(string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("proof file %v: %w", path, err)
		}
		return decoded, nil
	}
	return data, nil
}

func readBlobs(paths []string) ([][]byte, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	blobs := make([][]byte, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		blobs[i] = data
	}
	return blobs, nil
}

func readHistory(path string, window int) (*slothash.History, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	history, err := slothash.DecodeSysvar(data, window)
	if err != nil {
		return nil, fmt.Errorf("history file %v: %w", path, err)
	}
	return history, nil
}

func parseOptionalHash(name, value string) (*common.Hash, error) {
	if value == "" {
		return nil, nil
	}
	h, err := hashing.ParseHash(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &h, nil
}
