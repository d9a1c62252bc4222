// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package redisutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/offchainlabs/anchorproof/util/testhelpers"
)

// CreateTestRedis provides the external redis url in TEST_REDIS when set,
// and otherwise starts a miniredis for the duration of the test.
func CreateTestRedis(t *testing.T) (string, *miniredis.Miniredis) {
	if redisUrl := os.Getenv("TEST_REDIS"); redisUrl != "" {
		return redisUrl, nil
	}
	redisServer, err := miniredis.Run()
	testhelpers.RequireImpl(t, err)
	t.Cleanup(redisServer.Close)
	return fmt.Sprintf("redis://%s/0", redisServer.Addr()), redisServer
}
