// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package failure

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
)

func TestAtStage(t *testing.T) {
	require.NoError(t, AtStage(StageBankHash, nil))

	err := AtStage(StageBankHash, Mismatch("bank hash", common.Hash{1}, common.Hash{2}))
	require.ErrorIs(t, err, ErrHashMismatch)
	require.Equal(t, StageBankHash, StageOf(err))
	require.Contains(t, err.Error(), "bank hash: bank hash: expected")

	// The innermost stage wins through further wrapping.
	outer := AtStage(StageSlotHistory, errors.Wrap(err, "blob 3"))
	require.Equal(t, StageBankHash, StageOf(outer))
	require.ErrorIs(t, outer, ErrHashMismatch)
}

func TestStageOfUntagged(t *testing.T) {
	require.Equal(t, StageUnknown, StageOf(ErrSlotNotFound))
	require.Equal(t, "unknown stage", StageUnknown.String())
	require.Equal(t, "account membership", StageAccountMembership.String())
}
