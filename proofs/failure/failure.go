// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package failure holds the error kinds shared by every proof builder and
// verifier, and the stage tag that tells a caller which part of a compound
// proof rejected.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrStructural         = errors.New("structural error")
	ErrEmptyInput         = errors.New("empty input")
	ErrIndexGap           = errors.New("chunk index gap")
	ErrDuplicateIndex     = errors.New("duplicate chunk index")
	ErrHashMismatch       = errors.New("hash mismatch")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrAdjacencyViolation = errors.New("adjacency violation")
	ErrInvalidProofShape  = errors.New("invalid proof shape")
)

type Stage uint8

const (
	StageUnknown Stage = iota
	StageChunkValidation
	StageBlobDigest
	StageAccountMembership
	StageBankHash
	StageSlotHistory
)

func (s Stage) String() string {
	switch s {
	case StageChunkValidation:
		return "chunk validation"
	case StageBlobDigest:
		return "blob digest"
	case StageAccountMembership:
		return "account membership"
	case StageBankHash:
		return "bank hash"
	case StageSlotHistory:
		return "slot history"
	default:
		return "unknown stage"
	}
}

// Error is a failure attributed to one verification stage.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AtStage tags err with stage. A nil error stays nil, and an error that
// already carries a stage keeps the innermost one.
func AtStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var staged *Error
	if errors.As(err, &staged) {
		return err
	}
	return &Error{Stage: stage, Err: err}
}

// StageOf reports the stage err was attributed to, or StageUnknown.
func StageOf(err error) Stage {
	var staged *Error
	if errors.As(err, &staged) {
		return staged.Stage
	}
	return StageUnknown
}

// Mismatch wraps ErrHashMismatch with the two differing values.
func Mismatch(what string, expected, found fmt.Stringer) error {
	return errors.Wrapf(ErrHashMismatch, "%s: expected %v, found %v", what, expected, found)
}
