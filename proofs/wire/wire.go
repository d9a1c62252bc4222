// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package wire encodes proofs as versioned, kind-tagged RLP envelopes so
// they can be stored and exchanged between builders and verifiers.
package wire

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/offchainlabs/anchorproof/proofs/accounts"
	"github.com/offchainlabs/anchorproof/proofs/bankhash"
	"github.com/offchainlabs/anchorproof/proofs/blob"
	"github.com/offchainlabs/anchorproof/proofs/compound"
	"github.com/offchainlabs/anchorproof/proofs/slothash"
)

const Version uint8 = 1

type Kind uint8

const (
	KindInclusion Kind = iota + 1
	KindExclusionEmpty
	KindExclusionLeft
	KindExclusionRight
	KindExclusionInner
	KindBlob
	KindBankHash
	KindSlotHash
	KindCompoundInclusion
	KindCompoundCompleteness
)

var kindNames = map[Kind]string{
	KindInclusion:            "inclusion",
	KindExclusionEmpty:       "exclusion-empty",
	KindExclusionLeft:        "exclusion-left",
	KindExclusionRight:       "exclusion-right",
	KindExclusionInner:       "exclusion-inner",
	KindBlob:                 "blob",
	KindBankHash:             "bank-hash",
	KindSlotHash:             "slot-hash",
	KindCompoundInclusion:    "compound-inclusion",
	KindCompoundCompleteness: "compound-completeness",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

func (k Kind) IsExclusion() bool {
	return k >= KindExclusionEmpty && k <= KindExclusionInner
}

var (
	ErrUnknownVersion = errors.New("unknown proof encoding version")
	ErrUnknownKind    = errors.New("unknown proof kind")
	ErrKindMismatch   = errors.New("unexpected proof kind")
)

type envelope struct {
	Version uint8
	Kind    Kind
	Payload rlp.RawValue
}

type slotHashPayload struct {
	Slot    uint64
	Window  uint64
	Entries []slothash.Entry
}

type innerPayload struct {
	Left  accounts.InclusionProof
	Right accounts.InclusionProof
}

type compoundInclusionPayload struct {
	TargetSlot uint64
	BankHash   bankhash.Proof
	SlotHash   slotHashPayload
	Blobs      []compound.BlobInclusion
}

type completenessPayload struct {
	TargetSlot uint64
	BankHash   bankhash.Proof
	SlotHash   slotHashPayload
	// Exclusion is a complete envelope of one of the exclusion kinds.
	Exclusion rlp.RawValue
}

func seal(kind Kind, payload interface{}) ([]byte, error) {
	raw, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %v payload", kind)
	}
	return rlp.EncodeToBytes(&envelope{Version: Version, Kind: kind, Payload: raw})
}

func fromSlotHash(p *slothash.Proof) (slotHashPayload, error) {
	if p.History == nil {
		return slotHashPayload{}, errors.New("slot hash proof has no history")
	}
	return slotHashPayload{
		Slot:    p.Slot,
		Window:  uint64(p.History.Window()),
		Entries: p.History.Entries(),
	}, nil
}

func (s *slotHashPayload) proof() (*slothash.Proof, error) {
	if s.Window > uint64(1<<20) {
		return nil, errors.Errorf("slot history window %d too large", s.Window)
	}
	history, err := slothash.NewHistory(s.Entries, int(s.Window))
	if err != nil {
		return nil, err
	}
	return &slothash.Proof{Slot: s.Slot, History: history}, nil
}

func exclusionPayload(proof accounts.ExclusionProof) (Kind, interface{}, error) {
	switch p := proof.(type) {
	case accounts.EmptyExclusion:
		return KindExclusionEmpty, struct{}{}, nil
	case accounts.LeftExclusion:
		return KindExclusionLeft, &p.Leftmost, nil
	case accounts.RightExclusion:
		return KindExclusionRight, &p.Rightmost, nil
	case accounts.InnerExclusion:
		return KindExclusionInner, &innerPayload{Left: p.Left, Right: p.Right}, nil
	default:
		return 0, nil, errors.Errorf("cannot encode exclusion proof %T", proof)
	}
}

// Marshal encodes any proof of this module, by value or by pointer.
func Marshal(proof interface{}) ([]byte, error) {
	switch p := proof.(type) {
	case *accounts.InclusionProof:
		return seal(KindInclusion, p)
	case accounts.InclusionProof:
		return seal(KindInclusion, &p)
	case accounts.ExclusionProof:
		kind, payload, err := exclusionPayload(p)
		if err != nil {
			return nil, err
		}
		return seal(kind, payload)
	case *blob.Proof:
		return seal(KindBlob, p)
	case blob.Proof:
		return seal(KindBlob, &p)
	case *bankhash.Proof:
		return seal(KindBankHash, p)
	case bankhash.Proof:
		return seal(KindBankHash, &p)
	case *slothash.Proof:
		payload, err := fromSlotHash(p)
		if err != nil {
			return nil, err
		}
		return seal(KindSlotHash, &payload)
	case slothash.Proof:
		return Marshal(&p)
	case *compound.InclusionProof:
		slotHash, err := fromSlotHash(&p.SlotHash)
		if err != nil {
			return nil, err
		}
		return seal(KindCompoundInclusion, &compoundInclusionPayload{
			TargetSlot: p.TargetSlot,
			BankHash:   p.BankHash,
			SlotHash:   slotHash,
			Blobs:      p.Blobs,
		})
	case compound.InclusionProof:
		return Marshal(&p)
	case *compound.CompletenessProof:
		slotHash, err := fromSlotHash(&p.SlotHash)
		if err != nil {
			return nil, err
		}
		exclusion, err := Marshal(p.Exclusion)
		if err != nil {
			return nil, err
		}
		return seal(KindCompoundCompleteness, &completenessPayload{
			TargetSlot: p.TargetSlot,
			BankHash:   p.BankHash,
			SlotHash:   slotHash,
			Exclusion:  exclusion,
		})
	case compound.CompletenessProof:
		return Marshal(&p)
	default:
		return nil, errors.Errorf("cannot encode %T", proof)
	}
}

func open(data []byte) (*envelope, error) {
	var env envelope
	if err := rlp.DecodeBytes(data, &env); err != nil {
		return nil, errors.Wrap(err, "decoding proof envelope")
	}
	if env.Version != Version {
		return nil, errors.Wrapf(ErrUnknownVersion, "version %d", env.Version)
	}
	if _, ok := kindNames[env.Kind]; !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "kind %d", uint8(env.Kind))
	}
	return &env, nil
}

func openKind(data []byte, want Kind) (*envelope, error) {
	env, err := open(data)
	if err != nil {
		return nil, err
	}
	if env.Kind != want {
		return nil, errors.Wrapf(ErrKindMismatch, "want %v, got %v", want, env.Kind)
	}
	return env, nil
}

// KindOf reads the kind of an encoded proof without decoding its payload.
func KindOf(data []byte) (Kind, error) {
	env, err := open(data)
	if err != nil {
		return 0, err
	}
	return env.Kind, nil
}

func UnmarshalInclusion(data []byte) (*accounts.InclusionProof, error) {
	env, err := openKind(data, KindInclusion)
	if err != nil {
		return nil, err
	}
	var proof accounts.InclusionProof
	if err := rlp.DecodeBytes(env.Payload, &proof); err != nil {
		return nil, errors.Wrap(err, "decoding inclusion proof")
	}
	return &proof, nil
}

// UnmarshalExclusion decodes any of the exclusion kinds.
func UnmarshalExclusion(data []byte) (accounts.ExclusionProof, error) {
	env, err := open(data)
	if err != nil {
		return nil, err
	}
	if !env.Kind.IsExclusion() {
		return nil, errors.Wrapf(ErrKindMismatch, "want an exclusion proof, got %v", env.Kind)
	}
	return decodeExclusion(env)
}

func decodeExclusion(env *envelope) (accounts.ExclusionProof, error) {
	switch env.Kind {
	case KindExclusionEmpty:
		var empty struct{}
		if err := rlp.DecodeBytes(env.Payload, &empty); err != nil {
			return nil, errors.Wrap(err, "decoding empty exclusion proof")
		}
		return accounts.EmptyExclusion{}, nil
	case KindExclusionLeft:
		var proof accounts.LeftExclusion
		if err := rlp.DecodeBytes(env.Payload, &proof.Leftmost); err != nil {
			return nil, errors.Wrap(err, "decoding left exclusion proof")
		}
		return proof, nil
	case KindExclusionRight:
		var proof accounts.RightExclusion
		if err := rlp.DecodeBytes(env.Payload, &proof.Rightmost); err != nil {
			return nil, errors.Wrap(err, "decoding right exclusion proof")
		}
		return proof, nil
	case KindExclusionInner:
		var payload innerPayload
		if err := rlp.DecodeBytes(env.Payload, &payload); err != nil {
			return nil, errors.Wrap(err, "decoding inner exclusion proof")
		}
		return accounts.InnerExclusion{Left: payload.Left, Right: payload.Right}, nil
	default:
		return nil, errors.Wrapf(ErrKindMismatch, "%v is not an exclusion proof", env.Kind)
	}
}

func UnmarshalBlob(data []byte) (*blob.Proof, error) {
	env, err := openKind(data, KindBlob)
	if err != nil {
		return nil, err
	}
	var proof blob.Proof
	if err := rlp.DecodeBytes(env.Payload, &proof); err != nil {
		return nil, errors.Wrap(err, "decoding blob proof")
	}
	return &proof, nil
}

func UnmarshalBankHash(data []byte) (*bankhash.Proof, error) {
	env, err := openKind(data, KindBankHash)
	if err != nil {
		return nil, err
	}
	var proof bankhash.Proof
	if err := rlp.DecodeBytes(env.Payload, &proof); err != nil {
		return nil, errors.Wrap(err, "decoding bank hash proof")
	}
	return &proof, nil
}

func UnmarshalSlotHash(data []byte) (*slothash.Proof, error) {
	env, err := openKind(data, KindSlotHash)
	if err != nil {
		return nil, err
	}
	var payload slotHashPayload
	if err := rlp.DecodeBytes(env.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding slot hash proof")
	}
	return payload.proof()
}

func UnmarshalCompoundInclusion(data []byte) (*compound.InclusionProof, error) {
	env, err := openKind(data, KindCompoundInclusion)
	if err != nil {
		return nil, err
	}
	var payload compoundInclusionPayload
	if err := rlp.DecodeBytes(env.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding compound inclusion proof")
	}
	slotHash, err := payload.SlotHash.proof()
	if err != nil {
		return nil, err
	}
	return &compound.InclusionProof{
		TargetSlot: payload.TargetSlot,
		BankHash:   payload.BankHash,
		SlotHash:   *slotHash,
		Blobs:      payload.Blobs,
	}, nil
}

func UnmarshalCompoundCompleteness(data []byte) (*compound.CompletenessProof, error) {
	env, err := openKind(data, KindCompoundCompleteness)
	if err != nil {
		return nil, err
	}
	var payload completenessPayload
	if err := rlp.DecodeBytes(env.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding compound completeness proof")
	}
	slotHash, err := payload.SlotHash.proof()
	if err != nil {
		return nil, err
	}
	exclusion, err := UnmarshalExclusion(payload.Exclusion)
	if err != nil {
		return nil, errors.Wrap(err, "nested exclusion proof")
	}
	return &compound.CompletenessProof{
		TargetSlot: payload.TargetSlot,
		BankHash:   payload.BankHash,
		SlotHash:   *slotHash,
		Exclusion:  exclusion,
	}, nil
}

// Unmarshal decodes a proof of any kind. Single values come back as pointers,
// exclusion proofs as accounts.ExclusionProof.
func Unmarshal(data []byte) (interface{}, error) {
	env, err := open(data)
	if err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindInclusion:
		return UnmarshalInclusion(data)
	case KindExclusionEmpty, KindExclusionLeft, KindExclusionRight, KindExclusionInner:
		return decodeExclusion(env)
	case KindBlob:
		return UnmarshalBlob(data)
	case KindBankHash:
		return UnmarshalBankHash(data)
	case KindSlotHash:
		return UnmarshalSlotHash(data)
	case KindCompoundInclusion:
		return UnmarshalCompoundInclusion(data)
	default:
		return UnmarshalCompoundCompleteness(data)
	}
}
