package domain

import (
	"encoding/hex"
	"fmt"
)

// IdentitySize is the length in bytes of a requester identity.
const IdentitySize = 32

// Identity is the fixed-length public identifier of a requester.
type Identity [IdentitySize]byte

// ParseIdentity decodes a 64-character hex identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != IdentitySize {
		return id, fmt.Errorf("%w: want %d hex-encoded bytes", ErrInvalidIdentity, IdentitySize)
	}
	copy(id[:], raw)
	return id, nil
}

func (id Identity) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the all-zero identity.
func (id Identity) IsZero() bool { return id == Identity{} }

// Slot positions inside a draw.
const (
	SlotPast = iota
	SlotPresent
	SlotFuture
)

// SlotNames maps slot positions to their labels.
var SlotNames = [3]string{"past", "present", "future"}

// Fortune is the immutable record of one accepted draw.
type Fortune struct {
	ID        uint64
	Owner     Identity
	Cards     [3]CardID
	Timestamp int64
	Round     uint64
	Rarity    Rarity
	Seed      Seed
}

// Fee bounds accepted by Initialize, in the smallest currency unit.
const (
	MinFee uint64 = 1_000_000
	MaxFee uint64 = 100_000_000
)

// ArtworkMaxBytes is the largest artwork entry accepted for a single card.
const ArtworkMaxBytes = 2048

// ArtworkBatchMax is the largest number of artwork entries accepted per upload.
const ArtworkBatchMax = 10

// OracleState is the one-time configuration plus the global draw counter.
type OracleState struct {
	Authority        Identity
	Treasury         Identity
	Fee              uint64
	FortuneCounter   uint64
	ArtworkComplete  bool
	ArtworkVersion   int
	ArtworkUpdatedAt int64
}

// ValidateFee checks fee against [MinFee, MaxFee].
func ValidateFee(fee uint64) error {
	if fee < MinFee || fee > MaxFee {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrFeeOutOfRange, fee, MinFee, MaxFee)
	}
	return nil
}
