package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// SeedSize is the length in bytes of a draw seed.
const SeedSize = sha256.Size

// Seed is the entropy that fully determines a draw.
type Seed [SeedSize]byte

// DeriveSeed hashes identity, timestamp, round and sequence, in that order,
// with integers encoded little-endian.
func DeriveSeed(identity Identity, timestamp int64, round, sequence uint64) Seed {
	var buf [IdentitySize + 24]byte
	copy(buf[:IdentitySize], identity[:])
	binary.LittleEndian.PutUint64(buf[IdentitySize:], uint64(timestamp))
	binary.LittleEndian.PutUint64(buf[IdentitySize+8:], round)
	binary.LittleEndian.PutUint64(buf[IdentitySize+16:], sequence)
	return sha256.Sum256(buf[:])
}

// ParseSeed decodes a 64-character hex seed.
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != SeedSize {
		return seed, fmt.Errorf("%w: want %d hex-encoded bytes", ErrInvalidSeed, SeedSize)
	}
	copy(seed[:], raw)
	return seed, nil
}

func (s Seed) String() string { return hex.EncodeToString(s[:]) }
