package domain_test

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

func testIdentity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestDeriveSeed_Construction(t *testing.T) {
	id := testIdentity(7)
	var buf []byte
	buf = append(buf, id[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(1000))
	buf = binary.LittleEndian.AppendUint64(buf, 5)
	buf = binary.LittleEndian.AppendUint64(buf, 1)
	want := sha256.Sum256(buf)

	got := domain.DeriveSeed(id, 1000, 5, 1)
	if [32]byte(got) != want {
		t.Errorf("seed mismatch:\n got %x\nwant %x", got, want)
	}
}

func TestDeriveSeed_SensitiveToEachInput(t *testing.T) {
	base := domain.DeriveSeed(testIdentity(1), 1000, 5, 1)

	variants := map[string]domain.Seed{
		"identity":  domain.DeriveSeed(testIdentity(2), 1000, 5, 1),
		"timestamp": domain.DeriveSeed(testIdentity(1), 1001, 5, 1),
		"round":     domain.DeriveSeed(testIdentity(1), 1000, 6, 1),
		"sequence":  domain.DeriveSeed(testIdentity(1), 1000, 5, 2),
	}
	for name, s := range variants {
		if s == base {
			t.Errorf("changing %s did not change the seed", name)
		}
	}
}

func TestDeriveSeed_Pure(t *testing.T) {
	a := domain.DeriveSeed(testIdentity(9), -5, 0, 0)
	b := domain.DeriveSeed(testIdentity(9), -5, 0, 0)
	if a != b {
		t.Error("identical inputs produced different seeds")
	}
}

func TestParseSeed(t *testing.T) {
	s := domain.DeriveSeed(testIdentity(3), 1, 2, 3)
	got, err := domain.ParseSeed(s.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != s {
		t.Errorf("expected %s, got %s", s, got)
	}

	for _, bad := range []string{"", "zz", "abcd"} {
		if _, err := domain.ParseSeed(bad); !errors.Is(err, domain.ErrInvalidSeed) {
			t.Errorf("%q: expected ErrInvalidSeed, got %v", bad, err)
		}
	}
}
